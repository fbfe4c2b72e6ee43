package rdcio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nanalysis/nmrfx-sub023/internal/fsutil"
	"github.com/nanalysis/nmrfx-sub023/internal/nuclei"
	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
)

const sample = `# residue couplings
label,x,y,z,exp,err,max
A12, 1.0, 0.0, 0.0, 4.5, 0.5, 21585.19
A13, 0.0, 1.0, 0.0, -3.25, 0.5, 21585.19
A14, 0.0, 0.0, 1.0, -1.25, , 21585.19
`

func TestRead(t *testing.T) {
	obs, err := Read(strings.NewReader(sample), Options{})
	require.NoError(t, err)

	want := []rdc.Observation{
		{Label: "A12", Vector: r3.Vec{X: 1}, ExpRDC: 4.5, Error: 0.5, MaxRDC: 21585.19},
		{Label: "A13", Vector: r3.Vec{Y: 1}, ExpRDC: -3.25, Error: 0.5, MaxRDC: 21585.19},
		{Label: "A14", Vector: r3.Vec{Z: 1}, ExpRDC: -1.25, Error: 0, MaxRDC: 21585.19},
	}
	if diff := cmp.Diff(want, obs); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_HeaderOrderAndCase(t *testing.T) {
	in := "EXP,Z,Y,X,MAX\n2,0,0,1,10\n"
	obs, err := Read(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, r3.Vec{X: 1}, obs[0].Vector)
	assert.Equal(t, 2.0, obs[0].ExpRDC)
	assert.Equal(t, "1", obs[0].Label, "missing label falls back to row number")
}

func TestRead_PairColumn(t *testing.T) {
	in := "label,x,y,z,exp,pair\nn1,0,0,1.041,3,HN\nn2,0,0,2.082,3,NH\n"

	obs, err := Read(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.InEpsilon(t, 21585.19, obs[0].MaxRDC, 1e-3)
	assert.InDelta(t, obs[0].MaxRDC/8, obs[1].MaxRDC, 1e-9)

	fixed, err := Read(strings.NewReader(in), Options{FixedDistance: true})
	require.NoError(t, err)
	assert.Equal(t, fixed[0].MaxRDC, fixed[1].MaxRDC)
	assert.InEpsilon(t, 21585.19, fixed[1].MaxRDC, 1e-3)
}

func TestRead_MaxOverridesPair(t *testing.T) {
	in := "x,y,z,exp,max,pair\n1,0,0,1,100,HN\n1,0,0,1,,HN\n"
	obs, err := Read(strings.NewReader(in), Options{Constants: nuclei.DefaultConstants()})
	require.NoError(t, err)
	assert.Equal(t, 100.0, obs[0].MaxRDC)
	assert.Greater(t, obs[1].MaxRDC, 100.0)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantCol string
		wantErr error
	}{
		{name: "empty", in: ""},
		{name: "header only", in: "x,y,z,exp,max\n"},
		{name: "missing x", in: "y,z,exp,max\n0,1,2,3\n", wantErr: ErrMissingColumn},
		{name: "no limit column", in: "x,y,z,exp\n0,0,1,2\n", wantErr: ErrMissingColumn},
		{name: "bad number", in: "x,y,z,exp,max\n0,zero,1,2,3\n", wantCol: ColY},
		{name: "blank required", in: "x,y,z,exp,max\n0,0,1,,3\n", wantCol: ColExp},
		{name: "no max or pair value", in: "x,y,z,exp,max,pair\n0,0,1,2,,\n", wantCol: ColPair},
		{name: "unknown nucleus", in: "x,y,z,exp,pair\n0,0,1,2,HX\n", wantCol: ColPair},
		{name: "zero vector with pair", in: "x,y,z,exp,pair\n0,0,0,2,HN\n", wantCol: ColPair},
		{name: "malformed quotes", in: "x,y,z,exp,max\n\"0,0,1,2,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), Options{})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantCol != "" {
				var re *RowError
				require.True(t, errors.As(err, &re), "got %v", err)
				assert.Equal(t, tt.wantCol, re.Column)
				assert.Equal(t, 2, re.Line)
			}
		})
	}

	_, err := Read(strings.NewReader("x,y,z,exp,max\n\"0,0,1,2,3\n"), Options{})
	var pe *csv.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestReadFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/data/obs.csv", []byte(sample), 0o644))

	obs, err := ReadFile(fsys, "/data/obs.csv", Options{})
	require.NoError(t, err)
	assert.Len(t, obs, 3)

	_, err = ReadFile(fsys, "/data/missing.csv", Options{})
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	obs, err := Read(strings.NewReader(sample), Options{})
	require.NoError(t, err)
	for i := range obs {
		obs[i].CalcRDC = float64(i) + 0.125
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, obs))
	assert.True(t, strings.HasPrefix(buf.String(), "label,x,y,z,exp,err,max,calc\n"))

	back, err := Read(&buf, Options{})
	require.NoError(t, err)
	// calc is not an input column.
	if diff := cmp.Diff(obs, back, cmpopts.IgnoreFields(rdc.Observation{}, "CalcRDC")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
