// Package report turns a fit result into the artefacts handed to users: a
// JSON document, a text summary, a correlation plot (PNG) and an
// interactive correlation chart (HTML).
package report

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
	"github.com/nanalysis/nmrfx-sub023/internal/units"
	"github.com/nanalysis/nmrfx-sub023/internal/version"
)

// Float is a float64 whose non-finite values encode as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Valid reports whether f is finite.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// OrderMatrix lists the six Cartesian elements.
type OrderMatrix struct {
	Sxx Float `json:"sxx"`
	Syy Float `json:"syy"`
	Szz Float `json:"szz"`
	Sxy Float `json:"sxy"`
	Sxz Float `json:"sxz"`
	Syz Float `json:"syz"`
}

// Principal lists the eigenvalues ordered by magnitude.
type Principal struct {
	Sxx Float `json:"sxx"`
	Syy Float `json:"syy"`
	Szz Float `json:"szz"`
}

// Angles is one Euler triplet in the report's angle units.
type Angles struct {
	Alpha Float `json:"alpha"`
	Beta  Float `json:"beta"`
	Gamma Float `json:"gamma"`
}

// Euler is the degenerate orientation pair.
type Euler struct {
	Positive     Angles `json:"positive"`
	Flipped      Angles `json:"flipped"`
	RowCorrected bool   `json:"row_corrected"`
}

// Quality mirrors rdc.FitQuality; couplings are in the report's units.
type Quality struct {
	N            int   `json:"n"`
	RMS          Float `json:"rms"`
	ChiSquared   Float `json:"chi_squared"`
	QRMS         Float `json:"q_rms"`
	QRhombicity  Float `json:"q_rhombicity"`
	Slope        Float `json:"slope"`
	Intercept    Float `json:"intercept"`
	SlopeErr     Float `json:"slope_err"`
	InterceptErr Float `json:"intercept_err"`
	R            Float `json:"r"`
	RSquared     Float `json:"r_squared"`
}

// Row is one observation with its back-calculated coupling.
type Row struct {
	Label string `json:"label"`
	X     Float  `json:"x"`
	Y     Float  `json:"y"`
	Z     Float  `json:"z"`
	Exp   Float  `json:"exp"`
	Err   Float  `json:"err"`
	Max   Float  `json:"max"`
	Calc  Float  `json:"calc"`
}

// Report is the serialisable summary of one fit.
type Report struct {
	RunID         string      `json:"run_id,omitempty"`
	Label         string      `json:"label,omitempty"`
	Version       string      `json:"version"`
	AngleUnits    string      `json:"angle_units"`
	CouplingUnits string      `json:"coupling_units"`
	Attempts      int         `json:"attempts"`
	Rank          int         `json:"rank"`
	Scale         Float       `json:"scale"`
	OrderMatrix   OrderMatrix `json:"order_matrix"`
	Principal     Principal   `json:"principal"`
	Axial         Float       `json:"axial"`
	Rhombic       Float       `json:"rhombic"`
	Rhombicity    Float       `json:"rhombicity"`
	Eta           Float       `json:"eta"`
	Magnitude     Float       `json:"magnitude"`
	Euler         Euler       `json:"euler"`
	Quality       Quality     `json:"quality"`
	Rows          []Row       `json:"observations"`
}

// Options selects labelling and display units.
type Options struct {
	Label string
	RunID string
	// AngleUnits is units.Degrees (default) or units.Radians.
	AngleUnits string
	// CouplingUnits is units.Hz (default) or units.KHz.
	CouplingUnits string
}

// New builds a report from a successful fit. obs must be the slice passed
// to rdc.Fit so CalcRDC is populated.
func New(res *rdc.Result, obs []rdc.Observation, opts Options) *Report {
	au := opts.AngleUnits
	if !units.IsValidAngle(au) {
		au = units.Degrees
	}
	cu := opts.CouplingUnits
	if !units.IsValidCoupling(cu) {
		cu = units.Hz
	}
	hz := func(v float64) Float { return Float(units.ConvertCoupling(v, cu)) }
	angles := func(e rdc.EulerAngles) Angles {
		return Angles{
			Alpha: Float(units.ConvertAngle(e.Alpha, au)),
			Beta:  Float(units.ConvertAngle(e.Beta, au)),
			Gamma: Float(units.ConvertAngle(e.Gamma, au)),
		}
	}

	t := res.Tensor
	m := t.Matrix()
	q := res.Quality
	r := &Report{
		RunID:         opts.RunID,
		Label:         opts.Label,
		Version:       version.Version,
		AngleUnits:    au,
		CouplingUnits: cu,
		Attempts:      res.Solution.Attempts,
		Rank:          res.Solution.Rank,
		Scale:         Float(t.Scale()),
		OrderMatrix: OrderMatrix{
			Sxx: Float(m.Sxx()), Syy: Float(m.Syy), Szz: Float(m.Szz),
			Sxy: Float(m.Sxy), Sxz: Float(m.Sxz), Syz: Float(m.Syz),
		},
		Principal:  Principal{Sxx: Float(t.Sxx()), Syy: Float(t.Syy()), Szz: Float(t.Szz())},
		Axial:      Float(t.Axial()),
		Rhombic:    Float(t.Rhombic()),
		Rhombicity: Float(t.Rhombicity()),
		Eta:        Float(t.Eta()),
		Magnitude:  hz(t.Magnitude()),
		Euler: Euler{
			Positive:     angles(res.Euler.Positive),
			Flipped:      angles(res.Euler.Flipped),
			RowCorrected: res.Euler.RowCorrected,
		},
		Quality: Quality{
			N:            q.N,
			RMS:          hz(q.RMS),
			ChiSquared:   Float(q.ChiSquared),
			QRMS:         Float(q.QRMS),
			QRhombicity:  Float(q.QRhombicity),
			Slope:        Float(q.Regression.Slope),
			Intercept:    hz(q.Regression.Intercept),
			SlopeErr:     Float(q.Regression.SlopeErr),
			InterceptErr: hz(q.Regression.InterceptErr),
			R:            Float(q.Regression.R),
			RSquared:     Float(q.Regression.RSquared),
		},
		Rows: make([]Row, len(obs)),
	}
	for i, o := range obs {
		r.Rows[i] = Row{
			Label: o.Label,
			X:     Float(o.Vector.X), Y: Float(o.Vector.Y), Z: Float(o.Vector.Z),
			Exp: hz(o.ExpRDC), Err: hz(o.Error), Max: hz(o.MaxRDC), Calc: hz(o.CalcRDC),
		}
	}
	return r
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON decodes a report written by WriteJSON.
func ReadJSON(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
