// Package rdcio reads measurement sets from CSV and writes back-calculated
// couplings in the same layout.
//
// Input columns are matched by header name, case-insensitively:
//
//	label,x,y,z,exp,err,max,pair
//
// x, y, z and exp are required. Each row needs either max (the static
// coupling limit in Hz) or pair (a two-letter nucleus code such as HN, from
// which the limit is derived). Lines starting with '#' are comments.
package rdcio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nanalysis/nmrfx-sub023/internal/fsutil"
	"github.com/nanalysis/nmrfx-sub023/internal/nuclei"
	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
)

// Column names.
const (
	ColLabel = "label"
	ColX     = "x"
	ColY     = "y"
	ColZ     = "z"
	ColExp   = "exp"
	ColErr   = "err"
	ColMax   = "max"
	ColPair  = "pair"
	ColCalc  = "calc"
)

// Options controls how coupling limits are derived from the pair column.
type Options struct {
	// Constants supplies gyromagnetic ratios; nil selects the defaults.
	Constants *nuclei.Constants
	// FixedDistance uses the reference bond length of the pair instead of
	// the length of the bond vector.
	FixedDistance bool
}

// RowError locates a parse failure. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// ReadFile opens path on fsys and reads it with Read.
func ReadFile(fsys fsutil.FileSystem, path string, opts Options) ([]rdc.Observation, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open measurement set: %w", err)
	}
	defer f.Close()

	obs, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return obs, nil
}

// Read parses a measurement set. Numeric validity beyond parsing (zero
// vectors, non-positive limits) is left to rdc.ValidateObservations.
func Read(r io.Reader, opts Options) ([]rdc.Observation, error) {
	consts := opts.Constants
	if consts == nil {
		consts = nuclei.DefaultConstants()
	}

	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty measurement set")
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{ColX, ColY, ColZ, ColExp} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, req)
		}
	}
	_, hasMax := cols[ColMax]
	_, hasPair := cols[ColPair]
	if !hasMax && !hasPair {
		return nil, fmt.Errorf("%w: need %q or %q", ErrMissingColumn, ColMax, ColPair)
	}

	var obs []rdc.Observation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		number := func(name string, required bool) (float64, error) {
			s := field(name)
			if s == "" {
				if required {
					return 0, &RowError{Line: line, Column: name, Err: errors.New("value required")}
				}
				return 0, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, &RowError{Line: line, Column: name, Err: err}
			}
			return v, nil
		}

		var o rdc.Observation
		o.Label = field(ColLabel)
		if o.Label == "" {
			o.Label = strconv.Itoa(len(obs) + 1)
		}
		if o.Vector.X, err = number(ColX, true); err != nil {
			return nil, err
		}
		if o.Vector.Y, err = number(ColY, true); err != nil {
			return nil, err
		}
		if o.Vector.Z, err = number(ColZ, true); err != nil {
			return nil, err
		}
		if o.ExpRDC, err = number(ColExp, true); err != nil {
			return nil, err
		}
		if o.Error, err = number(ColErr, false); err != nil {
			return nil, err
		}

		if field(ColMax) != "" {
			if o.MaxRDC, err = number(ColMax, true); err != nil {
				return nil, err
			}
		} else {
			o.MaxRDC, err = maxFromPair(consts, field(ColPair), o.Vector, opts.FixedDistance)
			if err != nil {
				return nil, &RowError{Line: line, Column: ColPair, Err: err}
			}
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("measurement set has no rows")
	}
	return obs, nil
}

func maxFromPair(c *nuclei.Constants, code string, v r3.Vec, fixed bool) (float64, error) {
	if code == "" {
		return 0, errors.New("either max or pair is required")
	}
	p, err := nuclei.ParsePair(code)
	if err != nil {
		return 0, err
	}
	r := 0.0
	if !fixed {
		r = r3.Norm(v)
		if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, fmt.Errorf("bond vector length %g cannot set the coupling limit", r)
		}
	}
	return c.MaxRDC(p, r)
}
