package rdc

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Observation is one measured coupling between two bonded nuclei.
//
// Fields:
//   - Vector: internuclear displacement; only its direction is used
//   - ExpRDC: experimental coupling (Hz or a normalised unit)
//   - Error: one-sigma uncertainty of ExpRDC, used only when resampling
//   - MaxRDC: signed static dipolar coupling limit for the pair
//   - CalcRDC: back-calculated coupling, written by EvaluateFit
type Observation struct {
	Label   string
	Vector  r3.Vec
	ExpRDC  float64
	Error   float64
	MaxRDC  float64
	CalcRDC float64
}

// NormalizedRDC returns ExpRDC scaled into the unit order-parameter system.
func (o Observation) NormalizedRDC() float64 {
	return o.ExpRDC / o.MaxRDC
}

// NormalizedError returns the one-sigma error in the same units as
// NormalizedRDC. The sign of MaxRDC is discarded.
func (o Observation) NormalizedError() float64 {
	return math.Abs(o.Error / o.MaxRDC)
}

// ValidateObservations rejects inputs that cannot enter the design matrix:
// an empty list, zero-length or non-finite vectors, and zero or
// non-finite couplings and limits.
func ValidateObservations(obs []Observation) error {
	if len(obs) == 0 {
		return &DegenerateInputError{Index: -1, Reason: "no observations"}
	}
	for i, o := range obs {
		v := o.Vector
		if !isFinite(v.X) || !isFinite(v.Y) || !isFinite(v.Z) {
			return &DegenerateInputError{Index: i, Reason: "non-finite bond vector"}
		}
		if r3.Norm2(v) == 0 {
			return &DegenerateInputError{Index: i, Reason: "zero-length bond vector"}
		}
		if o.MaxRDC == 0 || !isFinite(o.MaxRDC) {
			return &DegenerateInputError{Index: i, Reason: "max RDC must be finite and non-zero"}
		}
		if !isFinite(o.ExpRDC) {
			return &DegenerateInputError{Index: i, Reason: "non-finite experimental RDC"}
		}
		if !isFinite(o.Error) || o.Error < 0 {
			return &DegenerateInputError{Index: i, Reason: "error must be finite and non-negative"}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
