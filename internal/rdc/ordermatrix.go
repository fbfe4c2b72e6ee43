package rdc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Physical bounds on order-matrix quantities. Order parameters cannot
// exceed unit alignment, so diagonal elements and eigenvalues lie in
// [-0.5, 1] and off-diagonal elements in [-0.75, 0.75].
const (
	DiagonalMin    = -0.5
	DiagonalMax    = 1.0
	OffDiagonalMin = -0.75
	OffDiagonalMax = 0.75

	// boundSlack absorbs round-off for values sitting exactly on a bound.
	boundSlack = 1e-9
	// tracelessTolerance is the largest |Sxx+Syy+Szz| accepted from raw elements.
	tracelessTolerance = 1e-9
)

// OrderMatrix is a symmetric traceless 3×3 order tensor stored as its five
// independent elements. Sxx is derived, so the trace is zero by
// construction.
type OrderMatrix struct {
	Syy float64
	Szz float64
	Sxy float64
	Sxz float64
	Syz float64
}

// OrderMatrixFromElements builds an OrderMatrix from the solution vector
// (Syy, Szz, Sxy, Sxz, Syz).
func OrderMatrixFromElements(x []float64) OrderMatrix {
	return OrderMatrix{Syy: x[0], Szz: x[1], Sxy: x[2], Sxz: x[3], Syz: x[4]}
}

// Sxx returns the dependent diagonal element −Syy−Szz.
func (m OrderMatrix) Sxx() float64 {
	return -m.Syy - m.Szz
}

// Trace returns Sxx+Syy+Szz, zero up to round-off.
func (m OrderMatrix) Trace() float64 {
	return m.Sxx() + m.Syy + m.Szz
}

// Elements returns (Syy, Szz, Sxy, Sxz, Syz) in design-matrix column order.
func (m OrderMatrix) Elements() [numElements]float64 {
	return [numElements]float64{m.Syy, m.Szz, m.Sxy, m.Sxz, m.Syz}
}

// Scale returns the matrix multiplied by f.
func (m OrderMatrix) Scale(f float64) OrderMatrix {
	return OrderMatrix{Syy: f * m.Syy, Szz: f * m.Szz, Sxy: f * m.Sxy, Sxz: f * m.Sxz, Syz: f * m.Syz}
}

// At returns element (i, j) of the full 3×3 matrix.
func (m OrderMatrix) At(i, j int) float64 {
	return m.Sym().At(i, j)
}

// Sym returns the full symmetric matrix.
func (m OrderMatrix) Sym() *mat.SymDense {
	return mat.NewSymDense(3, []float64{
		m.Sxx(), m.Sxy, m.Sxz,
		m.Sxy, m.Syy, m.Syz,
		m.Sxz, m.Syz, m.Szz,
	})
}

// CheckElementBounds verifies the six independent entries against the
// physical bounds and returns a *BoundsError for the first violation.
func (m OrderMatrix) CheckElementBounds() error {
	diag := []struct {
		name string
		v    float64
	}{{"Sxx", m.Sxx()}, {"Syy", m.Syy}, {"Szz", m.Szz}}
	for _, d := range diag {
		if !within(d.v, DiagonalMin, DiagonalMax) {
			return &BoundsError{Element: d.name, Value: d.v, Min: DiagonalMin, Max: DiagonalMax}
		}
	}
	off := []struct {
		name string
		v    float64
	}{{"Sxy", m.Sxy}, {"Sxz", m.Sxz}, {"Syz", m.Syz}}
	for _, o := range off {
		if !within(o.v, OffDiagonalMin, OffDiagonalMax) {
			return &BoundsError{Element: o.name, Value: o.v, Min: OffDiagonalMin, Max: OffDiagonalMax}
		}
	}
	return nil
}

// Eigenvalues returns the eigenvalues in ascending algebraic order.
func (m OrderMatrix) Eigenvalues() ([3]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(m.Sym(), false); !ok {
		return [3]float64{}, fmt.Errorf("eigen-decomposition of order matrix failed")
	}
	var vals [3]float64
	copy(vals[:], es.Values(nil))
	return vals, nil
}

// CheckEigenvalueBounds verifies every eigenvalue lies in [-0.5, 1].
func CheckEigenvalueBounds(vals [3]float64) error {
	for i, v := range vals {
		if !within(v, DiagonalMin, DiagonalMax) {
			return &BoundsError{Element: fmt.Sprintf("eigenvalue[%d]", i), Value: v, Min: DiagonalMin, Max: DiagonalMax}
		}
	}
	return nil
}

// Validate runs the element check followed by the eigenvalue check and
// returns the eigenvalues on success.
func (m OrderMatrix) Validate() ([3]float64, error) {
	if err := m.CheckElementBounds(); err != nil {
		return [3]float64{}, err
	}
	vals, err := m.Eigenvalues()
	if err != nil {
		return [3]float64{}, err
	}
	if err := CheckEigenvalueBounds(vals); err != nil {
		return vals, err
	}
	return vals, nil
}

func within(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo-boundSlack && v <= hi+boundSlack
}
