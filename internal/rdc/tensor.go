package rdc

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultReferenceMaxRDC is the static dipolar coupling (Hz) of an
// amide H–N pair at 1.041 Å. It converts dimensionless tensor components
// into coupling units.
const DefaultReferenceMaxRDC = 21585.19

// AlignmentTensor is a validated order matrix together with its principal
// frame and derived invariants. Construct with NewAlignmentTensor or
// NewAlignmentTensorFromElements; the zero value is not usable.
type AlignmentTensor struct {
	matrix    OrderMatrix
	scale     float64
	refMaxRDC float64

	// effective is scale·matrix; everything below is derived from it.
	effective OrderMatrix
	// eigenvalues are Sx'x', Sy'y', Sz'z' ordered by |λ| ascending.
	eigenvalues [3]float64
	// rotation rows are the matching eigenvectors after the sign convention.
	rotation *mat.Dense

	euler *EulerSolutions
}

// NewAlignmentTensor wraps m after checking the physical bounds.
// scale is the population factor in (0, 1]; refMaxRDC is the representative
// coupling limit used for Magnitude (0 selects DefaultReferenceMaxRDC).
func NewAlignmentTensor(m OrderMatrix, scale, refMaxRDC float64) (*AlignmentTensor, error) {
	if !(scale > 0 && scale <= 1) {
		return nil, fmt.Errorf("rdc: scale %g outside (0, 1]", scale)
	}
	if !isFinite(refMaxRDC) {
		return nil, fmt.Errorf("rdc: reference max RDC must be finite, got %g", refMaxRDC)
	}
	if refMaxRDC == 0 {
		refMaxRDC = DefaultReferenceMaxRDC
	}
	if _, err := m.Validate(); err != nil {
		return nil, err
	}

	t := &AlignmentTensor{
		matrix:    m,
		scale:     scale,
		refMaxRDC: refMaxRDC,
		effective: m.Scale(scale),
	}
	if err := t.diagonalize(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewAlignmentTensorFromElements is the validating factory for raw
// elements. The trace must vanish and every element and eigenvalue must be
// within the physical bounds; otherwise no tensor is returned.
func NewAlignmentTensorFromElements(sxx, syy, szz, sxy, sxz, syz, scale, refMaxRDC float64) (*AlignmentTensor, error) {
	if tr := sxx + syy + szz; math.Abs(tr) > tracelessTolerance || math.IsNaN(tr) {
		return nil, fmt.Errorf("%w: Sxx+Syy+Szz=%.3g", ErrNotTraceless, tr)
	}
	m := OrderMatrix{Syy: syy, Szz: szz, Sxy: sxy, Sxz: sxz, Syz: syz}
	return NewAlignmentTensor(m, scale, refMaxRDC)
}

// diagonalize computes the canonical eigen-decomposition.
//
// Eigenvalues are ordered by absolute value, so Sz'z' is the principal
// (largest magnitude) axis rather than the algebraically largest one.
// Rows 0 and 2 of the eigenvector matrix are negated and row 1 is kept.
func (t *AlignmentTensor) diagonalize() error {
	var es mat.EigenSym
	if ok := es.Factorize(t.effective.Sym(), true); !ok {
		return fmt.Errorf("rdc: eigen-decomposition of alignment tensor failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	idx := []int{0, 1, 2}
	sort.SliceStable(idx, func(i, j int) bool {
		return math.Abs(vals[idx[i]]) < math.Abs(vals[idx[j]])
	})

	signs := [3]float64{-1, 1, -1}
	t.rotation = mat.NewDense(3, 3, nil)
	for row, k := range idx {
		t.eigenvalues[row] = vals[k]
		for c := 0; c < 3; c++ {
			t.rotation.Set(row, c, signs[row]*vecs.At(c, k))
		}
	}
	return nil
}

// Matrix returns the validated, unscaled order matrix.
func (t *AlignmentTensor) Matrix() OrderMatrix { return t.matrix }

// Effective returns the order matrix multiplied by the population scale.
func (t *AlignmentTensor) Effective() OrderMatrix { return t.effective }

// Scale returns the population factor.
func (t *AlignmentTensor) Scale() float64 { return t.scale }

// ReferenceMaxRDC returns the coupling limit used by Magnitude.
func (t *AlignmentTensor) ReferenceMaxRDC() float64 { return t.refMaxRDC }

// Eigenvalues returns (Sx'x', Sy'y', Sz'z') with |Sx'x'| ≤ |Sy'y'| ≤ |Sz'z'|.
func (t *AlignmentTensor) Eigenvalues() [3]float64 { return t.eigenvalues }

// Sxx returns the principal component of smallest magnitude.
func (t *AlignmentTensor) Sxx() float64 { return t.eigenvalues[0] }

// Syy returns the middle principal component.
func (t *AlignmentTensor) Syy() float64 { return t.eigenvalues[1] }

// Szz returns the principal component of largest magnitude.
func (t *AlignmentTensor) Szz() float64 { return t.eigenvalues[2] }

// Rotation returns a copy of the eigenvector matrix; row i is the principal
// axis belonging to Eigenvalues()[i], expressed in the molecular frame.
func (t *AlignmentTensor) Rotation() *mat.Dense {
	return mat.DenseCopyOf(t.rotation)
}

// PrincipalAxis returns row i of the rotation as a vector.
func (t *AlignmentTensor) PrincipalAxis(i int) r3.Vec {
	return r3.Vec{X: t.rotation.At(i, 0), Y: t.rotation.At(i, 1), Z: t.rotation.At(i, 2)}
}

// Axial returns 0.5·Sz'z'.
func (t *AlignmentTensor) Axial() float64 {
	return 0.5 * t.Szz()
}

// Rhombic returns (Sx'x' − Sy'y')/3.
func (t *AlignmentTensor) Rhombic() float64 {
	return (t.Sxx() - t.Syy()) / 3.0
}

// Rhombicity returns Rhombic/Axial, or 0 for a zero tensor.
func (t *AlignmentTensor) Rhombicity() float64 {
	axial := t.Axial()
	if axial == 0 {
		return 0
	}
	return t.Rhombic() / axial
}

// Eta returns the asymmetry (Sy'y' − Sx'x')/Sz'z', or 0 for a zero tensor.
func (t *AlignmentTensor) Eta() float64 {
	if t.Szz() == 0 {
		return 0
	}
	return (t.Syy() - t.Sxx()) / t.Szz()
}

// Magnitude returns 0.5·|refMaxRDC|·Axial in coupling units.
func (t *AlignmentTensor) Magnitude() float64 {
	return 0.5 * math.Abs(t.refMaxRDC) * t.Axial()
}

// BackCalculate predicts the coupling for a bond vector with the given
// static limit from the effective tensor.
func (t *AlignmentTensor) BackCalculate(v r3.Vec, maxRDC float64) float64 {
	row := DirectionCosines(v)
	el := t.effective.Elements()
	var sum float64
	for i := range row {
		sum += row[i] * el[i]
	}
	return sum * maxRDC
}

// Euler returns the Euler-angle pair once ResolveEuler has succeeded.
func (t *AlignmentTensor) Euler() (EulerSolutions, bool) {
	if t.euler == nil {
		return EulerSolutions{}, false
	}
	return *t.euler, true
}

// ResolveEuler extracts the Euler angles of the principal frame and stores
// them on the tensor. Later calls return the stored pair. tol is the
// orthonormality tolerance (<= 0 selects DefaultRotationTolerance); o may
// be nil.
func (t *AlignmentTensor) ResolveEuler(tol float64, o Observer) (EulerSolutions, error) {
	if t.euler != nil {
		return *t.euler, nil
	}
	sol, err := ExtractEuler(t.rotation, tol, o)
	if err != nil {
		return EulerSolutions{}, err
	}
	t.euler = &sol
	return sol, nil
}
