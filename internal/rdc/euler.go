package rdc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultRotationTolerance is the largest |R·Rᵀ − I| entry accepted as
	// orthonormal.
	DefaultRotationTolerance = 1e-6

	// AlphaOffsetDeg is added to alpha in both reported branches.
	AlphaOffsetDeg = 90.0
	// flippedGammaOffsetDeg is added to gamma in the flipped branch.
	flippedGammaOffsetDeg = 180.0

	// gimbalEpsilon is the |sin β| below which alpha and gamma are coupled.
	gimbalEpsilon = 1e-9
)

// EulerAngles is a ZYZ triplet in degrees, R = Rz(α−90°)·Ry(β)·Rz(γ).
// Alpha and Gamma are in [0, 360), Beta in [0, 180].
type EulerAngles struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Matrix converts the triplet back to a rotation matrix, removing the
// alpha reporting offset.
func (e EulerAngles) Matrix() *mat.Dense {
	return RotationFromZYZ(
		deg2rad(e.Alpha-AlphaOffsetDeg),
		deg2rad(e.Beta),
		deg2rad(e.Gamma),
	).Matrix()
}

func (e EulerAngles) String() string {
	return fmt.Sprintf("(α=%.2f°, β=%.2f°, γ=%.2f°)", e.Alpha, e.Beta, e.Gamma)
}

// EulerSolutions is the degenerate pair of orientations describing one
// alignment tensor. An order tensor has no absolute sign, so both frames
// give the same principal axes up to a 180° rotation about y'.
type EulerSolutions struct {
	// Positive is extracted from the rotation object.
	Positive EulerAngles `json:"positive"`
	// Flipped is computed directly from the matrix entries and corresponds
	// to diag(−1, 1, −1)·R.
	Flipped EulerAngles `json:"flipped"`
	// RowCorrected is set when the middle row had to be negated to make the
	// eigenvector frame right-handed.
	RowCorrected bool `json:"row_corrected"`
}

// Rotation is a proper 3×3 rotation matrix (orthonormal, det = +1).
type Rotation struct {
	m [3][3]float64
}

// NewRotation accepts m only if it is orthonormal within tol and has a
// positive determinant.
func NewRotation(m mat.Matrix, tol float64) (Rotation, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return Rotation{}, fmt.Errorf("rdc: rotation must be 3x3, got %dx%d", r, c)
	}
	if tol <= 0 {
		tol = DefaultRotationTolerance
	}
	var rot Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.m[i][j] = m.At(i, j)
		}
	}

	var dev float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var dot float64
			for k := 0; k < 3; k++ {
				dot += rot.m[i][k] * rot.m[j][k]
			}
			if i == j {
				dot -= 1
			}
			dev = math.Max(dev, math.Abs(dot))
		}
	}
	det := mat.Det(m)
	if math.IsNaN(dev) || dev > tol || !(det > 0) {
		return Rotation{}, &DegenerateRotationError{Det: det, Deviation: dev}
	}
	return rot, nil
}

// RotationFromZYZ builds Rz(alpha)·Ry(beta)·Rz(gamma); angles in radians.
func RotationFromZYZ(alpha, beta, gamma float64) Rotation {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	sg, cg := math.Sincos(gamma)
	return Rotation{m: [3][3]float64{
		{ca*cb*cg - sa*sg, -ca*cb*sg - sa*cg, ca * sb},
		{sa*cb*cg + ca*sg, -sa*cb*sg + ca*cg, sa * sb},
		{-sb * cg, sb * sg, cb},
	}}
}

// At returns element (i, j).
func (r Rotation) At(i, j int) float64 { return r.m[i][j] }

// Matrix returns the rotation as a dense matrix.
func (r Rotation) Matrix() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		d.SetRow(i, r.m[i][:])
	}
	return d
}

// Apply returns R·v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r.m[0][0]*v.X + r.m[0][1]*v.Y + r.m[0][2]*v.Z,
		Y: r.m[1][0]*v.X + r.m[1][1]*v.Y + r.m[1][2]*v.Z,
		Z: r.m[2][0]*v.X + r.m[2][1]*v.Y + r.m[2][2]*v.Z,
	}
}

// ZYZ returns (α, β, γ) in radians such that R = Rz(α)·Ry(β)·Rz(γ).
// With sin β ≈ 0 only α+γ (or α−γ) is defined; γ is set to 0 and the
// in-plane angle is carried by α.
func (r Rotation) ZYZ() (alpha, beta, gamma float64) {
	beta = math.Acos(clamp(r.m[2][2], -1, 1))
	if math.Hypot(r.m[0][2], r.m[1][2]) > gimbalEpsilon {
		alpha = math.Atan2(r.m[1][2], r.m[0][2])
		gamma = math.Atan2(r.m[2][1], -r.m[2][0])
		return alpha, beta, gamma
	}
	alpha = math.Atan2(-r.m[0][1], r.m[1][1])
	return alpha, beta, 0
}

// ExtractEuler derives the two ZYZ Euler triplets of the frame whose rows
// are the principal axes.
//
// Algorithm:
//  1. Build a Rotation from R; if R is not proper (typically a left-handed
//     eigenvector triplet) negate the middle row and try once more
//  2. Positive branch: (α, β, γ) from the rotation object
//  3. Flipped branch from the entries: α = atan(Ryz/−Rxz),
//     β = acos(−Rzz), γ = atan(Rzy/−Rzx)
//  4. Add 90° to both alphas and 180° to the flipped gamma
//
// The two branches treat sin β ≈ 0 differently. The positive branch
// inherits the fold of Rotation.ZYZ: γ is reported as 0 and α carries
// α+γ (β = 0) or α−γ (β = 180°), so it still reproduces R. The flipped
// branch is not special-cased: both atan arguments vanish and the
// in-plane angle is lost.
func ExtractEuler(r mat.Matrix, tol float64, o Observer) (EulerSolutions, error) {
	if rows, cols := r.Dims(); rows != 3 || cols != 3 {
		return EulerSolutions{}, fmt.Errorf("rdc: rotation must be 3x3, got %dx%d", rows, cols)
	}
	rot, err := NewRotation(r, tol)
	corrected := false
	if err != nil {
		fixed := mat.DenseCopyOf(r)
		for c := 0; c < 3; c++ {
			fixed.Set(1, c, -fixed.At(1, c))
		}
		rot, err = NewRotation(fixed, tol)
		if err != nil {
			return EulerSolutions{}, err
		}
		corrected = true
		notify(o, Event{Kind: EventRowCorrected})
	}

	a, b, g := rot.ZYZ()
	m := rot.m
	a2 := math.Atan2(m[1][2], -m[0][2])
	b2 := math.Acos(clamp(-m[2][2], -1, 1))
	g2 := math.Atan2(m[2][1], -m[2][0])

	return EulerSolutions{
		Positive: EulerAngles{
			Alpha: normalizeDeg(rad2deg(a) + AlphaOffsetDeg),
			Beta:  rad2deg(b),
			Gamma: normalizeDeg(rad2deg(g)),
		},
		Flipped: EulerAngles{
			Alpha: normalizeDeg(rad2deg(a2) + AlphaOffsetDeg),
			Beta:  rad2deg(b2),
			Gamma: normalizeDeg(rad2deg(g2) + flippedGammaOffsetDeg),
		},
		RowCorrected: corrected,
	}, nil
}

func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

// normalizeDeg maps an angle into [0, 360).
func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	if d == 0 || d >= 360.0 {
		return 0
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
