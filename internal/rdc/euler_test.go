package rdc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nanalysis/nmrfx-sub023/internal/testutil"
)

var flipXZ = mat.NewDiagDense(3, []float64{-1, 1, -1})

func randomRotation(t *testing.T, seed uint64) *mat.Dense {
	t.Helper()
	rng := newRand(seed)
	a := 2 * math.Pi * rng.Float64()
	b := 0.1 + (math.Pi-0.2)*rng.Float64()
	g := 2 * math.Pi * rng.Float64()
	return RotationFromZYZ(a, b, g).Matrix()
}

func TestNewRotation_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    mat.Matrix
	}{
		{name: "scaled identity", m: mat.NewDiagDense(3, []float64{2, 2, 2})},
		{name: "reflection", m: mat.NewDiagDense(3, []float64{1, -1, 1})},
		{name: "skewed", m: mat.NewDense(3, 3, []float64{1, 0.1, 0, 0, 1, 0, 0, 0, 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRotation(tt.m, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDegenerateRotation))
		})
	}

	_, err := NewRotation(mat.NewDense(2, 2, nil), 0)
	assert.Error(t, err)
}

func TestRotation_ZYZRoundTrip(t *testing.T) {
	t.Parallel()

	for seed := uint64(1); seed <= 50; seed++ {
		r := randomRotation(t, seed)
		rot, err := NewRotation(r, 0)
		require.NoError(t, err)

		a, b, g := rot.ZYZ()
		testutil.AssertMatrixNear(t, RotationFromZYZ(a, b, g).Matrix(), r, 1e-10)
	}
}

func TestRotation_Apply(t *testing.T) {
	t.Parallel()

	rot := RotationFromZYZ(math.Pi/2, 0, 0)
	got := rot.Apply(r3.Vec{X: 1})
	assert.InDelta(t, 0, got.X, 1e-15)
	assert.InDelta(t, 1, got.Y, 1e-15)
	assert.InDelta(t, 0, got.Z, 1e-15)
}

func TestExtractEuler_BranchesReproduceFrames(t *testing.T) {
	t.Parallel()

	for seed := uint64(100); seed < 150; seed++ {
		r := randomRotation(t, seed)
		sol, err := ExtractEuler(r, 0, nil)
		require.NoError(t, err)
		assert.False(t, sol.RowCorrected)

		testutil.AssertMatrixNear(t, sol.Positive.Matrix(), r, 1e-9)

		var flipped mat.Dense
		flipped.Mul(flipXZ, r)
		testutil.AssertMatrixNear(t, sol.Flipped.Matrix(), &flipped, 1e-9)

		for _, e := range []EulerAngles{sol.Positive, sol.Flipped} {
			assert.GreaterOrEqual(t, e.Alpha, 0.0)
			assert.Less(t, e.Alpha, 360.0)
			assert.GreaterOrEqual(t, e.Gamma, 0.0)
			assert.Less(t, e.Gamma, 360.0)
			assert.GreaterOrEqual(t, e.Beta, 0.0)
			assert.LessOrEqual(t, e.Beta, 180.0)
		}
		assert.InDelta(t, 180, sol.Positive.Beta+sol.Flipped.Beta, 1e-9)
	}
}

func TestExtractEuler_KnownAngles(t *testing.T) {
	t.Parallel()

	r := RotationFromZYZ(deg2rad(40), deg2rad(60), deg2rad(25)).Matrix()
	sol, err := ExtractEuler(r, 0, nil)
	require.NoError(t, err)

	assert.InDelta(t, 130, sol.Positive.Alpha, 1e-9)
	assert.InDelta(t, 60, sol.Positive.Beta, 1e-9)
	assert.InDelta(t, 25, sol.Positive.Gamma, 1e-9)

	// diag(−1, 1, −1)·R = Rz(140°)·Ry(120°)·Rz(205°).
	assert.InDelta(t, 230, sol.Flipped.Alpha, 1e-9)
	assert.InDelta(t, 120, sol.Flipped.Beta, 1e-9)
	assert.InDelta(t, 205, sol.Flipped.Gamma, 1e-9)
}

func TestExtractEuler_LeftHandedFrame(t *testing.T) {
	t.Parallel()

	r := randomRotation(t, 7)
	left := mat.DenseCopyOf(r)
	for c := 0; c < 3; c++ {
		left.Set(1, c, -left.At(1, c))
	}
	require.Less(t, mat.Det(left), 0.0)

	rec := &eventRecorder{}
	sol, err := ExtractEuler(left, 0, rec)
	require.NoError(t, err)
	assert.True(t, sol.RowCorrected)
	assert.Equal(t, 1, rec.count(EventRowCorrected))
	testutil.AssertMatrixNear(t, sol.Positive.Matrix(), r, 1e-9)
}

func TestExtractEuler_Degenerate(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	_, err := ExtractEuler(mat.NewDiagDense(3, []float64{2, 2, 2}), 0, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateRotation))

	var de *DegenerateRotationError
	require.True(t, errors.As(err, &de))
	assert.InDelta(t, 3, de.Deviation, 1e-12)
	assert.Zero(t, rec.count(EventRowCorrected))

	_, err = ExtractEuler(mat.NewDense(3, 2, nil), 0, nil)
	assert.Error(t, err)
}

// A rotation about z alone has sin β = 0. The positive branch folds the
// in-plane angle into alpha; the flipped branch loses it.
func TestExtractEuler_GimbalLock(t *testing.T) {
	t.Parallel()

	r := RotationFromZYZ(deg2rad(30), 0, 0).Matrix()
	sol, err := ExtractEuler(r, 0, nil)
	require.NoError(t, err)

	assert.InDelta(t, 120, sol.Positive.Alpha, 1e-9)
	assert.InDelta(t, 0, sol.Positive.Beta, 1e-9)
	assert.InDelta(t, 0, sol.Positive.Gamma, 1e-9)
	testutil.AssertMatrixNear(t, sol.Positive.Matrix(), r, 1e-12)

	assert.InDelta(t, 270, sol.Flipped.Alpha, 1e-9)
	assert.InDelta(t, 180, sol.Flipped.Beta, 1e-9)

	var want mat.Dense
	want.Mul(flipXZ, r)
	assert.False(t, mat.EqualApprox(sol.Flipped.Matrix(), &want, 1e-6),
		"flipped branch should not recover the in-plane angle at gimbal lock")
}

func TestExtractEuler_PositiveBranchFoldsInPlaneAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		alpha, beta, gamma  float64
		wantAlpha, wantBeta float64
	}{
		{name: "beta zero sums", alpha: 20, beta: 0, gamma: 15, wantAlpha: 125, wantBeta: 0},
		{name: "beta 180 differences", alpha: 50, beta: 180, gamma: 20, wantAlpha: 120, wantBeta: 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RotationFromZYZ(deg2rad(tt.alpha), deg2rad(tt.beta), deg2rad(tt.gamma)).Matrix()
			sol, err := ExtractEuler(r, 0, nil)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantAlpha, sol.Positive.Alpha, 1e-9)
			assert.InDelta(t, tt.wantBeta, sol.Positive.Beta, 1e-9)
			assert.InDelta(t, 0, sol.Positive.Gamma, 1e-9)
			testutil.AssertMatrixNear(t, sol.Positive.Matrix(), r, 1e-12)
		})
	}
}

func TestAlignmentTensor_EulerSignFlipSymmetry(t *testing.T) {
	t.Parallel()

	rng := newRand(11)
	for i := 0; i < 30; i++ {
		m := randomMatrix(rng, 0.1)
		tensor, err := NewAlignmentTensor(m, 1, 0)
		require.NoError(t, err)

		_, ok := tensor.Euler()
		assert.False(t, ok)

		sol, err := tensor.ResolveEuler(0, nil)
		require.NoError(t, err)

		cached, ok := tensor.Euler()
		require.True(t, ok)
		assert.Equal(t, sol, cached)

		ev := tensor.Eigenvalues()
		diag := mat.NewDiagDense(3, ev[:])
		for _, e := range []EulerAngles{sol.Positive, sol.Flipped} {
			r := e.Matrix()
			var s mat.Dense
			s.Product(r.T(), diag, r)
			testutil.AssertMatrixNear(t, &s, m.Sym(), 1e-10)
		}
	}
}

func TestEulerAngles_String(t *testing.T) {
	t.Parallel()
	e := EulerAngles{Alpha: 12.5, Beta: 90, Gamma: 359.999}
	assert.Equal(t, "(α=12.50°, β=90.00°, γ=360.00°)", e.String())
}

func TestNormalizeDeg(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-720, 0},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, normalizeDeg(tt.in), 1e-12, "in=%g", tt.in)
	}
}
