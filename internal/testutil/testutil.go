// Package testutil provides shared test utilities and fixtures.
//
// This package centralises geometry fixtures and assertion helpers used by
// the tensor, reader and store tests.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertMatrixNear fails the test if got and want differ in shape or in any
// element by more than tol.
func AssertMatrixNear(t testing.TB, got, want mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(got, want, tol) {
		t.Fatalf("matrices differ by more than %g:\ngot  %v\nwant %v",
			tol, mat.Formatted(got, mat.Squeeze()), mat.Formatted(want, mat.Squeeze()))
	}
}

// FibonacciSphere returns n unit vectors spread evenly over the sphere.
// The set is deterministic, so fits over it are reproducible, and for n ≥ 5
// it spans all five order-matrix directions.
func FibonacciSphere(n int) []r3.Vec {
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		z := 1 - (float64(i)+0.5)*2/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := golden * float64(i)
		out[i] = r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
	}
	return out
}

// ScaleVectors multiplies every vector by length, e.g. to give unit
// directions a bond length in Å.
func ScaleVectors(vs []r3.Vec, length float64) []r3.Vec {
	out := make([]r3.Vec, len(vs))
	for i, v := range vs {
		out[i] = r3.Scale(length, v)
	}
	return out
}
