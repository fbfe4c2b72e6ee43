package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	// Verify nil error doesn't cause issues
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	AssertError(t, errors.New("test error"))
}

func TestAssertMatrixNear(t *testing.T) {
	t.Parallel()

	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{1, 2, 3, 4 + 1e-12})
	AssertMatrixNear(t, a, b, 1e-9)
}

func TestFibonacciSphere(t *testing.T) {
	t.Parallel()

	vs := FibonacciSphere(50)
	assert.Len(t, vs, 50)

	var sum r3.Vec
	for _, v := range vs {
		assert.InDelta(t, 1.0, r3.Norm(v), 1e-12)
		sum = r3.Add(sum, v)
	}
	// An even spread has a centroid near the origin.
	assert.Less(t, r3.Norm(sum)/50, 0.1)
}

func TestScaleVectors(t *testing.T) {
	t.Parallel()

	vs := ScaleVectors([]r3.Vec{{X: 1}, {Y: -2}}, 1.5)
	assert.Equal(t, r3.Vec{X: 1.5}, vs[0])
	assert.Equal(t, r3.Vec{Y: -3}, vs[1])
}
