package rdc

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// numElements is the number of independent order-matrix elements, ordered
// (Syy, Szz, Sxy, Sxz, Syz) throughout the package.
const numElements = 5

// DirectionCosines returns the design-matrix row for a bond vector:
//
//	[dy²−dx², dz²−dx², 2·dx·dy, 2·dx·dz, 2·dy·dz]
//
// where (dx, dy, dz) are the direction cosines of v. The dot product of this
// row with the five order-matrix elements is D/Dmax for the bond. v must be
// non-zero.
func DirectionCosines(v r3.Vec) [numElements]float64 {
	u := r3.Unit(v)
	dx, dy, dz := u.X, u.Y, u.Z
	return [numElements]float64{
		dy*dy - dx*dx,
		dz*dz - dx*dx,
		2 * dx * dy,
		2 * dx * dz,
		2 * dy * dz,
	}
}

// DirectionMatrix builds the n×5 design matrix, one row per observation.
// Observations are validated first so a degenerate input never reaches
// matrix construction.
func DirectionMatrix(obs []Observation) (*mat.Dense, error) {
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}
	a := mat.NewDense(len(obs), numElements, nil)
	for i, o := range obs {
		row := DirectionCosines(o.Vector)
		a.SetRow(i, row[:])
	}
	return a, nil
}

// NormalizedRDCs returns b with b[i] = ExpRDC[i]/MaxRDC[i], the right-hand
// side of the order-matrix system.
func NormalizedRDCs(obs []Observation) *mat.VecDense {
	b := mat.NewVecDense(len(obs), nil)
	for i, o := range obs {
		b.SetVec(i, o.NormalizedRDC())
	}
	return b
}
