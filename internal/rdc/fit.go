package rdc

import (
	"context"
	"fmt"
)

// FitOptions configures the end-to-end pipeline.
type FitOptions struct {
	Solver SolverConfig
	// Scale is the population factor applied to the solved tensor, in
	// (0, 1]. Zero means 1. Values below 1 describe one member of an
	// ensemble and attenuate the back-calculated couplings.
	Scale float64
	// ReferenceMaxRDC feeds AlignmentTensor.Magnitude. Zero selects
	// DefaultReferenceMaxRDC.
	ReferenceMaxRDC float64
	// RotationTolerance is the orthonormality tolerance for Euler
	// extraction. Zero selects DefaultRotationTolerance.
	RotationTolerance float64
	// Observer receives diagnostics; may be nil.
	Observer Observer
}

// DefaultFitOptions returns the production defaults.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Solver:            DefaultSolverConfig(),
		Scale:             1,
		ReferenceMaxRDC:   DefaultReferenceMaxRDC,
		RotationTolerance: DefaultRotationTolerance,
	}
}

// Result bundles everything derived from one set of observations.
type Result struct {
	Solution Solution
	Tensor   *AlignmentTensor
	Euler    EulerSolutions
	Quality  FitQuality
}

// Fit runs validate → solve → diagonalise → Euler → quality on obs.
// obs[i].CalcRDC is populated on success. Failures are returned as the
// typed errors of this package, wrapped with the failing stage.
func Fit(ctx context.Context, obs []Observation, opts FitOptions) (*Result, error) {
	solver := NewSolver(opts.Solver)
	solver.SetObserver(opts.Observer)

	sol, err := solver.Solve(ctx, obs)
	if err != nil {
		return nil, fmt.Errorf("solve order matrix: %w", err)
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	tensor, err := NewAlignmentTensor(sol.Matrix, scale, opts.ReferenceMaxRDC)
	if err != nil {
		return nil, fmt.Errorf("build alignment tensor: %w", err)
	}

	euler, err := tensor.ResolveEuler(opts.RotationTolerance, opts.Observer)
	if err != nil {
		return nil, fmt.Errorf("extract euler angles: %w", err)
	}

	quality, err := EvaluateFit(tensor, obs)
	if err != nil {
		return nil, fmt.Errorf("evaluate fit: %w", err)
	}

	return &Result{
		Solution: *sol,
		Tensor:   tensor,
		Euler:    euler,
		Quality:  quality,
	}, nil
}
