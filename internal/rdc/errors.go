package rdc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes of the estimation pipeline.
// Typed errors below wrap them so callers can use errors.Is for the class
// and errors.As for the details.
var (
	// ErrDegenerateInput marks input rejected before any matrix work.
	ErrDegenerateInput = errors.New("rdc: degenerate input")
	// ErrUnresolvableTensor marks an exhausted resampling budget.
	ErrUnresolvableTensor = errors.New("rdc: no physically valid alignment tensor found")
	// ErrDegenerateRotation marks an eigenvector frame that is not a proper rotation.
	ErrDegenerateRotation = errors.New("rdc: eigenvector matrix is not a proper rotation")
	// ErrNotTraceless is returned by the validating factory for elements
	// whose trace is not zero.
	ErrNotTraceless = errors.New("rdc: order matrix is not traceless")
	// ErrOutOfBounds marks an order matrix violating the physical bounds.
	ErrOutOfBounds = errors.New("rdc: order matrix outside physical bounds")
)

// DegenerateInputError reports the observation that could not be used.
// Index is -1 when the problem concerns the list as a whole.
type DegenerateInputError struct {
	Index  int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("rdc: degenerate input: %s", e.Reason)
	}
	return fmt.Sprintf("rdc: degenerate input at observation %d: %s", e.Index, e.Reason)
}

func (e *DegenerateInputError) Unwrap() error { return ErrDegenerateInput }

// UnresolvableTensorError is returned when no solve within the attempt
// budget produced a physically valid order matrix.
type UnresolvableTensorError struct {
	Attempts int
	// Last is the bound violation that rejected the final attempt.
	Last error
}

func (e *UnresolvableTensorError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v after %d attempt(s)", ErrUnresolvableTensor, e.Attempts)
	}
	return fmt.Sprintf("%v after %d attempt(s): %v", ErrUnresolvableTensor, e.Attempts, e.Last)
}

func (e *UnresolvableTensorError) Is(target error) bool { return target == ErrUnresolvableTensor }

func (e *UnresolvableTensorError) Unwrap() error { return e.Last }

// DegenerateRotationError carries the diagnostics of the last rejected
// candidate: its determinant and its largest deviation from orthonormality.
type DegenerateRotationError struct {
	Det       float64
	Deviation float64
}

func (e *DegenerateRotationError) Error() string {
	return fmt.Sprintf("%v (det=%.6g, orthonormality deviation=%.3g)", ErrDegenerateRotation, e.Det, e.Deviation)
}

func (e *DegenerateRotationError) Unwrap() error { return ErrDegenerateRotation }

// BoundsError names the first order-matrix quantity found outside its
// physical range.
type BoundsError struct {
	Element string
	Value   float64
	Min     float64
	Max     float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s %s=%.6g outside [%g, %g]", ErrOutOfBounds, e.Element, e.Value, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }
