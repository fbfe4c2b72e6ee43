package rdc

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Solver defaults.
const (
	// DefaultMaxAttempts bounds the number of solves, the first included.
	DefaultMaxAttempts = 10
	// DefaultRankTolerance is the relative singular-value cutoff below which
	// a direction is treated as unsampled.
	DefaultRankTolerance = 1e-10
	// DefaultSeed seeds the resampling source.
	DefaultSeed uint64 = 1
)

// SolverConfig controls the resample-and-retry loop.
type SolverConfig struct {
	// MaxAttempts is the total number of SVD solves allowed, including the
	// first one on the measured couplings. Values < 1 are treated as 1.
	MaxAttempts int
	// RankTolerance is passed to SVD.Rank as rcond.
	RankTolerance float64
	// Seed makes resampling reproducible. Every Solve call starts a fresh
	// PCG stream from this seed.
	Seed uint64
}

// DefaultSolverConfig returns the production defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		MaxAttempts:   DefaultMaxAttempts,
		RankTolerance: DefaultRankTolerance,
		Seed:          DefaultSeed,
	}
}

// Solution is an accepted order matrix and how it was obtained.
type Solution struct {
	Matrix OrderMatrix
	// Eigenvalues in ascending algebraic order.
	Eigenvalues [3]float64
	// Attempts is the number of solves performed; 1 means no resampling.
	Attempts int
	// Rank is the effective rank of the design matrix.
	Rank int
}

// Solver finds a physically valid order matrix for a set of observations.
// It holds no per-call state and may be shared between goroutines.
type Solver struct {
	cfg      SolverConfig
	observer Observer
}

// NewSolver creates a Solver. Zero-valued config fields take defaults.
func NewSolver(cfg SolverConfig) *Solver {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RankTolerance <= 0 {
		cfg.RankTolerance = DefaultRankTolerance
	}
	return &Solver{cfg: cfg}
}

// SetObserver installs an optional diagnostics hook. Pass nil to remove it.
func (s *Solver) SetObserver(o Observer) {
	s.observer = o
}

// Config returns the effective configuration.
func (s *Solver) Config() SolverConfig {
	return s.cfg
}

// Solve fits the order matrix to obs.
//
// Algorithm:
//  1. Factorise the design matrix A once (thin SVD) and take the
//     minimum-norm least-squares solution of A·x = b
//  2. Assemble the traceless matrix from x
//  3. Reject if any element is outside its bound
//  4. Reject if any eigenvalue is outside [-0.5, 1]
//  5. On rejection redraw b[i] ~ N(exp/max, err/max) and go to 1
//
// At most MaxAttempts solves are made. When every error is zero a redraw
// reproduces b exactly, so the loop stops after the first rejection. ctx
// is checked between attempts and bounds the wall-clock time spent.
func (s *Solver) Solve(ctx context.Context, obs []Observation) (*Solution, error) {
	a, err := DirectionMatrix(obs)
	if err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("rdc: SVD factorisation of direction matrix failed")
	}
	rank := svd.Rank(s.cfg.RankTolerance)
	if rank == 0 {
		return nil, &DegenerateInputError{Index: -1, Reason: "direction matrix has rank 0"}
	}
	if rank < numElements {
		notify(s.observer, Event{Kind: EventRankDeficient, Rank: rank})
	}

	b := NormalizedRDCs(obs)
	resampler := newResampler(obs, s.cfg.Seed)

	var x mat.VecDense
	var last error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("rdc: solve interrupted after %d attempt(s): %w", attempt-1, err)
			}
			resampler.draw(b)
			notify(s.observer, Event{Kind: EventResampled, Attempt: attempt})
		}

		svd.SolveVecTo(&x, b, rank)
		m := OrderMatrixFromElements(x.RawVector().Data)

		vals, err := m.Validate()
		if err == nil {
			notify(s.observer, Event{Kind: EventSolved, Attempt: attempt, Matrix: m})
			return &Solution{Matrix: m, Eigenvalues: vals, Attempts: attempt, Rank: rank}, nil
		}
		last = err
		notify(s.observer, Event{Kind: EventAttemptRejected, Attempt: attempt, Err: err, Matrix: m})

		if !resampler.canChange() {
			return nil, &UnresolvableTensorError{Attempts: attempt, Last: last}
		}
	}
	return nil, &UnresolvableTensorError{Attempts: s.cfg.MaxAttempts, Last: last}
}

// resampler redraws the normalised couplings from their error model.
type resampler struct {
	dists    []distuv.Normal
	variance bool
}

func newResampler(obs []Observation, seed uint64) *resampler {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	r := &resampler{dists: make([]distuv.Normal, len(obs))}
	for i, o := range obs {
		sigma := o.NormalizedError()
		if sigma > 0 {
			r.variance = true
		}
		r.dists[i] = distuv.Normal{Mu: o.NormalizedRDC(), Sigma: sigma, Src: src}
	}
	return r
}

// canChange reports whether a redraw can produce a different b.
func (r *resampler) canChange() bool {
	return r.variance
}

func (r *resampler) draw(b *mat.VecDense) {
	for i := range r.dists {
		b.SetVec(i, r.dists[i].Rand())
	}
}
