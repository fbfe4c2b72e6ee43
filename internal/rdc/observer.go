package rdc

// EventKind classifies a diagnostic emitted while fitting.
type EventKind string

const (
	// EventRankDeficient: the design matrix has fewer than five independent
	// directions and the minimum-norm solution is used.
	EventRankDeficient EventKind = "rank_deficient"
	// EventAttemptRejected: a solve produced a matrix outside the bounds.
	EventAttemptRejected EventKind = "attempt_rejected"
	// EventResampled: the right-hand side was redrawn from the errors.
	EventResampled EventKind = "resampled"
	// EventSolved: a valid order matrix was accepted.
	EventSolved EventKind = "solved"
	// EventRowCorrected: the middle eigenvector row was negated to obtain a
	// proper rotation.
	EventRowCorrected EventKind = "row_corrected"
)

// Event is a single diagnostic. Fields not relevant to Kind are zero.
type Event struct {
	Kind    EventKind
	Attempt int
	Rank    int
	Err     error
	Matrix  OrderMatrix
}

// Observer receives diagnostics from the solver and the Euler extractor.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// LogfObserver formats events through a printf-style logger such as
// monitoring.Logf.
func LogfObserver(logf func(format string, v ...interface{})) Observer {
	return ObserverFunc(func(e Event) {
		switch e.Kind {
		case EventRankDeficient:
			logf("[rdc] design matrix rank %d < %d, using minimum-norm solution", e.Rank, numElements)
		case EventAttemptRejected:
			logf("[rdc] attempt %d rejected: %v", e.Attempt, e.Err)
		case EventResampled:
			logf("[rdc] attempt %d: resampled couplings from errors", e.Attempt)
		case EventSolved:
			logf("[rdc] solved after %d attempt(s): Syy=%.5f Szz=%.5f Sxy=%.5f Sxz=%.5f Syz=%.5f",
				e.Attempt, e.Matrix.Syy, e.Matrix.Szz, e.Matrix.Sxy, e.Matrix.Sxz, e.Matrix.Syz)
		case EventRowCorrected:
			logf("[rdc] eigenvector frame was left-handed, negated middle row")
		default:
			logf("[rdc] %s", e.Kind)
		}
	})
}

// notify forwards e when o is non-nil.
func notify(o Observer, e Event) {
	if o != nil {
		o.Observe(e)
	}
}
