package rdc

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// axes are the three unit vectors used by the diagonal-tensor scenario.
var axes = []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}

// synthetic returns observations whose couplings exactly satisfy m.
func synthetic(m OrderMatrix, vs []r3.Vec, maxRDC float64) []Observation {
	el := m.Elements()
	obs := make([]Observation, len(vs))
	for i, v := range vs {
		row := DirectionCosines(v)
		var d float64
		for k := range row {
			d += row[k] * el[k]
		}
		obs[i] = Observation{Vector: v, ExpRDC: d * maxRDC, MaxRDC: maxRDC}
	}
	return obs
}

// randomMatrix draws elements uniformly from [-lim, lim]. With lim ≤ 0.1
// every eigenvalue stays well inside the physical bounds.
func randomMatrix(rng *rand.Rand, lim float64) OrderMatrix {
	u := func() float64 { return (2*rng.Float64() - 1) * lim }
	return OrderMatrix{Syy: u(), Szz: u(), Sxy: u(), Sxz: u(), Syz: u()}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// eventRecorder collects observer events.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) Observe(e Event) { r.events = append(r.events, e) }

func (r *eventRecorder) count(k EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
