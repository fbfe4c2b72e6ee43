// Package nuclei holds the physical constants needed to turn a bond
// geometry into a static dipolar coupling limit.
package nuclei

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// Mu0 is the vacuum permeability in T·m/A.
	Mu0 = 1.25663706212e-6
	// HBar is the reduced Planck constant in J·s.
	HBar = 1.054571817e-34

	angstrom = 1e-10
)

// Nucleus identifies an NMR-active isotope by its element symbol.
type Nucleus string

const (
	H Nucleus = "H"
	C Nucleus = "C"
	N Nucleus = "N"
	P Nucleus = "P"
	F Nucleus = "F"
	D Nucleus = "D"
)

// Constants is a read-only table of gyromagnetic ratios and reference bond
// lengths. Build it with DefaultConstants and share it freely.
type Constants struct {
	gamma   map[Nucleus]float64
	lengths map[string]float64
}

// DefaultConstants returns ratios for 1H, 13C, 15N, 31P, 19F and 2H in
// rad·s⁻¹·T⁻¹ and the standard backbone bond lengths in Å.
func DefaultConstants() *Constants {
	return &Constants{
		gamma: map[Nucleus]float64{
			H: 267.52218744e6,
			C: 67.2828e6,
			N: -27.116e6,
			P: 108.291e6,
			F: 251.815e6,
			D: 41.065e6,
		},
		lengths: map[string]float64{
			"HN": 1.041,
			"CH": 1.09,
			"CN": 1.329,
			"CC": 1.525,
		},
	}
}

// Gamma returns the gyromagnetic ratio of n.
func (c *Constants) Gamma(n Nucleus) (float64, bool) {
	g, ok := c.gamma[n]
	return g, ok
}

// Pair is an unordered pair of coupled nuclei.
type Pair struct {
	I, S Nucleus
}

// ParsePair reads a two-letter code such as "HN" or "nh".
func ParsePair(code string) (Pair, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return Pair{}, fmt.Errorf("nuclei: pair code %q must name two nuclei", code)
	}
	return Pair{I: Nucleus(code[:1]), S: Nucleus(code[1:])}, nil
}

// Code returns the canonical spelling: letters sorted alphabetically.
func (p Pair) Code() string {
	s := []string{string(p.I), string(p.S)}
	sort.Strings(s)
	return s[0] + s[1]
}

// ReferenceLength returns the standard bond length for p in Å.
func (c *Constants) ReferenceLength(p Pair) (float64, bool) {
	r, ok := c.lengths[p.Code()]
	return r, ok
}

// MaxRDC returns the static dipolar coupling in Hz for p at distance r (Å):
//
//	Dmax = −μ0·γI·γS·ħ / (4π²·r³)
//
// A non-positive r selects the reference length of the pair.
func (c *Constants) MaxRDC(p Pair, r float64) (float64, error) {
	gi, ok := c.gamma[p.I]
	if !ok {
		return 0, fmt.Errorf("nuclei: unknown nucleus %q", p.I)
	}
	gs, ok := c.gamma[p.S]
	if !ok {
		return 0, fmt.Errorf("nuclei: unknown nucleus %q", p.S)
	}
	if r <= 0 {
		ref, ok := c.ReferenceLength(p)
		if !ok {
			return 0, fmt.Errorf("nuclei: no reference length for %s", p.Code())
		}
		r = ref
	}
	rm := r * angstrom
	return -Mu0 * gi * gs * HBar / (4 * math.Pi * math.Pi * rm * rm * rm), nil
}
