package rdc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QRhombicityScale converts the dimensionless axial component into coupling
// units in the rhombicity-normalised Q factor. It is a calibration
// constant and must not be derived from other settings.
const QRhombicityScale = 21585.19

// Regression holds the ordinary least-squares fit calc = Intercept +
// Slope·exp. Standard errors are NaN with fewer than three points.
type Regression struct {
	Slope        float64
	Intercept    float64
	SlopeErr     float64
	InterceptErr float64
	R            float64
	RSquared     float64
}

// FitQuality compares back-calculated and experimental couplings.
type FitQuality struct {
	N           int
	RMS         float64
	ChiSquared  float64
	QRMS        float64
	QRhombicity float64
	Regression  Regression
}

// EvaluateFit back-calculates every coupling from t and scores the fit.
//
// Side effect: obs[i].CalcRDC is overwritten with the back-calculated value.
// The calculation depends only on t and the observation geometry, so
// repeated calls give identical results.
//
// Statistics:
//   - RMS = sqrt(Σ(calc−exp)²/n)
//   - Q_RMS = RMS / sqrt(Σexp²/n)
//   - Q_rhombicity = RMS / sqrt(2·(axial·21585.19)²·(4+3·rhombicity²)/5)
//   - χ² = Σ((calc−exp)/error)², with unit error where error is zero
func EvaluateFit(t *AlignmentTensor, obs []Observation) (FitQuality, error) {
	if t == nil {
		return FitQuality{}, fmt.Errorf("rdc: nil alignment tensor")
	}
	if err := ValidateObservations(obs); err != nil {
		return FitQuality{}, err
	}

	n := len(obs)
	exp := make([]float64, n)
	calc := make([]float64, n)
	var chi2 float64
	for i := range obs {
		c := t.BackCalculate(obs[i].Vector, obs[i].MaxRDC)
		obs[i].CalcRDC = c
		exp[i] = obs[i].ExpRDC
		calc[i] = c

		sigma := obs[i].Error
		if sigma <= 0 {
			sigma = 1
		}
		d := (c - exp[i]) / sigma
		chi2 += d * d
	}

	nf := float64(n)
	dist := floats.Distance(calc, exp, 2)
	residualSS := dist * dist
	expSS := floats.Dot(exp, exp)

	rms := math.Sqrt(residualSS / nf)
	q := FitQuality{
		N:          n,
		RMS:        rms,
		ChiSquared: chi2,
		QRMS:       ratio(rms, math.Sqrt(expSS/nf)),
		Regression: linearRegression(exp, calc),
	}

	axial := t.Axial() * QRhombicityScale
	rh := t.Rhombicity()
	q.QRhombicity = ratio(rms, math.Sqrt(2*axial*axial*(4+3*rh*rh)/5))
	return q, nil
}

// linearRegression fits y = a + b·x.
func linearRegression(x, y []float64) Regression {
	nan := math.NaN()
	reg := Regression{Slope: nan, Intercept: nan, SlopeErr: nan, InterceptErr: nan, R: nan, RSquared: nan}

	n := len(x)
	meanX := stat.Mean(x, nil)
	var sxx float64
	for _, v := range x {
		d := v - meanX
		sxx += d * d
	}
	if n < 2 || sxx == 0 {
		return reg
	}

	reg.Intercept, reg.Slope = stat.LinearRegression(x, y, nil, false)
	reg.R = stat.Correlation(x, y, nil)
	reg.RSquared = reg.R * reg.R

	if n < 3 {
		return reg
	}
	var ss float64
	for i := range x {
		r := y[i] - (reg.Intercept + reg.Slope*x[i])
		ss += r * r
	}
	s2 := ss / float64(n-2)
	reg.SlopeErr = math.Sqrt(s2 / sxx)
	reg.InterceptErr = math.Sqrt(s2 * (1/float64(n) + meanX*meanX/sxx))
	return reg
}

// ratio returns num/den, NaN when den is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
