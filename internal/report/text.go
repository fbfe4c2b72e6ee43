package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nanalysis/nmrfx-sub023/internal/units"
)

// WriteText writes a human-readable summary of r.
func (r *Report) WriteText(w io.Writer) error {
	au := units.Label(r.AngleUnits)
	cu := units.Label(r.CouplingUnits)
	num := func(f Float) string {
		if !f.Valid() {
			return "n/a"
		}
		return fmt.Sprintf("%.5g", float64(f))
	}
	triplet := func(a Angles) string {
		return fmt.Sprintf("α=%s%s β=%s%s γ=%s%s", num(a.Alpha), au, num(a.Beta), au, num(a.Gamma), au)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if r.Label != "" {
		fmt.Fprintf(tw, "Label\t%s\n", r.Label)
	}
	if r.RunID != "" {
		fmt.Fprintf(tw, "Run\t%s\n", r.RunID)
	}
	fmt.Fprintf(tw, "Observations\t%d (rank %d, %d attempt(s))\n", r.Quality.N, r.Rank, r.Attempts)
	fmt.Fprintf(tw, "Scale\t%s\n", num(r.Scale))
	m := r.OrderMatrix
	fmt.Fprintf(tw, "Order matrix\tSxx=%s Syy=%s Szz=%s Sxy=%s Sxz=%s Syz=%s\n",
		num(m.Sxx), num(m.Syy), num(m.Szz), num(m.Sxy), num(m.Sxz), num(m.Syz))
	p := r.Principal
	fmt.Fprintf(tw, "Principal\tSx'x'=%s Sy'y'=%s Sz'z'=%s\n", num(p.Sxx), num(p.Syy), num(p.Szz))
	fmt.Fprintf(tw, "Axial / rhombic\t%s / %s (rhombicity %s, eta %s)\n",
		num(r.Axial), num(r.Rhombic), num(r.Rhombicity), num(r.Eta))
	fmt.Fprintf(tw, "Magnitude\t%s %s\n", num(r.Magnitude), cu)
	fmt.Fprintf(tw, "Euler (positive)\t%s\n", triplet(r.Euler.Positive))
	fmt.Fprintf(tw, "Euler (flipped)\t%s\n", triplet(r.Euler.Flipped))
	if r.Euler.RowCorrected {
		fmt.Fprintf(tw, "\t(eigenvector frame was left-handed and corrected)\n")
	}
	q := r.Quality
	fmt.Fprintf(tw, "RMS\t%s %s\n", num(q.RMS), cu)
	fmt.Fprintf(tw, "Q (rms)\t%s\n", num(q.QRMS))
	fmt.Fprintf(tw, "Q (rhombicity)\t%s\n", num(q.QRhombicity))
	fmt.Fprintf(tw, "Chi-squared\t%s\n", num(q.ChiSquared))
	fmt.Fprintf(tw, "Regression\tslope %s ± %s, intercept %s ± %s, R² %s\n",
		num(q.Slope), num(q.SlopeErr), num(q.Intercept), num(q.InterceptErr), num(q.RSquared))
	return tw.Flush()
}
