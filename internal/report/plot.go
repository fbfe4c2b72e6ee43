package report

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default plot size.
const (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

// CorrelationPlot draws back-calculated against experimental couplings
// with the ideal y = x line.
func (r *Report) CorrelationPlot() (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(r.Rows))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range r.Rows {
		if !row.Exp.Valid() || !row.Calc.Valid() {
			continue
		}
		x, y := float64(row.Exp), float64(row.Calc)
		pts = append(pts, plotter.XY{X: x, Y: y})
		lo = math.Min(lo, math.Min(x, y))
		hi = math.Max(hi, math.Max(x, y))
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite couplings to plot")
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	p := plot.New()
	p.Title.Text = "RDC correlation"
	if r.Label != "" {
		p.Title.Text += " - " + r.Label
	}
	if r.Quality.QRMS.Valid() {
		p.Title.Text += fmt.Sprintf(" (Q=%.3f)", float64(r.Quality.QRMS))
	}
	p.X.Label.Text = fmt.Sprintf("Experimental (%s)", unitsLabel(r.CouplingUnits))
	p.Y.Label.Text = fmt.Sprintf("Calculated (%s)", unitsLabel(r.CouplingUnits))
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = lo, hi
	p.Add(plotter.NewGrid())

	ideal := plotter.NewFunction(func(x float64) float64 { return x })
	ideal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	ideal.Width = vg.Points(1)
	p.Add(ideal)
	p.Legend.Add("y = x", ideal)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)
	p.Legend.Add("couplings", scatter)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// WritePNG renders the correlation plot as a PNG image.
func (r *Report) WritePNG(w io.Writer, width, height vg.Length) error {
	p, err := r.CorrelationPlot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
