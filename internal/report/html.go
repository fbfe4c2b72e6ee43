package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nanalysis/nmrfx-sub023/internal/units"
)

// EChartsAssetsHost is where the rendered page loads echarts.min.js from.
// The default is the library's CDN; set it to serve assets locally.
var EChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteHTML renders an interactive correlation chart. Each point carries
// its observation label in the tooltip.
func (r *Report) WriteHTML(w io.Writer) error {
	data := make([]opts.ScatterData, 0, len(r.Rows))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range r.Rows {
		if !row.Exp.Valid() || !row.Calc.Valid() {
			continue
		}
		x, y := float64(row.Exp), float64(row.Calc)
		data = append(data, opts.ScatterData{Name: row.Label, Value: []interface{}{x, y}})
		lo = math.Min(lo, math.Min(x, y))
		hi = math.Max(hi, math.Max(x, y))
	}
	if len(data) == 0 {
		return fmt.Errorf("no finite couplings to chart")
	}
	ideal := []opts.ScatterData{
		{Name: "y = x", Value: []interface{}{lo, lo}},
		{Name: "y = x", Value: []interface{}{hi, hi}},
	}

	cu := unitsLabel(r.CouplingUnits)
	subtitle := fmt.Sprintf("n=%d", len(data))
	if r.Quality.QRMS.Valid() {
		subtitle += fmt.Sprintf(" Q=%.3f", float64(r.Quality.QRMS))
	}
	if r.Quality.RSquared.Valid() {
		subtitle += fmt.Sprintf(" R²=%.3f", float64(r.Quality.RSquared))
	}
	title := "RDC correlation"
	if r.Label != "" {
		title += " - " + r.Label
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px", AssetsHost: EChartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: lo, Max: hi, Name: "Experimental (" + cu + ")", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: lo, Max: hi, Name: "Calculated (" + cu + ")", NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("couplings", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("y = x", ideal, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	return scatter.Render(w)
}

func unitsLabel(u string) string {
	if u == "" {
		u = units.Hz
	}
	return units.Label(u)
}
