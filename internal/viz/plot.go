package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/walks/internal/analysis"
	"github.com/san-kum/walks/internal/output"
)

const (
	plotHeight = 12
	plotWidth  = 80
)

// MeanPathPlot plots the ensemble mean of every dimension over snapshots.
func MeanPathPlot(tr *output.Trajectory) string {
	return manyPlot(analysis.MeanPath(tr), "mean position")
}

func VariancePlot(tr *output.Trajectory) string {
	return manyPlot(analysis.VariancePath(tr), "variance")
}

// CountPlot shows the number of walkers per snapshot.
func CountPlot(tr *output.Trajectory) string {
	if tr.Len() < 2 {
		return ""
	}
	counts := make([]float64, tr.Len())
	for k, c := range tr.Counts {
		counts[k] = float64(c)
	}
	return asciigraph.Plot(counts,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(0),
		asciigraph.Caption("walkers"))
}

// manyPlot draws one series per dimension. Snapshots where a statistic is
// undefined are skipped.
func manyPlot(rows [][]float64, caption string) string {
	if len(rows) == 0 {
		return ""
	}
	dim := len(rows[0])
	series := make([][]float64, dim)
	for _, row := range rows {
		if hasNaN(row) {
			continue
		}
		for d, v := range row {
			series[d] = append(series[d], v)
		}
	}
	if len(series[0]) < 2 {
		return ""
	}

	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green}
	opts := []asciigraph.Option{
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	}
	if dim <= len(colors) {
		legends := make([]string, dim)
		for d := range legends {
			legends[d] = fmt.Sprintf("x%d", d)
		}
		opts = append(opts, asciigraph.SeriesColors(colors[:dim]...), asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(series, opts...)
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
