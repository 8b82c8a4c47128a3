package analysis

import (
	"math"

	"github.com/san-kum/walks/internal/output"
	"gonum.org/v1/gonum/stat"
)

// MeanPath returns the ensemble mean of every snapshot: out[k][d]. Empty
// snapshots yield NaN.
func MeanPath(tr *output.Trajectory) [][]float64 {
	return reduce(tr, 1, func(x []float64) float64 { return stat.Mean(x, nil) })
}

// VariancePath returns the unbiased ensemble variance of every snapshot.
// Snapshots with fewer than two walkers yield NaN.
func VariancePath(tr *output.Trajectory) [][]float64 {
	return reduce(tr, 2, func(x []float64) float64 { return stat.Variance(x, nil) })
}

// Path extracts the mean path along two dimensions, for plotting.
func Path(tr *output.Trajectory, xIdx, yIdx int) (xs, ys []float64) {
	mean := MeanPath(tr)
	xs = make([]float64, 0, len(mean))
	ys = make([]float64, 0, len(mean))
	for _, m := range mean {
		if xIdx >= len(m) || yIdx >= len(m) || math.IsNaN(m[xIdx]) {
			continue
		}
		xs = append(xs, m[xIdx])
		ys = append(ys, m[yIdx])
	}
	return xs, ys
}

func reduce(tr *output.Trajectory, minCount int, fn func([]float64) float64) [][]float64 {
	out := make([][]float64, tr.Len())
	for k, snap := range tr.Positions {
		n := tr.Counts[k]
		row := make([]float64, len(snap))
		for d := range snap {
			if n < minCount {
				row[d] = math.NaN()
				continue
			}
			row[d] = fn(snap[d][:n])
		}
		out[k] = row
	}
	return out
}
