package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/walks/internal/output"
	"gonum.org/v1/gonum/stat"
)

var ErrTooFewSnapshots = errors.New("analysis: need at least two snapshots with two or more walkers")

// EffectiveDiffusion fits Var(t) = a + 2 D t per dimension over all usable
// snapshots and returns D. The estimate is only meaningful for a fixed
// ensemble; injected walkers start with zero spread.
func EffectiveDiffusion(tr *output.Trajectory) ([]float64, error) {
	variance := VariancePath(tr)
	if len(variance) == 0 {
		return nil, ErrTooFewSnapshots
	}

	dim := len(variance[0])
	out := make([]float64, dim)
	for d := 0; d < dim; d++ {
		var ts, vs []float64
		for k, v := range variance {
			if math.IsNaN(v[d]) {
				continue
			}
			ts = append(ts, tr.Times[k])
			vs = append(vs, v[d])
		}
		if len(ts) < 2 || stat.Variance(ts, nil) == 0 {
			return nil, ErrTooFewSnapshots
		}
		_, beta := stat.LinearRegression(ts, vs, nil, false)
		out[d] = beta / 2
	}
	return out, nil
}

// Summary is the final state of a recorded run.
type Summary struct {
	Snapshots    int
	FinalTime    float64
	Walkers      int
	MaxWalkers   int
	MeanPosition []float64
	Variance     []float64
	Diffusion    []float64
}

// Summarize reduces tr to its last snapshot. Diffusion is nil when it
// cannot be estimated.
func Summarize(tr *output.Trajectory) Summary {
	s := Summary{Snapshots: tr.Len(), MaxWalkers: tr.MaxCount()}
	if tr.Len() == 0 {
		return s
	}

	last := tr.Len() - 1
	s.FinalTime = tr.Times[last]
	s.Walkers = tr.Counts[last]
	s.MeanPosition = MeanPath(tr)[last]
	s.Variance = VariancePath(tr)[last]
	if d, err := EffectiveDiffusion(tr); err == nil {
		s.Diffusion = d
	}
	return s
}
