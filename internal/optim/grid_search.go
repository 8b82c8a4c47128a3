package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/walks/internal/analysis"
	"github.com/san-kum/walks/internal/automation"
	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/experiment"
)

// Objective scores a finished run; lower is better.
type Objective func(analysis.Summary) float64

// VarianceTarget scores the distance of the final variance along dim from
// target.
func VarianceTarget(dim int, target float64) Objective {
	return func(s analysis.Summary) float64 {
		if dim >= len(s.Variance) {
			return math.Inf(1)
		}
		return math.Abs(s.Variance[dim] - target)
	}
}

// MeanTarget scores the distance of the final mean position along dim
// from target.
func MeanTarget(dim int, target float64) Objective {
	return func(s analysis.Summary) float64 {
		if dim >= len(s.MeanPosition) {
			return math.Inf(1)
		}
		return math.Abs(s.MeanPosition[dim] - target)
	}
}

// DiffusionTarget scores the distance of the fitted effective diffusion
// along dim from target.
func DiffusionTarget(dim int, target float64) Objective {
	return func(s analysis.Summary) float64 {
		if dim >= len(s.Diffusion) {
			return math.Inf(1)
		}
		return math.Abs(s.Diffusion[dim] - target)
	}
}

// GridSearch evaluates every combination of parameter values. Parameter
// names are those accepted by automation.SetParam.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, errors.New("grid search needs one value range per parameter")
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search returns the parameters with the lowest objective. Ties keep the
// first combination in grid order.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	objective Objective,
) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, registry, objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, errors.New("no parameter combination produced a finite score")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	registry *experiment.Registry,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for name, v := range current {
			if err := automation.SetParam(cfg, name, v); err != nil {
				return err
			}
		}

		_, summary, err := automation.Evaluate(cfg, registry)
		if err != nil {
			return fmt.Errorf("%v: %w", current, err)
		}

		val := objective(summary)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, registry, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
