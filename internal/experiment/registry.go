package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/fields"
	"github.com/san-kum/walks/internal/walk"
)

// FieldFactory builds a velocity field from its run-file section. seed is
// the run seed, for fields that draw a random realization.
type FieldFactory func(cfg config.FieldConfig, dim int, seed int64) (walk.Field, error)

type Registry struct {
	fields map[string]FieldFactory
}

func NewRegistry() *Registry {
	r := &Registry{fields: make(map[string]FieldFactory)}

	r.fields["constant"] = func(cfg config.FieldConfig, dim int, _ int64) (walk.Field, error) {
		v := cfg.Velocity
		if len(v) == 0 {
			v = make([]float64, dim)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: constant velocity has %d components, want %d", walk.ErrDimensionMismatch, len(v), dim)
		}
		return fields.NewConstant(v...), nil
	}
	r.fields["shear"] = func(cfg config.FieldConfig, _ int, _ int64) (walk.Field, error) {
		s := fields.NewShear()
		if rate, ok := cfg.Params["rate"]; ok {
			s.Rate = rate
		}
		return s, nil
	}
	r.fields["vortex"] = func(cfg config.FieldConfig, _ int, _ int64) (walk.Field, error) {
		v := fields.NewVortex()
		p := cfg.Params
		v.CenterX = param(p, "cx", v.CenterX)
		v.CenterY = param(p, "cy", v.CenterY)
		v.Circulation = param(p, "circulation", v.Circulation)
		v.Core = param(p, "core", v.Core)
		return v, nil
	}
	r.fields["kraichnan"] = func(cfg config.FieldConfig, dim int, seed int64) (walk.Field, error) {
		kc := fields.DefaultKraichnanConfig()
		p := cfg.Params
		kc.Dim = dim
		kc.Mean = param(p, "mean", kc.Mean)
		kc.Variance = param(p, "variance", kc.Variance)
		kc.LenScale = param(p, "len_scale", kc.LenScale)
		kc.Modes = int(param(p, "modes", float64(kc.Modes)))
		if s, ok := p["seed"]; ok {
			seed = int64(s)
		}
		return fields.NewKraichnan(kc, seed)
	}

	return r
}

func param(p map[string]float64, name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Register adds or replaces a field factory.
func (r *Registry) Register(name string, fn FieldFactory) {
	r.fields[name] = fn
}

func (r *Registry) GetField(cfg config.FieldConfig, dim int, seed int64) (walk.Field, error) {
	fn, ok := r.fields[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", cfg.Name)
	}
	return fn(cfg, dim, seed)
}

func (r *Registry) ListFields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
