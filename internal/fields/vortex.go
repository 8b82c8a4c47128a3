package fields

import (
	"fmt"
	"math"

	"github.com/san-kum/walks/internal/walk"
)

// Vortex is a Rankine vortex in the x-y plane: solid-body rotation inside
// Core, potential flow with circulation Circulation outside. Higher
// dimensions are left at rest.
type Vortex struct {
	CenterX     float64
	CenterY     float64
	Circulation float64
	Core        float64
}

func NewVortex() *Vortex {
	return &Vortex{Circulation: 2 * math.Pi, Core: 1.0}
}

func (v *Vortex) Velocity(pos walk.Positions, _ walk.Options) (walk.Positions, error) {
	if pos.Dim() < 2 {
		return nil, fmt.Errorf("%w: vortex needs at least 2 dimensions, got %d", walk.ErrDimensionMismatch, pos.Dim())
	}
	if v.Core <= 0 {
		return nil, fmt.Errorf("vortex core radius must be positive, got %g", v.Core)
	}

	u := walk.NewPositions(pos.Dim(), pos.N())
	for i := range pos[0] {
		dx := pos[0][i] - v.CenterX
		dy := pos[1][i] - v.CenterY
		r := math.Hypot(dx, dy)
		if r == 0 {
			continue
		}

		var speed float64
		if r < v.Core {
			speed = v.Circulation * r / (2 * math.Pi * v.Core * v.Core)
		} else {
			speed = v.Circulation / (2 * math.Pi * r)
		}
		u[0][i] = -speed * dy / r
		u[1][i] = speed * dx / r
	}
	return u, nil
}
