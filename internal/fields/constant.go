// Package fields provides velocity fields for walk.Field.
package fields

import (
	"fmt"

	"github.com/san-kum/walks/internal/walk"
)

// Constant advects every walker with the same velocity.
type Constant struct {
	V []float64
}

func NewConstant(v ...float64) *Constant {
	return &Constant{V: append([]float64(nil), v...)}
}

func (c *Constant) Dim() int {
	return len(c.V)
}

func (c *Constant) Velocity(pos walk.Positions, _ walk.Options) (walk.Positions, error) {
	if pos.Dim() != len(c.V) {
		return nil, fmt.Errorf("%w: constant field is %d-dimensional, positions are %d", walk.ErrDimensionMismatch, len(c.V), pos.Dim())
	}
	return walk.Constant(pos.N(), c.V...), nil
}
