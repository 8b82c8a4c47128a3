package fields

import (
	"fmt"

	"github.com/san-kum/walks/internal/walk"
)

// Shear is a plane Couette flow: u_x = rate * y, all other components zero.
// The "rate" option overrides Rate on each evaluation.
type Shear struct {
	Rate float64
}

func NewShear() *Shear {
	return &Shear{Rate: 0.1}
}

func (s *Shear) Velocity(pos walk.Positions, opts walk.Options) (walk.Positions, error) {
	if pos.Dim() < 2 {
		return nil, fmt.Errorf("%w: shear needs at least 2 dimensions, got %d", walk.ErrDimensionMismatch, pos.Dim())
	}
	rate, err := opts.Float("rate", s.Rate)
	if err != nil {
		return nil, err
	}

	u := walk.NewPositions(pos.Dim(), pos.N())
	for i, y := range pos[1] {
		u[0][i] = rate * y
	}
	return u, nil
}
