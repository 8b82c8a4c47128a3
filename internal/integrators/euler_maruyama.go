package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/walks/internal/walk"
	"gonum.org/v1/gonum/floats"
)

const defaultMinChunk = 4096

// EulerMaruyama advances an ensemble with the Euler–Maruyama scheme
//
//	x[d][i] += v[d][i]*dt + sqrt(2*D[d]*dt) * xi[d][i]
//
// where xi are pre-sampled unit normals. The update is elementwise, so
// particle columns may be split across goroutines.
type EulerMaruyama struct {
	workers  int
	minChunk int
	scale    []float64
}

type Option func(*EulerMaruyama)

// WithWorkers sets the number of goroutines used per step. Values below 2
// keep the update serial.
func WithWorkers(n int) Option {
	return func(e *EulerMaruyama) { e.workers = n }
}

// WithMinChunk sets the smallest column range handed to one goroutine.
func WithMinChunk(n int) Option {
	return func(e *EulerMaruyama) { e.minChunk = n }
}

func NewEulerMaruyama(opts ...Option) *EulerMaruyama {
	e := &EulerMaruyama{workers: 1, minChunk: defaultMinChunk}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advance mutates pos in place. It validates all inputs before touching pos
// and keeps no reference to any argument after returning.
func (e *EulerMaruyama) Advance(pos, drift, jumps walk.Positions, diffusion []float64, dt float64) error {
	if err := validate(pos, drift, jumps, diffusion, dt); err != nil {
		return err
	}

	dim := pos.Dim()
	if cap(e.scale) < dim {
		e.scale = make([]float64, dim)
	}
	scale := e.scale[:dim]
	for d := 0; d < dim; d++ {
		scale[d] = math.Sqrt(2 * diffusion[d] * dt)
	}

	parallelFor(pos.N(), e.workers, e.minChunk, func(start, end int) {
		for d := 0; d < dim; d++ {
			x := pos[d][start:end]
			floats.AddScaled(x, dt, drift[d][start:end])
			if scale[d] != 0 {
				floats.AddScaled(x, scale[d], jumps[d][start:end])
			}
		}
	})
	return nil
}

func validate(pos, drift, jumps walk.Positions, diffusion []float64, dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("%w: got %g", walk.ErrInvalidTimestep, dt)
	}
	if len(diffusion) != pos.Dim() {
		return fmt.Errorf("%w: %d diffusion coefficients for %d dimensions", walk.ErrDimensionMismatch, len(diffusion), pos.Dim())
	}
	for d, D := range diffusion {
		if D < 0 || math.IsNaN(D) {
			return fmt.Errorf("%w: D[%d] = %g", walk.ErrNegativeDiffusion, d, D)
		}
	}
	if err := pos.Validate(); err != nil {
		return err
	}
	if !pos.SameShape(drift) {
		return fmt.Errorf("%w: drift is not %dx%d", walk.ErrDimensionMismatch, pos.Dim(), pos.N())
	}
	if !pos.SameShape(jumps) {
		return fmt.Errorf("%w: jumps are not %dx%d", walk.ErrDimensionMismatch, pos.Dim(), pos.N())
	}
	return nil
}

// Advance performs one serial Euler–Maruyama step.
func Advance(pos, drift, jumps walk.Positions, diffusion []float64, dt float64) error {
	return NewEulerMaruyama().Advance(pos, drift, jumps, diffusion, dt)
}
