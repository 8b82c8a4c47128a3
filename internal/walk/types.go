package walk

import (
	"fmt"
	"math"
)

// Positions is a dim×N ensemble: Positions[d][i] is coordinate d of particle i.
type Positions [][]float64

// NewPositions allocates a zeroed dim×n ensemble backed by one slice.
func NewPositions(dim, n int) Positions {
	backing := make([]float64, dim*n)
	p := make(Positions, dim)
	for d := range p {
		p[d] = backing[d*n : (d+1)*n : (d+1)*n]
	}
	return p
}

// Constant returns an ensemble of n identical columns equal to v.
func Constant(n int, v ...float64) Positions {
	p := NewPositions(len(v), n)
	for d, val := range v {
		for i := range p[d] {
			p[d][i] = val
		}
	}
	return p
}

func (p Positions) Dim() int { return len(p) }

// N returns the particle count (the row length).
func (p Positions) N() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

func (p Positions) Clone() Positions {
	c := NewPositions(p.Dim(), p.N())
	for d := range p {
		copy(c[d], p[d])
	}
	return c
}

// Column returns a copy of the coordinates of particle i.
func (p Positions) Column(i int) []float64 {
	col := make([]float64, len(p))
	for d := range p {
		col[d] = p[d][i]
	}
	return col
}

// Validate reports whether every row has the same length.
func (p Positions) Validate() error {
	n := p.N()
	for d := range p {
		if len(p[d]) != n {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimensionMismatch, d, len(p[d]), n)
		}
	}
	return nil
}

// SameShape reports whether p and other are both dim×N with equal sizes.
func (p Positions) SameShape(other Positions) bool {
	if len(p) != len(other) {
		return false
	}
	for d := range p {
		if len(p[d]) != len(other[d]) {
			return false
		}
	}
	return true
}

func (p Positions) IsValid() bool {
	for _, row := range p {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Repeat returns a new ensemble with every column of p repeated k times
// consecutively, so column i of p becomes columns i*k .. i*k+k-1.
func (p Positions) Repeat(k int) Positions {
	out := NewPositions(p.Dim(), p.N()*k)
	for d := range p {
		j := 0
		for _, v := range p[d] {
			for r := 0; r < k; r++ {
				out[d][j] = v
				j++
			}
		}
	}
	return out
}

// Append returns a new ensemble holding the columns of p followed by the
// columns of q. Neither input is modified.
func (p Positions) Append(q Positions) Positions {
	n, m := p.N(), q.N()
	out := NewPositions(p.Dim(), n+m)
	for d := range out {
		copy(out[d], p[d])
		copy(out[d][n:], q[d])
	}
	return out
}

// Options are named field options passed through the driver untouched.
type Options map[string]any

// Float returns the option name as float64, or def when absent.
func (o Options) Float(name string, def float64) (float64, error) {
	v, ok := o[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("option %q: expected number, got %T", name, v)
}

// Field evaluates the drift velocity at every particle. Implementations must
// return a fresh array with the shape of pos and must not modify pos.
type Field interface {
	Velocity(pos Positions, opts Options) (Positions, error)
}

// FieldFunc adapts an ordinary function to the Field interface.
type FieldFunc func(pos Positions, opts Options) (Positions, error)

func (f FieldFunc) Velocity(pos Positions, opts Options) (Positions, error) {
	return f(pos, opts)
}

// Integrator advances pos in place by one step of size dt.
type Integrator interface {
	Advance(pos, drift, jumps Positions, diffusion []float64, dt float64) error
}

// Observer is notified after every completed step. pos is borrowed and must
// not be retained.
type Observer interface {
	OnStep(step int, t float64, pos Positions)
}
