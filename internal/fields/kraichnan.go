package fields

import (
	"fmt"
	"math"

	"github.com/san-kum/walks/internal/rng"
	"github.com/san-kum/walks/internal/walk"
)

// KraichnanConfig describes a random incompressible field with Gaussian
// covariance exp(-(pi/4)(r/LenScale)^2) and a mean flow along x.
type KraichnanConfig struct {
	Dim      int
	Mean     float64
	Variance float64
	LenScale float64
	Modes    int
}

func DefaultKraichnanConfig() KraichnanConfig {
	return KraichnanConfig{
		Dim:      2,
		Mean:     1.0,
		Variance: 0.01,
		LenScale: 10.0,
		Modes:    1000,
	}
}

// Kraichnan is one realization of a randomization-method vector field:
// a sum of Fourier modes, each projected onto the plane orthogonal to its
// wave vector so the field is divergence free.
type Kraichnan struct {
	cfg   KraichnanConfig
	seed  int64
	k     walk.Positions // dim×modes wave vectors
	proj  walk.Positions // dim×modes projected amplitudes
	z1    []float64
	z2    []float64
	scale float64
}

// NewKraichnan draws the modes of a field from seed. Equal seeds give
// identical fields.
func NewKraichnan(cfg KraichnanConfig, seed int64) (*Kraichnan, error) {
	switch {
	case cfg.Dim < 2:
		return nil, fmt.Errorf("%w: kraichnan field needs at least 2 dimensions, got %d", walk.ErrDimensionMismatch, cfg.Dim)
	case cfg.Modes < 1:
		return nil, fmt.Errorf("kraichnan field needs at least one mode, got %d", cfg.Modes)
	case !(cfg.LenScale > 0):
		return nil, fmt.Errorf("kraichnan length scale must be positive, got %g", cfg.LenScale)
	case cfg.Variance < 0:
		return nil, fmt.Errorf("kraichnan variance must be non-negative, got %g", cfg.Variance)
	}

	r := rng.NewStream(seed)
	f := &Kraichnan{
		cfg:   cfg,
		seed:  seed,
		k:     walk.NewPositions(cfg.Dim, cfg.Modes),
		proj:  walk.NewPositions(cfg.Dim, cfg.Modes),
		z1:    make([]float64, cfg.Modes),
		z2:    make([]float64, cfg.Modes),
		scale: math.Sqrt(cfg.Variance / float64(cfg.Modes)),
	}

	// spectral density of the Gaussian model
	sigma := math.Sqrt(math.Pi/2) / cfg.LenScale
	for d := range f.k {
		rng.StandardNormal(r, f.k[d])
		for m := range f.k[d] {
			f.k[d][m] *= sigma
		}
	}
	rng.StandardNormal(r, f.z1)
	rng.StandardNormal(r, f.z2)

	for m := 0; m < cfg.Modes; m++ {
		var k2 float64
		for d := range f.k {
			k2 += f.k[d][m] * f.k[d][m]
		}
		for d := range f.proj {
			if k2 == 0 {
				continue
			}
			f.proj[d][m] = -f.k[d][m] * f.k[0][m] / k2
		}
		f.proj[0][m] += 1
	}
	return f, nil
}

func (f *Kraichnan) Config() KraichnanConfig { return f.cfg }
func (f *Kraichnan) Seed() int64             { return f.seed }

func (f *Kraichnan) Velocity(pos walk.Positions, _ walk.Options) (walk.Positions, error) {
	if pos.Dim() != f.cfg.Dim {
		return nil, fmt.Errorf("%w: kraichnan field is %d-dimensional, positions are %d", walk.ErrDimensionMismatch, f.cfg.Dim, pos.Dim())
	}

	dim, n := pos.Dim(), pos.N()
	u := walk.NewPositions(dim, n)
	for i := 0; i < n; i++ {
		for m := 0; m < f.cfg.Modes; m++ {
			var phase float64
			for d := 0; d < dim; d++ {
				phase += f.k[d][m] * pos[d][i]
			}
			sin, cos := math.Sincos(phase)
			amp := f.z1[m]*cos + f.z2[m]*sin
			for d := 0; d < dim; d++ {
				u[d][i] += f.proj[d][m] * amp
			}
		}
		for d := 0; d < dim; d++ {
			u[d][i] *= f.scale
		}
		u[0][i] += f.cfg.Mean
	}
	return u, nil
}
