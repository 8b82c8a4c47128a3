package sim

import (
	"fmt"

	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/rng"
	"github.com/san-kum/walks/internal/walk"
	"go.uber.org/zap"
)

// Config holds the parameters of one run.
type Config struct {
	Dim       int
	Diffusion []float64
	T         float64
	Dt        float64
	// SaveEvery forwards every SaveEvery-th step to the sink. Zero means 1.
	SaveEvery int
	Sink      output.Kind
	SinkPath  string
	// FieldOptions are passed to the field on every evaluation, untouched.
	FieldOptions walk.Options
}

func DefaultConfig() Config {
	return Config{
		Dim:       2,
		Diffusion: []float64{0.01, 0.01},
		T:         10.0,
		Dt:        1.0,
		SaveEvery: 1,
		Sink:      output.KindMemory,
	}
}

func (c Config) Validate() error {
	if c.Dim < 1 {
		return fmt.Errorf("%w: dim must be at least 1, got %d", walk.ErrInvalidConfig, c.Dim)
	}
	if c.Dim > rng.MaxStreams {
		return fmt.Errorf("%w: dim %d exceeds %d random streams", walk.ErrInvalidConfig, c.Dim, rng.MaxStreams)
	}
	if len(c.Diffusion) != c.Dim {
		return fmt.Errorf("%w: %d diffusion coefficients for dim %d", walk.ErrDimensionMismatch, len(c.Diffusion), c.Dim)
	}
	for d, D := range c.Diffusion {
		if D < 0 || D != D {
			return fmt.Errorf("%w: D[%d] = %g", walk.ErrNegativeDiffusion, d, D)
		}
	}
	if !(c.T > 0) {
		return fmt.Errorf("%w: got %g", walk.ErrInvalidDuration, c.T)
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: got %g", walk.ErrInvalidTimestep, c.Dt)
	}
	if c.SaveEvery < 0 {
		return fmt.Errorf("%w: save_every must be positive, got %d", walk.ErrInvalidConfig, c.SaveEvery)
	}
	if c.Sink == output.KindRecords && c.SinkPath == "" {
		return fmt.Errorf("%w: records sink requires a path", walk.ErrInvalidConfig)
	}
	return nil
}

// State is the lifecycle stage of a Simulation.
type State int

const (
	Unconfigured State = iota
	Initialized
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Source injects Points, each repeated Replication times, at Time.
type Source struct {
	Time        float64
	Points      walk.Positions
	Replication int
}

// Count is the number of particles the source adds.
func (s Source) Count() int { return s.Points.N() * s.Replication }

type Option func(*Simulation)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

func WithIntegrator(i walk.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

// WithSink uses sink instead of opening one from the config. The
// simulation takes ownership and closes it.
func WithSink(sink output.Sink) Option {
	return func(s *Simulation) { s.sink = sink }
}

func WithObserver(o walk.Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}
