package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/walks/internal/integrators"
	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/rng"
	"github.com/san-kum/walks/internal/walk"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Simulation owns a particle ensemble and advances it through one run.
// It is not safe for concurrent use.
type Simulation struct {
	cfg        Config
	field      walk.Field
	integrator walk.Integrator
	sink       output.Sink
	logger     *zap.Logger
	observers  []walk.Observer

	state   State
	pos     walk.Positions
	jumps   walk.Positions
	sources []Source
	cursor  int
	t       float64
	seeds   []int64
}

// New validates cfg and opens the output sink. The ensemble is empty until
// an initial condition is set.
func New(cfg Config, field walk.Field, opts ...Option) (*Simulation, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: velocity field is nil", walk.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SaveEvery == 0 {
		cfg.SaveEvery = 1
	}
	cfg.Diffusion = append([]float64(nil), cfg.Diffusion...)

	s := &Simulation{
		cfg:   cfg,
		field: field,
		state: Unconfigured,
		pos:   walk.NewPositions(cfg.Dim, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.integrator == nil {
		s.integrator = integrators.NewEulerMaruyama()
	}
	if s.sink == nil {
		sink, err := output.New(cfg.Sink, cfg.SinkPath)
		if err != nil {
			return nil, err
		}
		s.sink = sink
	}
	s.sources = []Source{s.sentinel()}
	return s, nil
}

// SetInitialCondition seeds the ensemble with every column of points
// repeated replication times, giving points.N()*replication walkers.
func (s *Simulation) SetInitialCondition(points walk.Positions, replication int) error {
	if s.state == Running {
		return walk.ErrRunning
	}
	if replication < 1 {
		return fmt.Errorf("%w: got %d", walk.ErrInvalidReplication, replication)
	}
	if points.Dim() != s.cfg.Dim {
		return fmt.Errorf("%w: initial condition has %d dimensions, want %d", walk.ErrDimensionMismatch, points.Dim(), s.cfg.Dim)
	}
	if err := points.Validate(); err != nil {
		return err
	}

	s.pos = points.Repeat(replication)
	s.jumps = nil
	s.t = 0
	s.cursor = 0
	s.state = Initialized
	return nil
}

// SetInitialPoint places replication walkers at a single point.
func (s *Simulation) SetInitialPoint(point []float64, replication int) error {
	p := walk.NewPositions(len(point), 1)
	for d, v := range point {
		p[d][0] = v
	}
	return s.SetInitialCondition(p, replication)
}

// AddObserver registers o for every step of later runs.
func (s *Simulation) AddObserver(o walk.Observer) {
	s.observers = append(s.observers, o)
}

// Run integrates from t=0 to T. A nil seed draws the master seed
// nondeterministically. The initial ensemble is always written first; after
// that every SaveEvery-th step is forwarded to the sink. Any error aborts
// the run and leaves the ensemble as it was at that point.
func (s *Simulation) Run(seed *int64) error {
	switch s.state {
	case Running:
		return walk.ErrRunning
	case Unconfigured:
		return walk.ErrNoInitialCondition
	case Completed, Aborted:
		return fmt.Errorf("%w: run already %s", walk.ErrNoInitialCondition, s.state)
	}

	streams, seeds, err := rng.Streams(s.cfg.Dim, seed)
	if err != nil {
		return err
	}
	s.seeds = seeds

	steps := StepCount(s.cfg.T, s.cfg.Dt)
	s.state = Running
	s.logger.Info("starting simulation",
		zap.Int("walkers", s.pos.N()),
		zap.Int("steps", steps),
		zap.Int64s("stream_seeds", seeds))

	if err := s.sink.WriteTimestep(0, s.pos); err != nil {
		return s.abort(0, 0, err)
	}

	for k := 0; k < steps; k++ {
		t := float64(k) * s.cfg.Dt
		next := float64(k+1) * s.cfg.Dt
		s.t = t

		if s.pos.N() > 0 {
			if err := s.step(streams); err != nil {
				return s.abort(k, t, err)
			}
		}

		s.injectSources(t, next)

		if k%s.cfg.SaveEvery == 0 {
			if err := s.sink.WriteTimestep(t, s.pos); err != nil {
				return s.abort(k, t, err)
			}
		}

		for _, obs := range s.observers {
			obs.OnStep(k, t, s.pos)
		}
	}

	s.t = float64(steps) * s.cfg.Dt
	s.state = Completed
	s.logger.Info("simulation ended", zap.Int("walkers", s.pos.N()))
	return nil
}

func (s *Simulation) step(streams []*rand.Rand) error {
	n := s.pos.N()
	if s.jumps.N() != n {
		s.jumps = walk.NewPositions(s.cfg.Dim, n)
	}
	for d, r := range streams {
		rng.StandardNormal(r, s.jumps[d])
	}

	drift, err := s.field.Velocity(s.pos, s.cfg.FieldOptions)
	if err != nil {
		return err
	}
	if !drift.SameShape(s.pos) {
		return fmt.Errorf("%w: field returned %dx%d drift for %dx%d positions",
			walk.ErrDimensionMismatch, drift.Dim(), drift.N(), s.pos.Dim(), n)
	}

	return s.integrator.Advance(s.pos, drift, s.jumps, s.cfg.Diffusion, s.cfg.Dt)
}

func (s *Simulation) abort(step int, t float64, err error) error {
	s.state = Aborted
	simErr := &walk.SimulationError{Step: step, Time: t, Wrapped: err}
	s.logger.Error("simulation aborted", zap.Error(simErr))
	return simErr
}

// StepCount returns the number of steps in [0, T) for step dt, treating
// ratios within rounding error of an integer as exact.
func StepCount(T, dt float64) int {
	r := T / dt
	n := math.Round(r)
	if math.Abs(r-n) <= 1e-9*math.Max(1, n) {
		return int(n)
	}
	return int(math.Ceil(r))
}

// MeanPosition returns the mean coordinate of all walkers per dimension.
// An empty ensemble yields NaN.
func (s *Simulation) MeanPosition() []float64 {
	mean := make([]float64, s.cfg.Dim)
	for d := range mean {
		if s.pos.N() == 0 {
			mean[d] = math.NaN()
			continue
		}
		mean[d] = stat.Mean(s.pos[d], nil)
	}
	return mean
}

// Positions returns a copy of the current ensemble.
func (s *Simulation) Positions() walk.Positions { return s.pos.Clone() }

func (s *Simulation) N() int               { return s.pos.N() }
func (s *Simulation) Dim() int             { return s.cfg.Dim }
func (s *Simulation) State() State         { return s.state }
func (s *Simulation) Config() Config       { return s.cfg }
func (s *Simulation) Sink() output.Sink    { return s.sink }
func (s *Simulation) StreamSeeds() []int64 { return append([]int64(nil), s.seeds...) }

// Time is the simulation clock: the start of the step in progress, or T
// after completion.
func (s *Simulation) Time() float64 { return s.t }

// Trajectory loads everything written to the sink so far.
func (s *Simulation) Trajectory() (*output.Trajectory, error) {
	return s.sink.Load()
}

// Close releases the sink.
func (s *Simulation) Close() error {
	if s.sink == nil {
		return nil
	}
	err := s.sink.Close()
	if errors.Is(err, output.ErrClosed) {
		return nil
	}
	return err
}
