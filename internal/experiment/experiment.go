package experiment

import (
	"fmt"
	"time"

	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/rng"
	"github.com/san-kum/walks/internal/sim"
	"go.uber.org/zap"
)

// Result describes a finished run.
type Result struct {
	Seed         int64
	StreamSeeds  []int64
	Walkers      int
	MeanPosition []float64
	WallTime     time.Duration
}

// Experiment ties a run file to the simulation built from it.
type Experiment struct {
	cfg       *config.Config
	seed      int64
	simulator *sim.Simulation
	logger    *zap.Logger
}

// New resolves the run seed: cfg.Seed when set, otherwise a fresh random
// one, so every run can be reproduced from its metadata.
func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := rng.NewRandomMaster().Next()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	return &Experiment{cfg: cfg, seed: seed, logger: logger}
}

// Setup validates the run file and builds the simulation with its initial
// condition and sources in place.
func (e *Experiment) Setup(reg *Registry, opts ...sim.Option) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	field, err := reg.GetField(e.cfg.Field, e.cfg.Dim, e.seed)
	if err != nil {
		return err
	}

	opts = append([]sim.Option{sim.WithLogger(e.logger)}, opts...)
	s, err := sim.New(e.cfg.SimConfig(), field, opts...)
	if err != nil {
		return err
	}

	if err := e.initialize(s); err != nil {
		s.Close()
		return err
	}
	e.simulator = s
	return nil
}

func (e *Experiment) initialize(s *sim.Simulation) error {
	points, err := e.cfg.InitialPositions()
	if err != nil {
		return err
	}
	if err := s.SetInitialCondition(points, e.cfg.Initial.Replication); err != nil {
		return err
	}
	if len(e.cfg.Sources) == 0 {
		return nil
	}

	times := make([]float64, len(e.cfg.Sources))
	pts := make([][]float64, len(e.cfg.Sources))
	reps := make([]int, len(e.cfg.Sources))
	for i, src := range e.cfg.Sources {
		times[i] = src.Time
		pts[i] = src.Point
		reps[i] = max(src.Replication, 1)
	}
	return s.AddSources(times, pts, reps...)
}

func (e *Experiment) Run() (*Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	seed := e.seed
	if err := e.simulator.Run(&seed); err != nil {
		return nil, err
	}

	return &Result{
		Seed:         e.seed,
		StreamSeeds:  e.simulator.StreamSeeds(),
		Walkers:      e.simulator.N(),
		MeanPosition: e.simulator.MeanPosition(),
		WallTime:     time.Since(start),
	}, nil
}

func (e *Experiment) Seed() int64 { return e.seed }

// GetSimulator returns the underlying simulation for adding observers or
// reading the trajectory.
func (e *Experiment) GetSimulator() *sim.Simulation {
	return e.simulator
}

func (e *Experiment) Close() error {
	if e.simulator == nil {
		return nil
	}
	return e.simulator.Close()
}

// BatchFactory returns a sim.Factory building replica i from cfg with
// seed base+i. Each replica gets its own field and sink; records sinks get
// the replica index appended to their path.
func BatchFactory(cfg *config.Config, reg *Registry, base int64) sim.Factory {
	return func(i int) (*sim.Simulation, error) {
		c := cfg.Clone()
		seed := base + int64(i)
		c.Seed = &seed
		if c.Sink.Path != "" {
			c.Sink.Path = fmt.Sprintf("%s.%d", c.Sink.Path, i)
		}

		e := New(c, nil)
		if err := e.Setup(reg); err != nil {
			return nil, err
		}
		return e.GetSimulator(), nil
	}
}
