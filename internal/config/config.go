package config

import (
	"fmt"
	"os"

	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/sim"
	"github.com/san-kum/walks/internal/walk"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDim         = 2
	DefaultDiffusion   = 0.01
	DefaultDt          = 1.0
	DefaultDuration    = 10.0
	DefaultSaveEvery   = 1
	DefaultField       = "constant"
	DefaultReplication = 100
)

// Config is a run file: everything needed to build and run one simulation.
type Config struct {
	Name      string         `yaml:"name,omitempty"`
	Dim       int            `yaml:"dim"`
	Diffusion []float64      `yaml:"diffusion"`
	Duration  float64        `yaml:"duration"`
	Dt        float64        `yaml:"dt"`
	SaveEvery int            `yaml:"save_every"`
	Seed      *int64         `yaml:"seed,omitempty"`
	Sink      SinkConfig     `yaml:"sink"`
	Field     FieldConfig    `yaml:"field"`
	Initial   InitialConfig  `yaml:"initial"`
	Sources   []SourceConfig `yaml:"sources,omitempty"`
}

type SinkConfig struct {
	Kind output.Kind `yaml:"kind"`
	Path string      `yaml:"path,omitempty"`
}

// FieldConfig selects a velocity field by name. Params configure it once at
// construction; Options are handed to it on every evaluation.
type FieldConfig struct {
	Name     string             `yaml:"name"`
	Velocity []float64          `yaml:"velocity,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Options  map[string]any     `yaml:"options,omitempty"`
}

// InitialConfig lists starting points, each repeated Replication times.
type InitialConfig struct {
	Points      [][]float64 `yaml:"points"`
	Replication int         `yaml:"replication"`
}

type SourceConfig struct {
	Time        float64   `yaml:"time"`
	Point       []float64 `yaml:"point"`
	Replication int       `yaml:"replication"`
}

func DefaultConfig() *Config {
	return &Config{
		Dim:       DefaultDim,
		Diffusion: []float64{DefaultDiffusion, DefaultDiffusion},
		Duration:  DefaultDuration,
		Dt:        DefaultDt,
		SaveEvery: DefaultSaveEvery,
		Sink:      SinkConfig{Kind: output.KindMemory},
		Field: FieldConfig{
			Name:     DefaultField,
			Velocity: []float64{0, 0},
		},
		Initial: InitialConfig{
			Points:      [][]float64{{0, 0}},
			Replication: DefaultReplication,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SimConfig converts the run file to driver parameters.
func (c *Config) SimConfig() sim.Config {
	var opts walk.Options
	if len(c.Field.Options) > 0 {
		opts = make(walk.Options, len(c.Field.Options))
		for k, v := range c.Field.Options {
			opts[k] = v
		}
	}
	return sim.Config{
		Dim:          c.Dim,
		Diffusion:    append([]float64(nil), c.Diffusion...),
		T:            c.Duration,
		Dt:           c.Dt,
		SaveEvery:    c.SaveEvery,
		Sink:         c.Sink.Kind,
		SinkPath:     c.Sink.Path,
		FieldOptions: opts,
	}
}

// InitialPositions returns the starting points as a dim×N array.
func (c *Config) InitialPositions() (walk.Positions, error) {
	pos := walk.NewPositions(c.Dim, len(c.Initial.Points))
	for i, p := range c.Initial.Points {
		if len(p) != c.Dim {
			return nil, fmt.Errorf("%w: initial point %d has %d coordinates, want %d", walk.ErrDimensionMismatch, i, len(p), c.Dim)
		}
		for d, v := range p {
			pos[d][i] = v
		}
	}
	return pos, nil
}

func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if c.Field.Name == "" {
		return fmt.Errorf("%w: field name is required", walk.ErrInvalidConfig)
	}
	if c.Initial.Replication < 1 {
		return fmt.Errorf("%w: initial replication %d", walk.ErrInvalidReplication, c.Initial.Replication)
	}
	if _, err := c.InitialPositions(); err != nil {
		return err
	}

	prev := 0.0
	for i, src := range c.Sources {
		if len(src.Point) != c.Dim {
			return fmt.Errorf("%w: source %d has %d coordinates, want %d", walk.ErrDimensionMismatch, i, len(src.Point), c.Dim)
		}
		if src.Time < prev {
			return fmt.Errorf("%w: source %d at t=%g precedes t=%g", walk.ErrInvalidSchedule, i, src.Time, prev)
		}
		if src.Replication < 0 {
			return fmt.Errorf("%w: source %d", walk.ErrInvalidReplication, i)
		}
		prev = src.Time
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Diffusion = append([]float64(nil), c.Diffusion...)
	if c.Seed != nil {
		seed := *c.Seed
		out.Seed = &seed
	}
	out.Field.Velocity = append([]float64(nil), c.Field.Velocity...)
	if c.Field.Params != nil {
		out.Field.Params = make(map[string]float64, len(c.Field.Params))
		for k, v := range c.Field.Params {
			out.Field.Params[k] = v
		}
	}
	if c.Field.Options != nil {
		out.Field.Options = make(map[string]any, len(c.Field.Options))
		for k, v := range c.Field.Options {
			out.Field.Options[k] = v
		}
	}
	out.Initial.Points = make([][]float64, len(c.Initial.Points))
	for i, p := range c.Initial.Points {
		out.Initial.Points[i] = append([]float64(nil), p...)
	}
	out.Sources = make([]SourceConfig, len(c.Sources))
	for i, s := range c.Sources {
		s.Point = append([]float64(nil), s.Point...)
		out.Sources[i] = s
	}
	return &out
}
