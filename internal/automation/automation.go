// Package automation runs scripted sequences and parameter sweeps of
// simulations.
package automation

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/walks/internal/analysis"
	"github.com/san-kum/walks/internal/config"
	"github.com/san-kum/walks/internal/experiment"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a run file and overrides single
// values. Zero values keep the base.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Config   string             `yaml:"config"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Seed     *int64             `yaml:"seed"`
	Walkers  int                `yaml:"walkers"`
	Params   map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Walkers > 0 {
		cfg.Initial.Replication = s.Walkers
	}
	if s.Seed != nil {
		seed := *s.Seed
		cfg.Seed = &seed
	}
	for k, v := range s.Params {
		if err := SetParam(cfg, k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(scenario *Scenario, registry *experiment.Registry, logger *zap.Logger) ([]experiment.Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", zap.Int("step", i+1), zap.Int("of", len(scenario.Steps)), zap.String("field", cfg.Field.Name))

		result, _, err := Evaluate(cfg, registry)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, *result)
	}

	return results, nil
}

// Evaluate runs cfg once and summarizes the recorded trajectory.
func Evaluate(cfg *config.Config, registry *experiment.Registry) (*experiment.Result, analysis.Summary, error) {
	exp := experiment.New(cfg, nil)
	if err := exp.Setup(registry); err != nil {
		return nil, analysis.Summary{}, err
	}
	defer exp.Close()

	result, err := exp.Run()
	if err != nil {
		return nil, analysis.Summary{}, err
	}
	tr, err := exp.GetSimulator().Trajectory()
	if err != nil {
		return nil, analysis.Summary{}, err
	}
	return result, analysis.Summarize(tr), nil
}

// SetParam sets a named value of cfg. Known names are diffusion (every
// dimension), diffusion.<d>, dt, duration, walkers; field.<name> sets a
// field parameter and option.<name> a field option.
func SetParam(cfg *config.Config, name string, v float64) error {
	switch {
	case name == "diffusion":
		for d := range cfg.Diffusion {
			cfg.Diffusion[d] = v
		}
	case strings.HasPrefix(name, "diffusion."):
		var d int
		if _, err := fmt.Sscanf(name, "diffusion.%d", &d); err != nil || d < 0 || d >= len(cfg.Diffusion) {
			return fmt.Errorf("bad parameter %q", name)
		}
		cfg.Diffusion[d] = v
	case name == "dt":
		cfg.Dt = v
	case name == "duration":
		cfg.Duration = v
	case name == "walkers":
		cfg.Initial.Replication = int(v)
	case strings.HasPrefix(name, "field."):
		if cfg.Field.Params == nil {
			cfg.Field.Params = make(map[string]float64)
		}
		cfg.Field.Params[strings.TrimPrefix(name, "field.")] = v
	case strings.HasPrefix(name, "option."):
		if cfg.Field.Options == nil {
			cfg.Field.Options = make(map[string]any)
		}
		cfg.Field.Options[strings.TrimPrefix(name, "option.")] = v
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// ParameterSweep runs a base configuration across a range of one parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the ensemble state at the end of one sweep point.
type SweepResult struct {
	ParamValue   float64
	Walkers      int
	MeanPosition []float64
	Variance     []float64
	Diffusion    []float64
}

// RunSweep executes a parameter sweep
func RunSweep(sweep *ParameterSweep, registry *experiment.Registry, logger *zap.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := SetParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		result, summary, err := Evaluate(cfg, registry)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue:   paramVal,
			Walkers:      result.Walkers,
			MeanPosition: result.MeanPosition,
			Variance:     summary.Variance,
			Diffusion:    summary.Diffusion,
		})
		logger.Info("sweep point", zap.Int("step", i+1), zap.Int("of", sweep.NumSteps), zap.String("param", sweep.ParamName), zap.Float64("value", paramVal))
	}

	return results, nil
}
