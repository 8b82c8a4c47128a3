package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/walks/internal/output"
	"github.com/san-kum/walks/internal/walk"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dim != 2 {
		t.Errorf("expected dim 2, got %d", cfg.Dim)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("drift")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Initial.Replication != 2 {
		t.Errorf("expected replication 2, got %d", cfg.Initial.Replication)
	}

	cfg.Initial.Points[0][0] = 99
	if Presets["drift"].Initial.Points[0][0] == 99 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	seed := int64(5747387)

	cfg := GetPreset("plume")
	cfg.Seed = &seed
	cfg.Sink = SinkConfig{Kind: output.KindRecords, Path: "walks.rec"}
	cfg.Field.Options = map[string]any{"rate": 0.5}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Seed == nil || *loaded.Seed != seed {
		t.Errorf("seed not preserved: %v", loaded.Seed)
	}
	if loaded.Sink.Kind != output.KindRecords || loaded.Sink.Path != "walks.rec" {
		t.Errorf("sink not preserved: %+v", loaded.Sink)
	}
	if len(loaded.Sources) != 4 || loaded.Sources[2].Time != 15 {
		t.Errorf("sources not preserved: %+v", loaded.Sources)
	}
	if loaded.Field.Options["rate"] != 0.5 {
		t.Errorf("field options not preserved: %v", loaded.Field.Options)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("duration: 50\nsink:\n  kind: records\n  path: out.rec\nfield:\n  name: shear\n  options:\n    rate: 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Duration != 50 || cfg.Dt != DefaultDt {
		t.Errorf("got duration %f dt %f", cfg.Duration, cfg.Dt)
	}
	if cfg.Sink.Kind != output.KindRecords {
		t.Errorf("expected records sink, got %v", cfg.Sink.Kind)
	}

	rate, err := cfg.SimConfig().FieldOptions.Float("rate", 0)
	if err != nil || rate != 2 {
		t.Errorf("rate option: got %f, %v", rate, err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("sink:\n  kind: tape\n"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown sink kind")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, walk.ErrInvalidTimestep},
		{"negative duration", func(c *Config) { c.Duration = -1 }, walk.ErrInvalidDuration},
		{"diffusion length", func(c *Config) { c.Diffusion = []float64{1, 1, 1} }, walk.ErrDimensionMismatch},
		{"no field", func(c *Config) { c.Field.Name = "" }, walk.ErrInvalidConfig},
		{"replication", func(c *Config) { c.Initial.Replication = 0 }, walk.ErrInvalidReplication},
		{"point dimension", func(c *Config) { c.Initial.Points = [][]float64{{1}} }, walk.ErrDimensionMismatch},
		{"source order", func(c *Config) {
			c.Sources = []SourceConfig{{Time: 2, Point: []float64{0, 0}}, {Time: 1, Point: []float64{0, 0}}}
		}, walk.ErrInvalidSchedule},
		{"source dimension", func(c *Config) {
			c.Sources = []SourceConfig{{Time: 1, Point: []float64{0}}}
		}, walk.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInitialPositions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Initial.Points = [][]float64{{1, 2}, {3, 4}, {5, 6}}

	pos, err := cfg.InitialPositions()
	if err != nil {
		t.Fatal(err)
	}
	if pos.N() != 3 || pos[0][2] != 5 || pos[1][0] != 2 {
		t.Errorf("unexpected positions %v", pos)
	}
}
