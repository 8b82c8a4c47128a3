package config

import "sort"

var Presets = map[string]*Config{
	"diffusion": {
		Name: "diffusion", Dim: 2, Diffusion: []float64{0.01, 0.01}, Duration: 1000, Dt: 1, SaveEvery: 10,
		Field:   FieldConfig{Name: "constant", Velocity: []float64{0, 0}},
		Initial: InitialConfig{Points: [][]float64{{0, 0}}, Replication: 10000},
	},
	"drift": {
		Name: "drift", Dim: 2, Diffusion: []float64{0, 0}, Duration: 3, Dt: 1, SaveEvery: 1,
		Field:   FieldConfig{Name: "constant", Velocity: []float64{1, 0}},
		Initial: InitialConfig{Points: [][]float64{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, Replication: 2},
	},
	"shear": {
		Name: "shear", Dim: 2, Diffusion: []float64{0.05, 0.05}, Duration: 50, Dt: 0.5, SaveEvery: 2,
		Field: FieldConfig{
			Name:    "shear",
			Options: map[string]any{"rate": 0.2},
		},
		Initial: InitialConfig{Points: [][]float64{{0, -1}, {0, 0}, {0, 1}}, Replication: 200},
	},
	"vortex": {
		Name: "vortex", Dim: 2, Diffusion: []float64{0.001, 0.001}, Duration: 60, Dt: 0.1, SaveEvery: 10,
		Field: FieldConfig{
			Name:   "vortex",
			Params: map[string]float64{"circulation": 6.283185307179586, "core": 1},
		},
		Initial: InitialConfig{Points: [][]float64{{2, 0}, {0, 3}}, Replication: 100},
	},
	"kraichnan": {
		Name: "kraichnan", Dim: 2, Diffusion: []float64{0, 0}, Duration: 10, Dt: 1, SaveEvery: 1,
		Field: FieldConfig{
			Name:   "kraichnan",
			Params: map[string]float64{"mean": 1, "variance": 0.01, "len_scale": 10, "modes": 1000, "seed": 5747387},
		},
		Initial: InitialConfig{Points: [][]float64{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, Replication: 2},
	},
	"plume": {
		Name: "plume", Dim: 2, Diffusion: []float64{0.02, 0.02}, Duration: 40, Dt: 0.5, SaveEvery: 4,
		Field:   FieldConfig{Name: "constant", Velocity: []float64{0.5, 0}},
		Initial: InitialConfig{Points: [][]float64{{0, 0}}, Replication: 50},
		Sources: []SourceConfig{
			{Time: 5, Point: []float64{0, 0}, Replication: 50},
			{Time: 10, Point: []float64{0, 0}, Replication: 50},
			{Time: 15, Point: []float64{0, 0}, Replication: 50},
			{Time: 20, Point: []float64{0, 0}, Replication: 50},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
