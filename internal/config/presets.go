package config

import "sort"

var Presets = map[string]*Config{
	// two elastic disks colliding head-on in a closed box
	"two_disks": {
		Name: "two_disks", Dt: 1e-3, Duration: 3.0, Workers: 1, MassTol: DefaultMassTol,
		Grid:     GridConfig{Hx: 0.05, Hy: 0.05, Numx: 24, Numy: 24},
		Boundary: BoundaryConfig{Left: "fixed", Right: "fixed", Bottom: "fixed", Top: "fixed"},
		Bodies: []BodyConfig{
			{
				Name: "disk1", PPC: 2, Scheme: "gimp", Density: 1000,
				Shape:    ShapeConfig{Kind: "disk", Center: [2]float64{0.3, 0.3}, Radius: 0.2},
				Velocity: [2]float64{0.1, 0.1},
				Material: MaterialConfig{Model: "linear-elastic", E: 1000, Nu: 0.3, Plane: "strain"},
			},
			{
				Name: "disk2", PPC: 2, Scheme: "gimp", Density: 1000,
				Shape:    ShapeConfig{Kind: "disk", Center: [2]float64{0.9, 0.9}, Radius: 0.2},
				Velocity: [2]float64{-0.1, -0.1},
				Material: MaterialConfig{Model: "linear-elastic", E: 1000, Nu: 0.3, Plane: "strain"},
			},
		},
	},
	// slender bar fixed at x=0, released in its first axial mode
	"vibrating_bar": {
		Name: "vibrating_bar", Dt: 1e-3, Duration: 2.0, Workers: 1, MassTol: DefaultMassTol,
		Grid:     GridConfig{Hx: 0.05, Hy: 0.05, Numx: 25, Numy: 4},
		Boundary: BoundaryConfig{Left: "roller", Right: "free", Bottom: "free", Top: "free"},
		Bodies: []BodyConfig{
			{
				Name: "bar", PPC: 2, Scheme: "linear", Density: 1,
				Shape:     ShapeConfig{Kind: "rectangle", Min: [2]float64{0, 0.05}, Max: [2]float64{1, 0.15}},
				Vibration: &VibrationConfig{Amplitude: 0.1, X0: 0, Length: 1},
				Material:  MaterialConfig{Model: "linear-elastic", E: 100, Nu: 0, Plane: "stress"},
			},
		},
	},
	// block dropped onto a fixed floor; gravity is an acceleration, -y is down
	"falling_block": {
		Name: "falling_block", Dt: 1e-3, Duration: 0.5, Workers: 1, MassTol: DefaultMassTol,
		Grid:     GridConfig{Hx: 0.05, Hy: 0.05, Numx: 20, Numy: 20},
		Boundary: BoundaryConfig{Left: "roller", Right: "roller", Bottom: "fixed", Top: "free"},
		Bodies: []BodyConfig{
			{
				Name: "block", PPC: 2, Scheme: "linear", Density: 1000,
				Shape:    ShapeConfig{Kind: "rectangle", Min: [2]float64{0.35, 0.5}, Max: [2]float64{0.65, 0.8}},
				Gravity:  [2]float64{0, -9.8},
				Material: MaterialConfig{Model: "linear-elastic", E: 1e5, Nu: 0.3, Plane: "strain"},
			},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Bodies = make([]BodyConfig, len(p.Bodies))
	for i, b := range p.Bodies {
		if b.Vibration != nil {
			v := *b.Vibration
			b.Vibration = &v
		}
		cfg.Bodies[i] = b
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
