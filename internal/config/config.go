package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mpmsim/internal/basis"
	"github.com/san-kum/mpmsim/internal/material"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/solver"
	"github.com/san-kum/mpmsim/internal/stencil"
	"github.com/san-kum/mpmsim/internal/tensor"
)

const (
	DefaultDt       = 1e-3
	DefaultDuration = 1.0
	DefaultWorkers  = 1
	DefaultMassTol  = 1e-12
	DefaultPPC      = 2
	DefaultDensity  = 1000.0
	DefaultModel    = "linear-elastic"
)

var ErrNoBodies = errors.New("config: scenario has no bodies")

type Config struct {
	Name          string         `yaml:"name"`
	Dt            float64        `yaml:"dt"`
	Duration      float64        `yaml:"duration"`
	Workers       int            `yaml:"workers"`
	MassTol       float64        `yaml:"mass_tol"`
	SnapshotEvery int            `yaml:"snapshot_every,omitempty"`
	Compress      bool           `yaml:"compress,omitempty"`
	Grid          GridConfig     `yaml:"grid"`
	Boundary      BoundaryConfig `yaml:"boundary"`
	Bodies        []BodyConfig   `yaml:"bodies"`
}

type GridConfig struct {
	Hx   float64 `yaml:"hx"`
	Hy   float64 `yaml:"hy"`
	Numx int     `yaml:"numx"`
	Numy int     `yaml:"numy"`
}

type BoundaryConfig struct {
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
	Bottom string `yaml:"bottom"`
	Top    string `yaml:"top"`
}

type BodyConfig struct {
	Name      string           `yaml:"name"`
	Shape     ShapeConfig      `yaml:"shape"`
	PPC       int              `yaml:"ppc"`
	Scheme    string           `yaml:"scheme"`
	Density   float64          `yaml:"density"`
	Velocity  [2]float64       `yaml:"velocity,flow"`
	Gravity   [2]float64       `yaml:"gravity,flow"` // acceleration, [0, -9.8] pulls down
	Vibration *VibrationConfig `yaml:"vibration,omitempty"`
	Material  MaterialConfig   `yaml:"material"`
}

// ShapeConfig is a disk (center, radius) or a rectangle (min, max).
type ShapeConfig struct {
	Kind   string     `yaml:"kind"`
	Center [2]float64 `yaml:"center,flow,omitempty"`
	Radius float64    `yaml:"radius,omitempty"`
	Min    [2]float64 `yaml:"min,flow,omitempty"`
	Max    [2]float64 `yaml:"max,flow,omitempty"`
}

// VibrationConfig replaces the uniform initial velocity with the first axial
// mode of a bar fixed at x0.
type VibrationConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	X0        float64 `yaml:"x0"`
	Length    float64 `yaml:"length"`
}

type MaterialConfig struct {
	Model string  `yaml:"model"`
	E     float64 `yaml:"E"`
	Nu    float64 `yaml:"nu"`
	Plane string  `yaml:"plane"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "custom",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Workers:  DefaultWorkers,
		MassTol:  DefaultMassTol,
		Grid:     GridConfig{Hx: 0.05, Hy: 0.05, Numx: 20, Numy: 20},
		Boundary: BoundaryConfig{Left: "fixed", Right: "fixed", Bottom: "fixed", Top: "fixed"},
	}
}

// Load reads a YAML scenario over the defaults. Body entries get per-body
// defaults for fields left out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyBodyDefaults()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyBodyDefaults() {
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Name == "" {
			b.Name = fmt.Sprintf("body%d", i)
		}
		if b.PPC == 0 {
			b.PPC = DefaultPPC
		}
		if b.Density == 0 {
			b.Density = DefaultDensity
		}
		if b.Material.Model == "" {
			b.Material.Model = DefaultModel
		}
	}
}

// Validate checks everything that can be checked without building the
// scenario.
func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if !(c.Duration >= c.Dt) {
		return fmt.Errorf("config: duration %g must be at least dt %g", c.Duration, c.Dt)
	}
	if !(c.Grid.Hx > 0) || !(c.Grid.Hy > 0) {
		return fmt.Errorf("config: %w: hx=%g hy=%g", mpm.ErrInvalidGridSpacing, c.Grid.Hx, c.Grid.Hy)
	}
	if c.Grid.Numx < 1 || c.Grid.Numy < 1 {
		return fmt.Errorf("config: grid needs at least one cell per axis, got %dx%d", c.Grid.Numx, c.Grid.Numy)
	}
	if _, err := c.boundary(); err != nil {
		return err
	}
	if len(c.Bodies) == 0 {
		return ErrNoBodies
	}

	seen := make(map[string]bool, len(c.Bodies))
	for _, b := range c.Bodies {
		if seen[b.Name] {
			return fmt.Errorf("config: duplicate body name %q", b.Name)
		}
		seen[b.Name] = true
		scheme, err := basis.ParseScheme(b.Scheme)
		if err != nil {
			return fmt.Errorf("config: body %q: %w", b.Name, err)
		}
		shape, err := b.Shape.shape()
		if err != nil {
			return fmt.Errorf("config: body %q: %w", b.Name, err)
		}
		if err := c.Grid.fits(shape, scheme); err != nil {
			return fmt.Errorf("config: body %q: %w", b.Name, err)
		}
		if b.PPC < 1 {
			return fmt.Errorf("config: body %q: ppc must be positive, got %d", b.Name, b.PPC)
		}
		if !(b.Density > 0) {
			return fmt.Errorf("config: body %q: density must be positive, got %g", b.Name, b.Density)
		}
	}
	return nil
}

// Build validates the scenario and creates the grid, the seeded bodies and
// the boundary constraints.
func (c *Config) Build() (*mpm.Grid, []*mpm.Body, solver.Boundary, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, solver.Boundary{}, err
	}
	bc, _ := c.boundary()

	g, err := mpm.NewGrid(c.Grid.Hx, c.Grid.Hy, c.Grid.Numx, c.Grid.Numy)
	if err != nil {
		return nil, nil, bc, err
	}

	bodies := make([]*mpm.Body, 0, len(c.Bodies))
	for _, spec := range c.Bodies {
		b, err := spec.build(c.Grid.Hx, c.Grid.Hy)
		if err != nil {
			return nil, nil, solver.Boundary{}, err
		}
		bodies = append(bodies, b)
	}
	return g, bodies, bc, nil
}

// SimConfig is the driver configuration of the scenario.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		Workers:       c.Workers,
		MassTol:       c.MassTol,
		SnapshotEvery: c.SnapshotEvery,
	}
}

// AxialFrequency is the first axial natural frequency in Hz,
// √(E/ρ)/(4L), of the named body when it is seeded with a vibration mode.
func (c *Config) AxialFrequency(body string) (float64, bool) {
	for _, b := range c.Bodies {
		if b.Name != body || b.Vibration == nil || b.Vibration.Length <= 0 {
			continue
		}
		return math.Sqrt(b.Material.E/b.Density) / (4 * b.Vibration.Length), true
	}
	return 0, false
}

func (c *Config) boundary() (solver.Boundary, error) {
	var bc solver.Boundary
	edges := []struct {
		name string
		in   string
		out  *solver.Constraint
	}{
		{"left", c.Boundary.Left, &bc.Left},
		{"right", c.Boundary.Right, &bc.Right},
		{"bottom", c.Boundary.Bottom, &bc.Bottom},
		{"top", c.Boundary.Top, &bc.Top},
	}
	for _, e := range edges {
		v, err := solver.ParseConstraint(e.in)
		if err != nil {
			return bc, fmt.Errorf("config: boundary %s: %w", e.name, err)
		}
		*e.out = v
	}
	return bc, nil
}

// fits checks that every particle seeded inside s starts with its whole
// stencil on the grid.
func (g GridConfig) fits(s scene.Shape, scheme basis.Scheme) error {
	m := float64(stencil.Margin(scheme))
	lo, hi := s.Bounds()
	minX, minY := m*g.Hx, m*g.Hy
	maxX, maxY := float64(g.Numx)*g.Hx-minX, float64(g.Numy)*g.Hy-minY
	if lo[0] < minX || lo[1] < minY || hi[0] > maxX || hi[1] > maxY {
		return fmt.Errorf("%w: shape [%g, %g]x[%g, %g] must lie within [%g, %g]x[%g, %g] for %s",
			mpm.ErrStencilOutOfBounds, lo[0], hi[0], lo[1], hi[1], minX, maxX, minY, maxY, scheme)
	}
	return nil
}

func (s ShapeConfig) shape() (scene.Shape, error) {
	switch s.Kind {
	case "disk", "circle":
		if !(s.Radius > 0) {
			return nil, fmt.Errorf("disk radius must be positive, got %g", s.Radius)
		}
		return scene.Disk{Center: tensor.Vec2(s.Center), Radius: s.Radius}, nil
	case "rectangle", "rect", "box":
		if !(s.Max[0] > s.Min[0]) || !(s.Max[1] > s.Min[1]) {
			return nil, fmt.Errorf("rectangle max %v must exceed min %v", s.Max, s.Min)
		}
		return scene.Rectangle{Min: tensor.Vec2(s.Min), Max: tensor.Vec2(s.Max)}, nil
	}
	return nil, fmt.Errorf("unknown shape kind %q", s.Kind)
}

func (b BodyConfig) build(hx, hy float64) (*mpm.Body, error) {
	scheme, _ := basis.ParseScheme(b.Scheme)
	shape, _ := b.Shape.shape()

	model, err := material.New(b.Material.Model, b.Material.params())
	if err != nil {
		return nil, fmt.Errorf("config: body %q: %w", b.Name, err)
	}

	vel := scene.Uniform(tensor.Vec2(b.Velocity))
	if v := b.Vibration; v != nil {
		vel = scene.AxialMode(v.Amplitude, v.X0, v.Length)
	}

	return scene.NewBody(scene.BodySpec{
		Name:     b.Name,
		Shape:    shape,
		PPC:      b.PPC,
		Scheme:   scheme,
		Density:  b.Density,
		Velocity: vel,
		Gravity:  tensor.Vec2(b.Gravity).Scale(-1),
		Material: model,
	}, hx, hy)
}

func (m MaterialConfig) params() material.Params {
	p := material.Params{"E": m.E, "nu": m.Nu}
	if m.Plane != "" {
		p["plane"] = m.Plane
	}
	return p
}
