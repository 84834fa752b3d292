package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/solver"
)

// Simulator runs the explicit P2G, nodal solve, G2P cycle on one grid and a
// fixed set of bodies.
type Simulator struct {
	grid    *mpm.Grid
	bc      solver.Boundary
	initial []*mpm.Body
	bodies  []*mpm.Body
	backup  []*mpm.Body

	metrics      []Metric
	observers    []Observer
	snapshotters []Snapshotter
	logger       *slog.Logger

	step int
	time float64
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New takes ownership of g and copies bodies; the copies are what Reset
// restores.
func New(g *mpm.Grid, bodies []*mpm.Body, bc solver.Boundary, opts ...Option) *Simulator {
	s := &Simulator{
		grid:         g,
		bc:           bc,
		initial:      make([]*mpm.Body, len(bodies)),
		bodies:       make([]*mpm.Body, len(bodies)),
		backup:       make([]*mpm.Body, len(bodies)),
		metrics:      make([]Metric, 0),
		observers:    make([]Observer, 0),
		snapshotters: make([]Snapshotter, 0),
		logger:       slog.Default(),
	}
	for i, b := range bodies {
		s.initial[i] = b.Clone()
		s.bodies[i] = b.Clone()
		s.backup[i] = b.Clone()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)           { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)       { s.observers = append(s.observers, o) }
func (s *Simulator) AddSnapshotter(w Snapshotter) { s.snapshotters = append(s.snapshotters, w) }

func (s *Simulator) Grid() *mpm.Grid           { return s.grid }
func (s *Simulator) Bodies() []*mpm.Body       { return s.bodies }
func (s *Simulator) Time() float64             { return s.time }
func (s *Simulator) StepCount() int            { return s.step }
func (s *Simulator) Boundary() solver.Boundary { return s.bc }

// Frame returns the current state.
func (s *Simulator) Frame() Frame {
	return Frame{Step: s.step, Time: s.time, Grid: s.grid, Bodies: s.bodies}
}

// ParticleCount is the total number of particles over all bodies.
func (s *Simulator) ParticleCount() int {
	n := 0
	for _, b := range s.bodies {
		n += b.Len()
	}
	return n
}

// Reset restores the bodies to their state at New and rewinds the clock.
func (s *Simulator) Reset() {
	for i, b := range s.bodies {
		b.CopyFrom(s.initial[i])
	}
	s.grid.Reset()
	s.step = 0
	s.time = 0
}

// Step advances one explicit step. On failure the particle state is rolled
// back to the start of the step and a *StepError is returned.
func (s *Simulator) Step(cfg Config) error {
	var opts []mpm.Option
	if cfg.Workers != 0 {
		opts = append(opts, mpm.WithWorkers(cfg.Workers))
	}

	if err := mpm.ParticlesToGrid(s.grid, s.bodies, opts...); err != nil {
		return s.stepError(err)
	}
	nodal, err := solver.Solve(s.grid, cfg.Dt, s.bc, cfg.MassTol)
	if err != nil {
		return s.stepError(err)
	}

	for i, b := range s.bodies {
		s.backup[i].CopyFrom(b)
	}
	if err := mpm.UpdateParticles(s.grid, s.bodies, nodal, cfg.Dt, opts...); err != nil {
		for i, b := range s.bodies {
			b.CopyFrom(s.backup[i])
		}
		return s.stepError(err)
	}

	s.step++
	s.time += cfg.Dt
	return nil
}

func (s *Simulator) stepError(err error) error {
	return &StepError{Step: s.step, Time: s.time, Wrapped: err}
}

// Run resets the simulator and steps it for cfg.Duration. When a step fails
// or ctx is cancelled the result collected so far is returned with the error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	s.Reset()
	steps := stepCount(cfg)
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Info("run started",
		"steps", steps,
		"dt", cfg.Dt,
		"particles", s.ParticleCount(),
		"nodes", s.grid.NodeCount(),
		"workers", cfg.Workers,
	)
	start := time.Now()

	if err := s.observe(result, cfg); err != nil {
		return result, err
	}

	logEvery := max(steps/10, 1)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			s.logger.Warn("run cancelled", "step", s.step, "time", s.time)
			return result, ctx.Err()
		default:
		}

		if err := s.Step(cfg); err != nil {
			s.finish(result)
			s.logger.Error("step failed", "step", s.step, "time", s.time, "err", err)
			return result, err
		}
		if err := s.observe(result, cfg); err != nil {
			s.finish(result)
			return result, err
		}

		if s.step%logEvery == 0 {
			s.logger.Debug("progress", "step", s.step, "time", s.time)
		}
	}

	s.finish(result)
	s.logger.Info("run finished", "steps", result.Steps, "elapsed", time.Since(start))
	return result, nil
}

// RunWithCallback steps from the current state until cfg.Duration has
// elapsed or callback returns false. The callback sees every frame,
// including the starting one.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(Frame) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	steps := stepCount(cfg)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.Frame()) {
			return nil
		}
		if err := s.Step(cfg); err != nil {
			return err
		}
	}
	callback(s.Frame())
	return nil
}

func (s *Simulator) observe(result *Result, cfg Config) error {
	f := s.Frame()
	for _, m := range s.metrics {
		m.Observe(f)
		result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
	}
	for _, obs := range s.observers {
		obs.OnStep(f)
	}
	result.Times = append(result.Times, f.Time)

	if cfg.SnapshotEvery > 0 && f.Step%cfg.SnapshotEvery == 0 {
		for _, w := range s.snapshotters {
			if err := w.Snapshot(f); err != nil {
				return fmt.Errorf("snapshot at step %d: %w", f.Step, err)
			}
		}
	}
	return nil
}

func (s *Simulator) finish(result *Result) {
	result.Steps = s.step
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %g", cfg.Duration)
	}
	if cfg.Duration < cfg.Dt {
		return fmt.Errorf("duration %g shorter than dt %g", cfg.Duration, cfg.Dt)
	}
	if cfg.MassTol < 0 {
		return fmt.Errorf("mass tolerance must be non-negative, got %g", cfg.MassTol)
	}
	if cfg.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot interval must be non-negative, got %d", cfg.SnapshotEvery)
	}
	return nil
}

func stepCount(cfg Config) int {
	return int(math.Round(cfg.Duration / cfg.Dt))
}
