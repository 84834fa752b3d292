package sim

import (
	"fmt"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// Frame is the simulation state seen by metrics and observers after a step.
// Bodies and Grid are live; observers must copy what they keep.
type Frame struct {
	Step   int
	Time   float64
	Grid   *mpm.Grid
	Bodies []*mpm.Body
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// Snapshotter receives every SnapshotEvery-th frame, including step 0.
type Snapshotter interface {
	Snapshot(f Frame) error
}

type Config struct {
	Dt            float64 `json:"dt"`
	Duration      float64 `json:"duration"`
	Workers       int     `json:"workers"`
	MassTol       float64 `json:"mass_tol"`
	SnapshotEvery int     `json:"snapshot_every"`
}

func DefaultConfig() Config {
	return Config{
		Dt:       1e-3,
		Duration: 1.0,
		Workers:  1,
		MassTol:  1e-12,
	}
}

// Result holds per-step metric series and final metric values. Times[i]
// is the time of the i-th entry of every series.
type Result struct {
	Times   []float64
	Series  map[string][]float64
	Metrics map[string]float64
	Steps   int
}

// StepError reports a failed step. The state is left as it was after the
// previous step.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }
