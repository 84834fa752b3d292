package metrics

import (
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/tensor"
)

// Stability is the fraction of observed frames in which every particle's
// volume ratio J = V/V0 stays within [1/threshold, threshold] and every
// position is finite.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	for _, b := range f.Bodies {
		if !s.withinBounds(b.X, b.Volume, b.Volume0) {
			s.violations++
			return
		}
	}
}

func (s *Stability) withinBounds(xs []tensor.Vec2, vol, vol0 []float64) bool {
	for i, x := range xs {
		if !x.IsFinite() {
			return false
		}
		if vol0[i] <= 0 {
			continue
		}
		j := vol[i] / vol0[i]
		if j > s.threshold || j*s.threshold < 1 {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
