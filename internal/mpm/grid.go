package mpm

import (
	"fmt"
	"math"

	"github.com/san-kum/mpmsim/internal/tensor"
)

// Grid is a uniform background grid with its origin at (0, 0).
// Node (col, row) has index col + (Numx+1)*row.
type Grid struct {
	Hx, Hy     float64
	Numx, Numy int

	Coords []tensor.Vec2

	// Nodal fields, rebuilt by every ParticlesToGrid call.
	Mass     []float64
	Momentum []tensor.Vec2
	Force    []tensor.Vec2
}

// NewGrid allocates a grid of numx×numy cells of size hx×hy.
func NewGrid(hx, hy float64, numx, numy int) (*Grid, error) {
	if !validSpacing(hx) || !validSpacing(hy) {
		return nil, fmt.Errorf("%w: hx=%g hy=%g", ErrInvalidGridSpacing, hx, hy)
	}
	if numx < 1 || numy < 1 {
		return nil, fmt.Errorf("mpm: grid needs at least one cell per axis, got %dx%d", numx, numy)
	}
	n := (numx + 1) * (numy + 1)
	g := &Grid{
		Hx: hx, Hy: hy,
		Numx: numx, Numy: numy,
		Coords:   make([]tensor.Vec2, n),
		Mass:     make([]float64, n),
		Momentum: make([]tensor.Vec2, n),
		Force:    make([]tensor.Vec2, n),
	}
	for row := 0; row <= numy; row++ {
		for col := 0; col <= numx; col++ {
			g.Coords[g.Index(col, row)] = tensor.Vec2{float64(col) * hx, float64(row) * hy}
		}
	}
	return g, nil
}

func (g *Grid) NodeCount() int { return (g.Numx + 1) * (g.Numy + 1) }

func (g *Grid) Index(col, row int) int { return col + (g.Numx+1)*row }

// Width and Height of the gridded domain.
func (g *Grid) Width() float64  { return float64(g.Numx) * g.Hx }
func (g *Grid) Height() float64 { return float64(g.Numy) * g.Hy }

// Validate checks spacing and that all nodal arrays have NodeCount entries.
func (g *Grid) Validate() error {
	if !validSpacing(g.Hx) || !validSpacing(g.Hy) {
		return fmt.Errorf("%w: hx=%g hy=%g", ErrInvalidGridSpacing, g.Hx, g.Hy)
	}
	n := g.NodeCount()
	if g.Numx < 1 || g.Numy < 1 {
		return fmt.Errorf("%w: %dx%d cells", ErrArrayLengthMismatch, g.Numx, g.Numy)
	}
	if len(g.Coords) != n || len(g.Mass) != n || len(g.Momentum) != n || len(g.Force) != n {
		return fmt.Errorf("%w: grid expects %d nodes (coords=%d mass=%d momentum=%d force=%d)",
			ErrArrayLengthMismatch, n, len(g.Coords), len(g.Mass), len(g.Momentum), len(g.Force))
	}
	return nil
}

// Reset zeroes the nodal fields.
func (g *Grid) Reset() {
	clear(g.Mass)
	clear(g.Momentum)
	clear(g.Force)
}

// Nodal carries the solved nodal kinematics consumed by UpdateParticles.
type Nodal struct {
	Velocity     []tensor.Vec2
	Acceleration []tensor.Vec2
}

// NewNodal allocates zeroed nodal kinematics for n nodes.
func NewNodal(n int) Nodal {
	return Nodal{
		Velocity:     make([]tensor.Vec2, n),
		Acceleration: make([]tensor.Vec2, n),
	}
}

func (nd Nodal) validate(nodeCount int) error {
	if len(nd.Velocity) != nodeCount || len(nd.Acceleration) != nodeCount {
		return fmt.Errorf("%w: nodal velocity=%d acceleration=%d, grid has %d nodes",
			ErrArrayLengthMismatch, len(nd.Velocity), len(nd.Acceleration), nodeCount)
	}
	return nil
}

func validSpacing(h float64) bool {
	return h > 0 && !math.IsInf(h, 0)
}
