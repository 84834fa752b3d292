// Package stencil computes the grid nodes a particle interacts with.
//
// Node (col, row) has linear index col + (numx+1)*row. Every function
// reports ok=false instead of producing an index outside the grid, so
// callers never read or write past the nodal arrays.
package stencil

import (
	"math"

	"github.com/san-kum/mpmsim/internal/basis"
)

// MaxNodes is the size of the largest stencil (GIMP).
const MaxNodes = 16

// Stencil is a fixed-capacity list of node indices; only Nodes[:N] is valid.
type Stencil struct {
	Nodes [MaxNodes]int
	N     int
}

// Indices returns the valid part of the stencil.
func (s *Stencil) Indices() []int { return s.Nodes[:s.N] }

// Cell returns the indices of the cell containing (x, y).
func Cell(x, y, hx, hy float64) (xi, yi int, ok bool) {
	cx, cy := math.Floor(x/hx), math.Floor(y/hy)
	if math.IsNaN(cx) || math.IsNaN(cy) || math.IsInf(cx, 0) || math.IsInf(cy, 0) {
		return 0, 0, false
	}
	if math.Abs(cx) > math.MaxInt32 || math.Abs(cy) > math.MaxInt32 {
		return 0, 0, false
	}
	return int(cx), int(cy), true
}

// Linear returns the four corners of the particle's cell in the order
// (xi,yi), (xi+1,yi), (xi+1,yi+1), (xi,yi+1).
func Linear(x, y, hx, hy float64, numx, numy int) (Stencil, bool) {
	var s Stencil
	xi, yi, ok := Cell(x, y, hx, hy)
	if !ok || xi < 0 || yi < 0 || xi+1 > numx || yi+1 > numy {
		return s, false
	}
	stride := numx + 1
	n1 := xi + stride*yi
	n4 := xi + stride*(yi+1)
	s.Nodes[0] = n1
	s.Nodes[1] = n1 + 1
	s.Nodes[2] = n4 + 1
	s.Nodes[3] = n4
	s.N = 4
	return s, true
}

// GIMP returns the 4×4 node block spanning rows yi-1..yi+2 and columns
// xi-1..xi+2, row by row.
func GIMP(x, y, hx, hy float64, numx, numy int) (Stencil, bool) {
	var s Stencil
	xi, yi, ok := Cell(x, y, hx, hy)
	if !ok || xi-1 < 0 || yi-1 < 0 || xi+2 > numx || yi+2 > numy {
		return s, false
	}
	stride := numx + 1
	for r := 0; r < 4; r++ {
		base := xi - 1 + stride*(yi-1+r)
		for c := 0; c < 4; c++ {
			s.Nodes[s.N] = base + c
			s.N++
		}
	}
	return s, true
}

// For dispatches on the scheme tag.
func For(scheme basis.Scheme, x, y, hx, hy float64, numx, numy int) (Stencil, bool) {
	if scheme == basis.GIMP {
		return GIMP(x, y, hx, hy, numx, numy)
	}
	return Linear(x, y, hx, hy, numx, numy)
}

// Margin is the number of cells a particle must keep from the grid edge for
// its stencil to fit: margin·h ≤ x < (num − margin)·h on each axis.
func Margin(scheme basis.Scheme) int {
	if scheme == basis.GIMP {
		return 1
	}
	return 0
}
