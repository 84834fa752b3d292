// Package solver advances nodal momentum with the lumped-mass explicit
// update and applies velocity constraints on the grid edges.
package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// Constraint restricts the nodal velocity on one grid edge.
type Constraint int

const (
	Free   Constraint = iota
	Roller            // normal component zero
	Fixed             // both components zero
)

func (c Constraint) String() string {
	switch c {
	case Free:
		return "free"
	case Roller:
		return "roller"
	case Fixed:
		return "fixed"
	}
	return fmt.Sprintf("constraint(%d)", int(c))
}

// ParseConstraint accepts "free", "roller", "slip" and "fixed".
func ParseConstraint(s string) (Constraint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return Free, nil
	case "roller", "slip":
		return Roller, nil
	case "fixed", "noslip", "no-slip":
		return Fixed, nil
	}
	return Free, fmt.Errorf("solver: unknown constraint %q", s)
}

func (c Constraint) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Constraint) UnmarshalText(b []byte) error {
	v, err := ParseConstraint(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Boundary holds one constraint per grid edge.
type Boundary struct {
	Left, Right, Bottom, Top Constraint
}

// Box is a boundary with every edge set to c.
func Box(c Constraint) Boundary {
	return Boundary{Left: c, Right: c, Bottom: c, Top: c}
}

// Solve computes nodal velocity and acceleration from the P2G fields of g.
// Nodes with mass at or below massTol get zero kinematics.
func Solve(g *mpm.Grid, dt float64, bc Boundary, massTol float64) (mpm.Nodal, error) {
	if err := g.Validate(); err != nil {
		return mpm.Nodal{}, err
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return mpm.Nodal{}, fmt.Errorf("%w: dt=%g", mpm.ErrInvalidTimestep, dt)
	}
	if massTol < 0 {
		massTol = 0
	}

	nodal := mpm.NewNodal(g.NodeCount())
	for n, m := range g.Mass {
		if m <= massTol {
			continue
		}
		f, p := g.Force[n], g.Momentum[n]
		nodal.Acceleration[n] = f.Scale(1 / m)
		nodal.Velocity[n] = p.Add(f.Scale(dt)).Scale(1 / m)
	}

	applyBoundary(g, bc, nodal)
	return nodal, nil
}

// applyBoundary zeroes the constrained velocity and acceleration components of
// the edge nodes. Corner nodes take the union of both edges' constraints.
func applyBoundary(g *mpm.Grid, bc Boundary, nodal mpm.Nodal) {
	for row := 0; row <= g.Numy; row++ {
		constrain(nodal, g.Index(0, row), bc.Left, 0)
		constrain(nodal, g.Index(g.Numx, row), bc.Right, 0)
	}
	for col := 0; col <= g.Numx; col++ {
		constrain(nodal, g.Index(col, 0), bc.Bottom, 1)
		constrain(nodal, g.Index(col, g.Numy), bc.Top, 1)
	}
}

func constrain(nodal mpm.Nodal, n int, c Constraint, normal int) {
	switch c {
	case Roller:
		zero(nodal, n, normal)
	case Fixed:
		zero(nodal, n, 0)
		zero(nodal, n, 1)
	}
}

func zero(nodal mpm.Nodal, n, axis int) {
	nodal.Velocity[n][axis] = 0
	nodal.Acceleration[n][axis] = 0
}
