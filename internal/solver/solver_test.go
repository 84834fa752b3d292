package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/tensor"
)

func loadedGrid(t *testing.T) *mpm.Grid {
	t.Helper()
	g, err := mpm.NewGrid(1, 1, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	for n := range g.Mass {
		g.Mass[n] = 2
		g.Momentum[n] = tensor.Vec2{4, 4}
		g.Force[n] = tensor.Vec2{-4, 8}
	}
	return g
}

func TestSolveLumpedMass(t *testing.T) {
	g := loadedGrid(t)
	g.Mass[5] = 1e-12

	nodal, err := Solve(g, 0.5, Boundary{}, 1e-9)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	// a = F/m, v = (p + dt F)/m
	want := tensor.Vec2{-2, 4}
	if nodal.Acceleration[0] != want {
		t.Errorf("acceleration = %v, want %v", nodal.Acceleration[0], want)
	}
	wantV := tensor.Vec2{1, 4}
	if nodal.Velocity[0] != wantV {
		t.Errorf("velocity = %v, want %v", nodal.Velocity[0], wantV)
	}

	if nodal.Velocity[5] != (tensor.Vec2{}) || nodal.Acceleration[5] != (tensor.Vec2{}) {
		t.Errorf("node under mass tolerance should be at rest, got v=%v a=%v",
			nodal.Velocity[5], nodal.Acceleration[5])
	}
}

func TestSolveBoundary(t *testing.T) {
	tests := []struct {
		name   string
		bc     Boundary
		node   [2]int
		wantVx bool // component left unconstrained
		wantVy bool
	}{
		{"free edge", Boundary{}, [2]int{0, 1}, true, true},
		{"left roller", Boundary{Left: Roller}, [2]int{0, 1}, false, true},
		{"right roller", Boundary{Right: Roller}, [2]int{3, 2}, false, true},
		{"bottom roller", Boundary{Bottom: Roller}, [2]int{1, 0}, true, false},
		{"top fixed", Boundary{Top: Fixed}, [2]int{2, 3}, false, false},
		{"interior untouched", Box(Fixed), [2]int{1, 2}, true, true},
		{"corner takes both", Boundary{Left: Roller, Bottom: Roller}, [2]int{0, 0}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := loadedGrid(t)
			nodal, err := Solve(g, 0.5, tt.bc, 0)
			if err != nil {
				t.Fatalf("solve failed: %v", err)
			}
			n := g.Index(tt.node[0], tt.node[1])
			v, a := nodal.Velocity[n], nodal.Acceleration[n]

			if got := v[0] != 0; got != tt.wantVx {
				t.Errorf("vx = %g, free=%v", v[0], tt.wantVx)
			}
			if got := v[1] != 0; got != tt.wantVy {
				t.Errorf("vy = %g, free=%v", v[1], tt.wantVy)
			}
			if (v[0] == 0) != (a[0] == 0) || (v[1] == 0) != (a[1] == 0) {
				t.Errorf("acceleration %v inconsistent with velocity %v", a, v)
			}
		})
	}
}

func TestSolveInvalidTimestep(t *testing.T) {
	g := loadedGrid(t)
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Solve(g, dt, Boundary{}, 0); !errors.Is(err, mpm.ErrInvalidTimestep) {
			t.Errorf("dt=%g: expected ErrInvalidTimestep, got %v", dt, err)
		}
	}
}

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		in   string
		want Constraint
		err  bool
	}{
		{"", Free, false},
		{"free", Free, false},
		{"Roller", Roller, false},
		{"slip", Roller, false},
		{" fixed ", Fixed, false},
		{"no-slip", Fixed, false},
		{"glue", Free, true},
	}
	for _, tt := range tests {
		got, err := ParseConstraint(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseConstraint(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseConstraint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	var c Constraint
	if err := c.UnmarshalText([]byte("roller")); err != nil || c != Roller {
		t.Errorf("UnmarshalText: got %v, %v", c, err)
	}
	if b, _ := Fixed.MarshalText(); string(b) != "fixed" {
		t.Errorf("MarshalText = %q", b)
	}
}
