// Package scene seeds particle bodies from simple shapes.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/mpmsim/internal/basis"
	"github.com/san-kum/mpmsim/internal/material"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/tensor"
)

var ErrEmptyShape = errors.New("scene: shape contains no particles")

// Shape is a region of the plane that can be filled with particles.
type Shape interface {
	Contains(p tensor.Vec2) bool
	Bounds() (lo, hi tensor.Vec2)
}

type Rectangle struct {
	Min, Max tensor.Vec2
}

func (r Rectangle) Contains(p tensor.Vec2) bool {
	return p[0] >= r.Min[0] && p[0] <= r.Max[0] && p[1] >= r.Min[1] && p[1] <= r.Max[1]
}

func (r Rectangle) Bounds() (lo, hi tensor.Vec2) { return r.Min, r.Max }

type Disk struct {
	Center tensor.Vec2
	Radius float64
}

func (d Disk) Contains(p tensor.Vec2) bool {
	return p.Sub(d.Center).Norm() <= d.Radius
}

func (d Disk) Bounds() (lo, hi tensor.Vec2) {
	r := tensor.Vec2{d.Radius, d.Radius}
	return d.Center.Sub(r), d.Center.Add(r)
}

// Fill places ppc×ppc particles at the centres of a regular sub-lattice of
// every grid cell and keeps those inside s. Each particle gets the sub-cell
// area as its volume.
func Fill(s Shape, ppc int, hx, hy float64) ([]tensor.Vec2, []float64, error) {
	if ppc < 1 {
		return nil, nil, fmt.Errorf("scene: particles per cell must be positive, got %d", ppc)
	}
	if !(hx > 0) || !(hy > 0) {
		return nil, nil, fmt.Errorf("%w: hx=%g hy=%g", mpm.ErrInvalidGridSpacing, hx, hy)
	}

	dx, dy := hx/float64(ppc), hy/float64(ppc)
	lo, hi := s.Bounds()
	i0, i1 := int(math.Floor(lo[0]/dx)), int(math.Ceil(hi[0]/dx))
	j0, j1 := int(math.Floor(lo[1]/dy)), int(math.Ceil(hi[1]/dy))

	var xs []tensor.Vec2
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			p := tensor.Vec2{(float64(i) + 0.5) * dx, (float64(j) + 0.5) * dy}
			if s.Contains(p) {
				xs = append(xs, p)
			}
		}
	}
	if len(xs) == 0 {
		return nil, nil, ErrEmptyShape
	}

	vols := make([]float64, len(xs))
	for i := range vols {
		vols[i] = dx * dy
	}
	return xs, vols, nil
}

// VelocityField assigns an initial velocity from a particle position.
type VelocityField func(x tensor.Vec2) tensor.Vec2

// Uniform is a constant velocity field.
func Uniform(v tensor.Vec2) VelocityField {
	return func(tensor.Vec2) tensor.Vec2 { return v }
}

// AxialMode is the first longitudinal mode of a bar fixed at x0 and free at
// x0+length: vx = amplitude·sin(π(x−x0)/(2·length)).
func AxialMode(amplitude, x0, length float64) VelocityField {
	return func(x tensor.Vec2) tensor.Vec2 {
		return tensor.Vec2{amplitude * math.Sin(math.Pi*(x[0]-x0)/(2*length)), 0}
	}
}

// BodySpec describes one body to seed.
type BodySpec struct {
	Name     string
	Shape    Shape
	PPC      int
	Scheme   basis.Scheme
	Density  float64
	Velocity VelocityField
	Gravity  tensor.Vec2 // as mpm.Body.Gravity: (0, 9.8) pulls towards −y
	Material material.Model
}

// NewBody fills spec.Shape and returns the body at rest in its reference
// configuration (F = I, Volume = Volume0, mass = density·volume). GIMP
// bodies get a half-width of half the particle spacing.
func NewBody(spec BodySpec, hx, hy float64) (*mpm.Body, error) {
	if !(spec.Density > 0) {
		return nil, fmt.Errorf("scene: body %q: density must be positive, got %g", spec.Name, spec.Density)
	}
	if spec.Material == nil {
		return nil, fmt.Errorf("scene: body %q: no material", spec.Name)
	}
	xs, vols, err := Fill(spec.Shape, spec.PPC, hx, hy)
	if err != nil {
		return nil, fmt.Errorf("scene: body %q: %w", spec.Name, err)
	}

	params := basis.Params{Scheme: spec.Scheme}
	if spec.Scheme == basis.GIMP {
		params.Lp = tensor.Vec2{hx / float64(2*spec.PPC), hy / float64(2*spec.PPC)}
	}
	vel := spec.Velocity
	if vel == nil {
		vel = Uniform(tensor.Vec2{})
	}

	b := mpm.NewBody(spec.Name, len(xs), params, spec.Material, spec.Gravity)
	for i, x := range xs {
		b.X[i] = x
		b.V[i] = vel(x)
		b.Volume[i] = vols[i]
		b.Volume0[i] = vols[i]
		b.Mass[i] = spec.Density * vols[i]
	}
	return b, nil
}
