package mpm

import (
	"fmt"

	"github.com/san-kum/mpmsim/internal/basis"
	"github.com/san-kum/mpmsim/internal/material"
	"github.com/san-kum/mpmsim/internal/tensor"
)

// Body is a named set of particles sharing one basis scheme, gravity vector
// and material model. Particle state is stored as parallel slices of equal
// length, fixed for the lifetime of the body.
//
// Gravity enters the nodal force as −m·N·g, so a downward pull is stored
// with a positive y component: g = (0, 9.8) accelerates particles towards −y.
type Body struct {
	Name     string
	Basis    basis.Params
	Gravity  tensor.Vec2
	Material material.Model

	X       []tensor.Vec2 // position
	V       []tensor.Vec2 // velocity
	Mass    []float64
	Volume  []float64 // current volume, always Volume0*det(F)
	Volume0 []float64
	F       []tensor.Mat2
	Stress  []tensor.Voigt
	Strain  []tensor.Voigt
	Kappa   []float64 // material history variable
}

// NewBody allocates n particles at rest with F = I and zero mass/volume.
func NewBody(name string, n int, params basis.Params, model material.Model, gravity tensor.Vec2) *Body {
	b := &Body{
		Name:     name,
		Basis:    params,
		Gravity:  gravity,
		Material: model,
		X:        make([]tensor.Vec2, n),
		V:        make([]tensor.Vec2, n),
		Mass:     make([]float64, n),
		Volume:   make([]float64, n),
		Volume0:  make([]float64, n),
		F:        make([]tensor.Mat2, n),
		Stress:   make([]tensor.Voigt, n),
		Strain:   make([]tensor.Voigt, n),
		Kappa:    make([]float64, n),
	}
	for i := range b.F {
		b.F[i] = tensor.Identity()
	}
	return b
}

// Len is the particle count.
func (b *Body) Len() int { return len(b.Mass) }

// Validate checks that every per-particle slice has the same length and that
// a material model is attached.
func (b *Body) Validate() error {
	n := len(b.Mass)
	fields := []struct {
		name string
		n    int
	}{
		{"x", len(b.X)}, {"v", len(b.V)}, {"volume", len(b.Volume)}, {"volume0", len(b.Volume0)},
		{"F", len(b.F)}, {"stress", len(b.Stress)}, {"strain", len(b.Strain)}, {"kappa", len(b.Kappa)},
	}
	for _, f := range fields {
		if f.n != n {
			return fmt.Errorf("%w: %s has %d entries, mass has %d", ErrArrayLengthMismatch, f.name, f.n, n)
		}
	}
	if b.Material == nil {
		return fmt.Errorf("mpm: body %q has no material model", b.Name)
	}
	return nil
}

// Clone returns a deep copy of the particle state. The material model is
// shared.
func (b *Body) Clone() *Body {
	c := *b
	c.X = append([]tensor.Vec2(nil), b.X...)
	c.V = append([]tensor.Vec2(nil), b.V...)
	c.Mass = append([]float64(nil), b.Mass...)
	c.Volume = append([]float64(nil), b.Volume...)
	c.Volume0 = append([]float64(nil), b.Volume0...)
	c.F = append([]tensor.Mat2(nil), b.F...)
	c.Stress = append([]tensor.Voigt(nil), b.Stress...)
	c.Strain = append([]tensor.Voigt(nil), b.Strain...)
	c.Kappa = append([]float64(nil), b.Kappa...)
	return &c
}

// CopyFrom overwrites the particle state of b with that of src. Both bodies
// must have the same particle count.
func (b *Body) CopyFrom(src *Body) {
	copy(b.X, src.X)
	copy(b.V, src.V)
	copy(b.Mass, src.Mass)
	copy(b.Volume, src.Volume)
	copy(b.Volume0, src.Volume0)
	copy(b.F, src.F)
	copy(b.Stress, src.Stress)
	copy(b.Strain, src.Strain)
	copy(b.Kappa, src.Kappa)
}

func validateBodies(g *Grid, bodies []*Body, phase Phase) error {
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			return &KernelError{Phase: phase, Body: b.Name, Particle: -1, Wrapped: err}
		}
		if err := b.Basis.Validate(g.Hx, g.Hy); err != nil {
			return &KernelError{Phase: phase, Body: b.Name, Particle: -1,
				Wrapped: fmt.Errorf("%w: %v", ErrInvalidBasis, err)}
		}
	}
	return nil
}
