package mpm

import (
	"fmt"
	"math"

	"github.com/san-kum/mpmsim/internal/material"
	"github.com/san-kum/mpmsim/internal/stencil"
	"github.com/san-kum/mpmsim/internal/tensor"
)

// UpdateParticles advances every particle from the solved nodal velocity and
// acceleration: position by the interpolated grid velocity, velocity by the
// interpolated grid acceleration, then F, volume, strain and stress from the
// velocity gradient L = Σ ∇N_I ⊗ v_I.
//
// A particle is committed only after its whole update succeeds. When an error
// is returned, particles before the failing one (and, with several workers,
// some after it) have already been advanced and the step must be discarded.
// With several workers the material model must be safe for concurrent use.
func UpdateParticles(g *Grid, bodies []*Body, nodal Nodal, dt float64, opts ...Option) error {
	if err := g.Validate(); err != nil {
		return &KernelError{Phase: PhaseG2P, Particle: -1, Wrapped: err}
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return &KernelError{Phase: PhaseG2P, Particle: -1, Wrapped: fmt.Errorf("%w: dt=%g", ErrInvalidTimestep, dt)}
	}
	if err := nodal.validate(g.NodeCount()); err != nil {
		return &KernelError{Phase: PhaseG2P, Particle: -1, Wrapped: err}
	}
	if err := validateBodies(g, bodies, PhaseG2P); err != nil {
		return err
	}

	o := buildOptions(opts)
	for _, b := range bodies {
		err := ParallelFor(b.Len(), o.chunks(b.Len()), func(_, start, end int) error {
			for p := start; p < end; p++ {
				if err := gather(g, b, nodal, dt, p); err != nil {
					return &KernelError{Phase: PhaseG2P, Body: b.Name, Particle: p, Wrapped: err}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func gather(g *Grid, b *Body, nodal Nodal, dt float64, p int) error {
	xp := b.X[p]
	st, ok := stencil.For(b.Basis.Scheme, xp[0], xp[1], g.Hx, g.Hy, g.Numx, g.Numy)
	if !ok {
		return ErrStencilOutOfBounds
	}

	var vSum, aSum tensor.Vec2
	var L tensor.Mat2
	for _, n := range st.Indices() {
		d := xp.Sub(g.Coords[n])
		f, dfx, dfy := b.Basis.Eval(d[0], d[1], g.Hx, g.Hy)

		vi, ai := nodal.Velocity[n], nodal.Acceleration[n]
		vSum[0] += f * vi[0]
		vSum[1] += f * vi[1]
		aSum[0] += f * ai[0]
		aSum[1] += f * ai[1]

		L.XX += dfx * vi[0]
		L.XY += dfy * vi[0]
		L.YX += dfx * vi[1]
		L.YY += dfy * vi[1]
	}

	x := xp.Add(vSum.Scale(dt))
	v := b.V[p].Add(aSum.Scale(dt))

	// new F into locals first; volume is derived from the new F only
	fNew := tensor.Identity().Add(L.Scale(dt)).Mul(b.F[p])
	det := fNew.Det()
	if !(det > 0) || !fNew.IsFinite() {
		return fmt.Errorf("%w: det(F)=%g", ErrDegenerateDeformation, det)
	}

	dStrain := tensor.Voigt{dt * L.XX, dt * L.YY, dt * (L.XY + L.YX)}
	ms := material.State{
		Stress: b.Stress[p],
		Strain: b.Strain[p].Add(dStrain),
		Kappa:  b.Kappa[p],
	}
	if err := b.Material.Update(&ms, dStrain); err != nil {
		return fmt.Errorf("material %s: %w", b.Material.Name(), err)
	}

	b.X[p] = x
	b.V[p] = v
	b.F[p] = fNew
	b.Volume[p] = b.Volume0[p] * det
	b.Strain[p] = ms.Strain
	b.Stress[p] = ms.Stress
	b.Kappa[p] = ms.Kappa
	return nil
}
