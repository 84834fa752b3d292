package mpm

import (
	"github.com/san-kum/mpmsim/internal/stencil"
	"github.com/san-kum/mpmsim/internal/tensor"
)

// nodalSums is a destination for P2G accumulation: either the grid itself or
// a private per-worker buffer.
type nodalSums struct {
	mass     []float64
	momentum []tensor.Vec2
	force    []tensor.Vec2
}

func newNodalSums(n int) nodalSums {
	return nodalSums{
		mass:     make([]float64, n),
		momentum: make([]tensor.Vec2, n),
		force:    make([]tensor.Vec2, n),
	}
}

func (s nodalSums) addTo(g *Grid) {
	for i := range s.mass {
		g.Mass[i] += s.mass[i]
		g.Momentum[i] = g.Momentum[i].Add(s.momentum[i])
		g.Force[i] = g.Force[i].Add(s.force[i])
	}
}

// ParticlesToGrid resets the nodal fields of g and accumulates the mass,
// momentum and internal plus body force of every particle of every body.
//
// Nodal force at node I receives -V_p (σ_p·∇N_I) - M_p N_I g from each
// particle p. Nothing is written to the grid when validation fails; when a
// particle's stencil leaves the grid the nodal fields are incomplete and the
// step must be discarded.
func ParticlesToGrid(g *Grid, bodies []*Body, opts ...Option) error {
	if err := g.Validate(); err != nil {
		return &KernelError{Phase: PhaseP2G, Particle: -1, Wrapped: err}
	}
	if err := validateBodies(g, bodies, PhaseP2G); err != nil {
		return err
	}

	o := buildOptions(opts)
	g.Reset()

	workers := 1
	for _, b := range bodies {
		if w := o.chunks(b.Len()); w > workers {
			workers = w
		}
	}

	if workers == 1 {
		dst := nodalSums{mass: g.Mass, momentum: g.Momentum, force: g.Force}
		for _, b := range bodies {
			if err := scatterRange(g, b, 0, b.Len(), dst); err != nil {
				return err
			}
		}
		return nil
	}

	bufs := make([]nodalSums, workers)
	for i := range bufs {
		bufs[i] = newNodalSums(g.NodeCount())
	}
	for _, b := range bodies {
		err := ParallelFor(b.Len(), o.chunks(b.Len()), func(w, start, end int) error {
			return scatterRange(g, b, start, end, bufs[w])
		})
		if err != nil {
			return err
		}
	}
	for _, buf := range bufs {
		buf.addTo(g)
	}
	return nil
}

func scatterRange(g *Grid, b *Body, start, end int, dst nodalSums) error {
	for p := start; p < end; p++ {
		if err := scatter(g, b, p, dst); err != nil {
			return &KernelError{Phase: PhaseP2G, Body: b.Name, Particle: p, Wrapped: err}
		}
	}
	return nil
}

func scatter(g *Grid, b *Body, p int, dst nodalSums) error {
	xp := b.X[p]
	st, ok := stencil.For(b.Basis.Scheme, xp[0], xp[1], g.Hx, g.Hy, g.Numx, g.Numy)
	if !ok {
		return ErrStencilOutOfBounds
	}

	mp, vol := b.Mass[p], b.Volume[p]
	vp, sig, grav := b.V[p], b.Stress[p], b.Gravity

	for _, n := range st.Indices() {
		d := xp.Sub(g.Coords[n])
		f, dfx, dfy := b.Basis.Eval(d[0], d[1], g.Hx, g.Hy)

		fm := f * mp
		dst.mass[n] += fm
		dst.momentum[n][0] += fm * vp[0]
		dst.momentum[n][1] += fm * vp[1]

		t := sig.Traction(tensor.Vec2{dfx, dfy})
		dst.force[n][0] += -vol*t[0] - fm*grav[0]
		dst.force[n][1] += -vol*t[1] - fm*grav[1]
	}
	return nil
}
