package basis

import (
	"fmt"
	"math"

	"github.com/san-kum/mpmsim/internal/tensor"
)

// Linear1D evaluates the tent function of half-support h.
func Linear1D(offset, h float64) (f, df float64) {
	r := math.Abs(offset)
	if r >= h {
		return 0, 0
	}
	return 1 - r/h, -sign(offset) / h
}

// GIMP1D evaluates the GIMP basis for a particle of half-width lp.
// Each region is [lower, upper) so a boundary offset lands in exactly one.
func GIMP1D(offset, h, lp float64) (f, df float64) {
	if lp <= 0 {
		return Linear1D(offset, h)
	}
	r := math.Abs(offset)
	s := sign(offset)
	switch {
	case r < lp:
		return 1 - (r*r+lp*lp)/(2*h*lp), -offset / (h * lp)
	case r < h-lp:
		return 1 - r/h, -s / h
	case r < h+lp:
		d := h + lp - r
		return d * d / (4 * h * lp), -s * d / (2 * h * lp)
	}
	return 0, 0
}

// Params is a scheme tag plus the particle half-widths GIMP needs.
type Params struct {
	Scheme Scheme
	Lp     tensor.Vec2
}

// Validate checks the half-widths against the grid spacing. GIMP requires
// 0 < lp <= h/2 on each axis so the 16-node stencil covers the support.
func (p Params) Validate(hx, hy float64) error {
	switch p.Scheme {
	case Linear:
		return nil
	case GIMP:
		for i, h := range [2]float64{hx, hy} {
			lp := p.Lp[i]
			if !(lp > 0) || lp > h/2 {
				return fmt.Errorf("gimp half-width lp[%d]=%g must be in (0, %g]", i, lp, h/2)
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported scheme %v", p.Scheme)
}

// Eval returns the 2D weight and gradient as the tensor product of two 1D
// evaluations.
func (p Params) Eval(dx, dy, hx, hy float64) (f, dfx, dfy float64) {
	var fx, gx, fy, gy float64
	if p.Scheme == GIMP {
		fx, gx = GIMP1D(dx, hx, p.Lp[0])
		fy, gy = GIMP1D(dy, hy, p.Lp[1])
	} else {
		fx, gx = Linear1D(dx, hx)
		fy, gy = Linear1D(dy, hy)
	}
	return fx * fy, gx * fy, fx * gy
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
