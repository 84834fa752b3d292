// Package tensor holds the small fixed-size value types shared by the MPM
// kernels: 2-vectors, 2×2 deformation gradients, Voigt stress/strain vectors
// and the 3×3 plane stiffness.
package tensor

import "math"

// Vec2 is a 2D vector (x, y).
type Vec2 [2]float64

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v[0] + o[0], v[1] + o[1]}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v[0] - o[0], v[1] - o[1]}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v[0]*o[0] + v[1]*o[1]
}

func (v Vec2) Norm() float64 {
	return math.Hypot(v[0], v[1])
}

func (v Vec2) IsFinite() bool {
	return finite(v[0]) && finite(v[1])
}

// Mat2 is a row-major 2×2 tensor [[XX, XY], [YX, YY]].
type Mat2 struct {
	XX, XY float64
	YX, YY float64
}

// Identity returns the 2×2 identity.
func Identity() Mat2 { return Mat2{XX: 1, YY: 1} }

func (m Mat2) Det() float64 { return m.XX*m.YY - m.XY*m.YX }

// Mul returns m·n.
func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		XX: m.XX*n.XX + m.XY*n.YX,
		XY: m.XX*n.XY + m.XY*n.YY,
		YX: m.YX*n.XX + m.YY*n.YX,
		YY: m.YX*n.XY + m.YY*n.YY,
	}
}

func (m Mat2) Scale(s float64) Mat2 {
	return Mat2{XX: m.XX * s, XY: m.XY * s, YX: m.YX * s, YY: m.YY * s}
}

func (m Mat2) Add(n Mat2) Mat2 {
	return Mat2{XX: m.XX + n.XX, XY: m.XY + n.XY, YX: m.YX + n.YX, YY: m.YY + n.YY}
}

func (m Mat2) IsFinite() bool {
	return finite(m.XX) && finite(m.XY) && finite(m.YX) && finite(m.YY)
}

// Voigt is a symmetric 2D tensor in Voigt order (xx, yy, xy). Strains store
// the engineering shear γxy = 2εxy in the third slot.
type Voigt [3]float64

func (v Voigt) Add(o Voigt) Voigt { return Voigt{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

// Dot is the plain component product used for σ:ε with engineering shear.
func (v Voigt) Dot(o Voigt) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

// Traction returns σ·n for the stress v and the vector n.
func (v Voigt) Traction(n Vec2) Vec2 {
	return Vec2{v[0]*n[0] + v[2]*n[1], v[2]*n[0] + v[1]*n[1]}
}

// Stiffness is the 3×3 plane elasticity matrix C mapping Voigt strain to
// Voigt stress.
type Stiffness [3][3]float64

// MulVec returns C·e.
func (c Stiffness) MulVec(e Voigt) Voigt {
	var out Voigt
	for i := 0; i < 3; i++ {
		out[i] = c[i][0]*e[0] + c[i][1]*e[1] + c[i][2]*e[2]
	}
	return out
}

// Flat returns C in row-major order.
func (c Stiffness) Flat() []float64 {
	out := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		out = append(out, c[i][:]...)
	}
	return out
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
