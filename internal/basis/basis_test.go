package basis

import (
	"math"
	"testing"

	"github.com/san-kum/mpmsim/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

func TestLinear1D(t *testing.T) {
	tests := []struct {
		name      string
		offset, h float64
		f, df     float64
	}{
		{"at node", 0, 1, 1, 0},
		{"left half", -0.25, 1, 0.75, 1},
		{"right half", 0.25, 1, 0.75, -1},
		{"spacing two", 0.5, 2, 0.75, -0.5},
		{"edge of support", 1, 1, 0, 0},
		{"outside", -1.5, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, df := Linear1D(tt.offset, tt.h)
			assert.InDelta(t, tt.f, f, tol, "f")
			assert.InDelta(t, tt.df, df, tol, "df")
		})
	}
}

func TestGIMP1DAtNode(t *testing.T) {
	h, lp := 1.0, 0.25
	f0, df0 := GIMP1D(0, h, lp)

	assert.InDelta(t, 1-lp/(2*h), f0, tol)
	assert.Equal(t, 0.0, df0)

	for _, x := range []float64{-1.2, -0.7, -0.3, -0.1, 0.05, 0.2, 0.5, 0.9, 1.1} {
		f, _ := GIMP1D(x, h, lp)
		assert.LessOrEqual(t, f, f0, "offset %g exceeds the value at the node", x)
	}
}

func TestGIMP1DRegionBoundaries(t *testing.T) {
	h, lp := 1.0, 0.25
	eps := 1e-9

	for _, b := range []float64{lp, h - lp, h + lp} {
		for _, s := range []float64{-1, 1} {
			fl, dfl := GIMP1D(s*(b-eps), h, lp)
			fr, dfr := GIMP1D(s*(b+eps), h, lp)
			assert.InDelta(t, fl, fr, 1e-8, "f jumps at %g", s*b)
			assert.InDelta(t, dfl, dfr, 1e-8, "df jumps at %g", s*b)
		}
	}

	f, df := GIMP1D(h+lp, h, lp)
	assert.Equal(t, 0.0, f)
	assert.Equal(t, 0.0, df)
}

func TestGIMP1DOddGradient(t *testing.T) {
	h, lp := 2.0, 0.4
	for _, x := range []float64{0.1, 0.5, 1.7, 2.2} {
		fp, dfp := GIMP1D(x, h, lp)
		fm, dfm := GIMP1D(-x, h, lp)
		assert.InDelta(t, fp, fm, tol)
		assert.InDelta(t, dfp, -dfm, tol)
	}
}

func TestGIMP1DReducesToLinear(t *testing.T) {
	h := 1.0
	for _, x := range []float64{-0.9, -0.4, 0.3, 0.8} {
		fl, dfl := Linear1D(x, h)
		fg, dfg := GIMP1D(x, h, 1e-9)
		assert.InDelta(t, fl, fg, 1e-6)
		assert.InDelta(t, dfl, dfg, 1e-6)

		fz, dfz := GIMP1D(x, h, 0)
		assert.Equal(t, fl, fz)
		assert.Equal(t, dfl, dfz)
	}
}

func TestGIMP1DDerivative(t *testing.T) {
	h, lp := 1.0, 0.3
	d := 1e-6
	for _, x := range []float64{-1.1, -0.5, -0.1, 0.2, 0.6, 0.95, 1.2} {
		fp, _ := GIMP1D(x+d, h, lp)
		fm, _ := GIMP1D(x-d, h, lp)
		_, df := GIMP1D(x, h, lp)
		assert.InDelta(t, (fp-fm)/(2*d), df, 1e-5, "offset %g", x)
	}
}

func TestEvalTensorProduct(t *testing.T) {
	p := Params{Scheme: GIMP, Lp: tensor.Vec2{0.25, 0.1}}
	dx, dy, hx, hy := 0.3, -0.45, 1.0, 0.5

	fx, gx := GIMP1D(dx, hx, 0.25)
	fy, gy := GIMP1D(dy, hy, 0.1)
	f, dfx, dfy := p.Eval(dx, dy, hx, hy)

	assert.InDelta(t, fx*fy, f, tol)
	assert.InDelta(t, gx*fy, dfx, tol)
	assert.InDelta(t, fx*gy, dfy, tol)
}

func TestPartitionOfUnity(t *testing.T) {
	hx, hy := 0.5, 0.25
	schemes := []Params{
		{Scheme: Linear},
		{Scheme: GIMP, Lp: tensor.Vec2{hx / 4, hy / 4}},
		{Scheme: GIMP, Lp: tensor.Vec2{hx / 2, hy / 2}},
	}
	points := []tensor.Vec2{{1.1, 0.6}, {1.0, 0.5}, {1.49, 0.74}, {1.26, 0.51}}

	for _, p := range schemes {
		for _, x := range points {
			xi := int(math.Floor(x[0] / hx))
			yi := int(math.Floor(x[1] / hy))
			lo, hi := 0, 1
			if p.Scheme == GIMP {
				lo, hi = -1, 2
			}
			sum, gx, gy := 0.0, 0.0, 0.0
			for r := yi + lo; r <= yi+hi; r++ {
				for c := xi + lo; c <= xi+hi; c++ {
					f, dfx, dfy := p.Eval(x[0]-float64(c)*hx, x[1]-float64(r)*hy, hx, hy)
					sum += f
					gx += dfx
					gy += dfy
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "%v at %v", p.Scheme, x)
			assert.InDelta(t, 0.0, gx, 1e-10, "%v at %v", p.Scheme, x)
			assert.InDelta(t, 0.0, gy, 1e-10, "%v at %v", p.Scheme, x)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, Params{Scheme: Linear}.Validate(1, 1))
	require.NoError(t, Params{Scheme: GIMP, Lp: tensor.Vec2{0.5, 0.25}}.Validate(1, 1))

	assert.Error(t, Params{Scheme: GIMP}.Validate(1, 1))
	assert.Error(t, Params{Scheme: GIMP, Lp: tensor.Vec2{0.6, 0.25}}.Validate(1, 1))
	assert.Error(t, Params{Scheme: Scheme(7)}.Validate(1, 1))
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("GIMP")
	require.NoError(t, err)
	assert.Equal(t, GIMP, s)
	assert.Equal(t, 16, s.StencilSize())

	s, err = ParseScheme("linear")
	require.NoError(t, err)
	assert.Equal(t, Linear, s)
	assert.Equal(t, 4, s.StencilSize())

	_, err = ParseScheme("cubic")
	assert.Error(t, err)
}
