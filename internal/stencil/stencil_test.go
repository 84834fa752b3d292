package stencil

import (
	"math"
	"testing"

	"github.com/san-kum/mpmsim/internal/basis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearWinding(t *testing.T) {
	s, ok := Linear(0.5, 0.5, 1, 1, 2, 2)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 4, 3}, s.Indices())

	s, ok = Linear(1.25, 0.75, 0.5, 0.5, 4, 3)
	require.True(t, ok)
	// cell (2,1), stride 5
	assert.Equal(t, []int{7, 8, 13, 12}, s.Indices())
}

func TestGIMPBlock(t *testing.T) {
	s, ok := GIMP(2.5, 2.5, 1, 1, 5, 5)
	require.True(t, ok)
	require.Equal(t, 16, s.N)

	stride := 6
	want := make([]int, 0, 16)
	for r := 1; r <= 4; r++ {
		for c := 1; c <= 4; c++ {
			want = append(want, c+stride*r)
		}
	}
	assert.Equal(t, want, s.Indices())
}

func TestOutOfBounds(t *testing.T) {
	tests := []struct {
		name   string
		scheme basis.Scheme
		x, y   float64
		ok     bool
	}{
		{"linear interior", basis.Linear, 1.5, 1.5, true},
		{"linear last cell", basis.Linear, 3.99, 3.99, true},
		{"linear on far edge", basis.Linear, 4.0, 1.0, false},
		{"linear negative", basis.Linear, -0.1, 1.0, false},
		{"gimp interior", basis.GIMP, 1.5, 2.5, true},
		{"gimp first cell", basis.GIMP, 0.5, 2.5, false},
		{"gimp last cell", basis.GIMP, 3.5, 2.5, false},
		{"gimp top", basis.GIMP, 2.5, 3.2, false},
		{"nan", basis.Linear, math.NaN(), 1, false},
		{"inf", basis.GIMP, 1, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := For(tt.scheme, tt.x, tt.y, 1, 1, 4, 4)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.scheme.StencilSize(), s.N)
				for _, n := range s.Indices() {
					assert.True(t, n >= 0 && n < 25, "index %d outside grid", n)
				}
			}
		})
	}
}

func TestMargin(t *testing.T) {
	assert.Equal(t, 0, Margin(basis.Linear))
	assert.Equal(t, 1, Margin(basis.GIMP))
}
