package mpm

import (
	"errors"
	"fmt"
)

// Error kinds reported by the kernels.
var (
	// ErrInvalidGridSpacing indicates a non-positive or non-finite cell size.
	ErrInvalidGridSpacing = errors.New("mpm: invalid grid spacing")

	// ErrStencilOutOfBounds indicates a particle whose stencil leaves the grid.
	ErrStencilOutOfBounds = errors.New("mpm: stencil out of grid bounds")

	// ErrDegenerateDeformation indicates det(F) <= 0 (material inversion).
	ErrDegenerateDeformation = errors.New("mpm: degenerate deformation gradient")

	// ErrArrayLengthMismatch indicates per-particle or nodal arrays of the wrong length.
	ErrArrayLengthMismatch = errors.New("mpm: array length mismatch")

	// ErrInvalidTimestep indicates a non-positive or non-finite dt.
	ErrInvalidTimestep = errors.New("mpm: invalid timestep")

	// ErrInvalidBasis indicates basis parameters incompatible with the grid.
	ErrInvalidBasis = errors.New("mpm: invalid basis parameters")
)

// Phase names the kernel that produced an error.
type Phase string

const (
	PhaseP2G Phase = "p2g"
	PhaseG2P Phase = "g2p"
)

// KernelError wraps an error with the body and particle it occurred at.
// Particle is -1 for body- or grid-level failures.
type KernelError struct {
	Phase    Phase
	Body     string
	Particle int
	Wrapped  error
}

func (e *KernelError) Error() string {
	switch {
	case e.Body == "":
		return fmt.Sprintf("%s: %v", e.Phase, e.Wrapped)
	case e.Particle < 0:
		return fmt.Sprintf("%s: body %q: %v", e.Phase, e.Body, e.Wrapped)
	}
	return fmt.Sprintf("%s: body %q particle %d: %v", e.Phase, e.Body, e.Particle, e.Wrapped)
}

func (e *KernelError) Unwrap() error {
	return e.Wrapped
}
