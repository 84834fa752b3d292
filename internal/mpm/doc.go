// Package mpm implements the particle/grid transfer kernels of an explicit
// 2D Material Point Method step.
//
// The package defines the data exchanged with a time-stepping driver and the
// two kernels that run inside one step:
//
//   - [Grid]: node coordinates plus the nodal mass, momentum and force fields
//   - [Body]: structure-of-arrays particle storage sharing one basis scheme,
//     gravity vector and material model
//   - [ParticlesToGrid]: scatters particle mass, momentum and forces (P2G)
//   - [UpdateParticles]: gathers solved nodal velocity and acceleration back
//     onto the particles and advances F, volume, strain and stress (G2P)
//
// A driver step looks like:
//
//	if err := mpm.ParticlesToGrid(g, bodies); err != nil {
//	    return err
//	}
//	nodal := solve(g, dt) // external: nodal equations of motion
//	if err := mpm.UpdateParticles(g, bodies, nodal, dt); err != nil {
//	    return err
//	}
//
// # Errors
//
// Every failure is fatal to the current step. Errors are reported as
// [*KernelError] values wrapping one of the package sentinels, so callers
// can test with errors.Is.
//
// # Thread Safety
//
// Both kernels may split work across goroutines with [WithWorkers]. The grid
// and bodies must not be touched by anyone else while a kernel runs.
package mpm
