// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea program that advances a [sim.Simulator] a few steps
// per frame and draws every particle on a braille [Canvas], next to a panel
// of energies and an energy history chart.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial particles
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	?     - Show help
package viz
