package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/tensor"
)

func TotalMass(bodies []*mpm.Body) float64 {
	m := 0.0
	for _, b := range bodies {
		m += floats.Sum(b.Mass)
	}
	return m
}

func Momentum(bodies []*mpm.Body) tensor.Vec2 {
	var p tensor.Vec2
	for _, b := range bodies {
		for i, v := range b.V {
			p = p.Add(v.Scale(b.Mass[i]))
		}
	}
	return p
}

func KineticEnergy(bodies []*mpm.Body) float64 {
	e := 0.0
	for _, b := range bodies {
		for i, v := range b.V {
			e += 0.5 * b.Mass[i] * v.Dot(v)
		}
	}
	return e
}

// StrainEnergy is ½ Σ V σ:ε with the Voigt shear strain taken as engineering
// strain.
func StrainEnergy(bodies []*mpm.Body) float64 {
	e := 0.0
	for _, b := range bodies {
		for i, s := range b.Stress {
			e += 0.5 * b.Volume[i] * s.Dot(b.Strain[i])
		}
	}
	return e
}

// VolumeRatio is Σ V / Σ V0 over all particles.
func VolumeRatio(bodies []*mpm.Body) float64 {
	v, v0 := 0.0, 0.0
	for _, b := range bodies {
		v += floats.Sum(b.Volume)
		v0 += floats.Sum(b.Volume0)
	}
	if v0 == 0 {
		return 0
	}
	return v / v0
}

// MassError is |Σ nodal mass − Σ particle mass| after a P2G transfer.
func MassError(g *mpm.Grid, bodies []*mpm.Body) float64 {
	return math.Abs(floats.Sum(g.Mass) - TotalMass(bodies))
}

// Centroid is the mass-weighted mean position of b.
func Centroid(b *mpm.Body) tensor.Vec2 {
	m := floats.Sum(b.Mass)
	if m == 0 {
		return tensor.Vec2{}
	}
	var c tensor.Vec2
	for i, x := range b.X {
		c = c.Add(x.Scale(b.Mass[i]))
	}
	return c.Scale(1 / m)
}

// Probe reports the latest value of a scalar function of the frame.
type Probe struct {
	name  string
	fn    func(sim.Frame) float64
	value float64
}

func NewProbe(name string, fn func(sim.Frame) float64) *Probe {
	return &Probe{name: name, fn: fn}
}

func (p *Probe) Name() string        { return p.name }
func (p *Probe) Observe(f sim.Frame) { p.value = p.fn(f) }
func (p *Probe) Value() float64      { return p.value }
func (p *Probe) Reset()              { p.value = 0 }

func NewKineticEnergy() *Probe {
	return NewProbe("kinetic_energy", func(f sim.Frame) float64 { return KineticEnergy(f.Bodies) })
}

func NewStrainEnergy() *Probe {
	return NewProbe("strain_energy", func(f sim.Frame) float64 { return StrainEnergy(f.Bodies) })
}

func NewTotalMass() *Probe {
	return NewProbe("total_mass", func(f sim.Frame) float64 { return TotalMass(f.Bodies) })
}

func NewMomentum(axis int) *Probe {
	name := "momentum_x"
	if axis == 1 {
		name = "momentum_y"
	}
	return NewProbe(name, func(f sim.Frame) float64 { return Momentum(f.Bodies)[axis] })
}

func NewVolumeRatio() *Probe {
	return NewProbe("volume_ratio", func(f sim.Frame) float64 { return VolumeRatio(f.Bodies) })
}

// NewCentroid tracks one coordinate of the named body's centroid. The probe
// reads zero while no body has that name.
func NewCentroid(body string, axis int) *Probe {
	name := "centroid_x"
	if axis == 1 {
		name = "centroid_y"
	}
	return NewProbe(name+":"+body, func(f sim.Frame) float64 {
		for _, b := range f.Bodies {
			if b.Name == body {
				return Centroid(b)[axis]
			}
		}
		return 0
	})
}

// EnergyDrift is the largest relative deviation of kinetic plus strain
// energy from its first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := KineticEnergy(f.Bodies) + StrainEnergy(f.Bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Standard returns the metrics recorded for every run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewStrainEnergy(),
		NewTotalMass(),
		NewMomentum(0),
		NewMomentum(1),
		NewVolumeRatio(),
		NewEnergyDrift(),
	}
}
