package material

import (
	"errors"

	"github.com/san-kum/mpmsim/internal/tensor"
)

// DamageFunc maps the total strain and history variable to a new stress and
// history variable.
type DamageFunc func(strain tensor.Voigt, kappa float64) (tensor.Voigt, float64, error)

// ExternalDamage delegates the stress update to an opaque law. C is the
// initial (undamaged) stiffness reported to callers.
type ExternalDamage struct {
	Label string
	C     tensor.Stiffness
	Fn    DamageFunc
}

func (m *ExternalDamage) Name() string {
	if m.Label == "" {
		return "external-damage"
	}
	return m.Label
}

func (m *ExternalDamage) Stiffness() tensor.Stiffness { return m.C }

func (m *ExternalDamage) Update(s *State, _ tensor.Voigt) error {
	if m.Fn == nil {
		return errors.New("material: external damage model has no update function")
	}
	stress, kappa, err := m.Fn(s.Strain, s.Kappa)
	if err != nil {
		return err
	}
	s.Stress, s.Kappa = stress, kappa
	return nil
}
