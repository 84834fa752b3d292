// Package material implements the stress-update extension point of the
// particle update.
//
// A Model is invoked once per particle per step, after the strain increment
// has been added to the total strain. [LinearElastic] is the hypoelastic
// default; [ExternalDamage] hands the update to an opaque callback so other
// laws can be attached without touching the kinematic update.
package material

import (
	"fmt"
	"sort"

	"github.com/san-kum/mpmsim/internal/tensor"
)

// State is the per-particle material state seen by a Model.
type State struct {
	Stress tensor.Voigt
	Strain tensor.Voigt // total strain, increment already applied
	Kappa  float64      // history variable
}

// Model updates a particle's stress for a strain increment.
type Model interface {
	Name() string
	Stiffness() tensor.Stiffness
	Update(s *State, dStrain tensor.Voigt) error
}

// Params is a flat name→value parameter set.
type Params map[string]any

// Float returns the named parameter or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	}
	return 0, fmt.Errorf("material: parameter %q is %T, want number", name, v)
}

// String returns the named parameter or def when absent.
func (p Params) String(name, def string) (string, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("material: parameter %q is %T, want string", name, v)
	}
	return s, nil
}

// allocators holds the available models; name => allocator
var allocators = map[string]func(Params) (Model, error){}

// Register adds a named model allocator, replacing any previous one.
func Register(name string, alloc func(Params) (Model, error)) {
	allocators[name] = alloc
}

// New returns the model registered under name.
func New(name string, prms Params) (Model, error) {
	alloc, ok := allocators[name]
	if !ok {
		return nil, fmt.Errorf("material: model %q is not available (have %v)", name, Names())
	}
	return alloc(prms)
}

// Names lists registered model names in sorted order.
func Names() []string {
	names := make([]string, 0, len(allocators))
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
