package material

import (
	"fmt"

	"github.com/san-kum/mpmsim/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

func init() {
	Register("linear-elastic", func(p Params) (Model, error) {
		e, err := p.Float("E", 0)
		if err != nil {
			return nil, err
		}
		nu, err := p.Float("nu", 0)
		if err != nil {
			return nil, err
		}
		plane, err := p.String("plane", "strain")
		if err != nil {
			return nil, err
		}
		switch plane {
		case "strain":
			return PlaneStrain(e, nu)
		case "stress":
			return PlaneStress(e, nu)
		}
		return nil, fmt.Errorf("material: plane must be strain or stress, got %q", plane)
	})
}

// LinearElastic applies stress += C·dε.
type LinearElastic struct {
	C tensor.Stiffness
}

// NewLinearElastic checks that C is symmetric positive definite.
func NewLinearElastic(c tensor.Stiffness) (*LinearElastic, error) {
	if err := checkSPD(c); err != nil {
		return nil, err
	}
	return &LinearElastic{C: c}, nil
}

// PlaneStrain builds the isotropic plane-strain stiffness.
func PlaneStrain(e, nu float64) (*LinearElastic, error) {
	if err := checkModuli(e, nu, 0.5); err != nil {
		return nil, err
	}
	k := e / ((1 + nu) * (1 - 2*nu))
	return NewLinearElastic(tensor.Stiffness{
		{k * (1 - nu), k * nu, 0},
		{k * nu, k * (1 - nu), 0},
		{0, 0, k * (1 - 2*nu) / 2},
	})
}

// PlaneStress builds the isotropic plane-stress stiffness.
func PlaneStress(e, nu float64) (*LinearElastic, error) {
	if err := checkModuli(e, nu, 1); err != nil {
		return nil, err
	}
	k := e / (1 - nu*nu)
	return NewLinearElastic(tensor.Stiffness{
		{k, k * nu, 0},
		{k * nu, k, 0},
		{0, 0, k * (1 - nu) / 2},
	})
}

func (m *LinearElastic) Name() string                { return "linear-elastic" }
func (m *LinearElastic) Stiffness() tensor.Stiffness { return m.C }

func (m *LinearElastic) Update(s *State, dStrain tensor.Voigt) error {
	s.Stress = s.Stress.Add(m.C.MulVec(dStrain))
	return nil
}

func checkModuli(e, nu, nuMax float64) error {
	if !(e > 0) {
		return fmt.Errorf("material: Young's modulus must be positive, got %g", e)
	}
	if !(nu > -1 && nu < nuMax) {
		return fmt.Errorf("material: Poisson's ratio %g outside (-1, %g)", nu, nuMax)
	}
	return nil
}

func checkSPD(c tensor.Stiffness) error {
	d := mat.NewDense(3, 3, c.Flat())
	if !mat.EqualApprox(d, d.T(), 1e-12*mat.Norm(d, 1)) {
		return fmt.Errorf("material: stiffness is not symmetric")
	}
	sym := mat.NewSymDense(3, c.Flat())
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return fmt.Errorf("material: stiffness is not positive definite")
	}
	return nil
}
