package crossing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Kinematics is the dynamics contract every vehicle model must satisfy.
// Transition is pure: it returns the state derivative for (state, input)
// and never mutates its arguments.
type Kinematics interface {
	// Name returns the discriminator used in vehicle files (e.g. "unicycle").
	Name() string
	NumStates() int
	NumInputs() int
	Transition(state, input []float64) []float64
}

// Linearizer is implemented by models with analytic partial derivatives.
// a is NumStates x NumStates (d f / d state), b is NumStates x NumInputs
// (d f / d input). Models without it are differentiated numerically.
type Linearizer interface {
	Jacobians(state, input []float64) (a, b *mat.Dense)
}

// Model discriminators accepted in vehicle files.
const (
	UnicycleModelName = "unicycle"
	BicycleModelName  = "bicycle"
)

// KinematicsParams carries the model-specific constants read from a vehicle file.
type KinematicsParams struct {
	Wheelbase float64 // bicycle only, metres
}

var kinematicsFactories = map[string]func(KinematicsParams) (Kinematics, error){
	UnicycleModelName: func(KinematicsParams) (Kinematics, error) { return Unicycle{}, nil },
	"":                func(KinematicsParams) (Kinematics, error) { return Unicycle{}, nil },
	BicycleModelName: func(p KinematicsParams) (Kinematics, error) {
		if !(p.Wheelbase > 0) || math.IsInf(p.Wheelbase, 0) {
			return nil, NewValidationError("wheelbase", "must be a finite positive number, got %v", p.Wheelbase)
		}
		return Bicycle{Wheelbase: p.Wheelbase}, nil
	},
}

// NewKinematics returns the model registered under name. Empty name selects the unicycle.
func NewKinematics(name string, params KinematicsParams) (Kinematics, error) {
	factory, ok := kinematicsFactories[name]
	if !ok {
		return nil, NewValidationError("model", "unknown kinematics model %q; valid: %s", name, strings.Join(KinematicsNames(), ", "))
	}
	return factory(params)
}

// KinematicsNames returns the sorted list of registered model names.
func KinematicsNames() []string {
	names := make([]string, 0, len(kinematicsFactories))
	for name := range kinematicsFactories {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Unicycle is the planar unicycle: state (x, y, heading), input (heading rate, speed).
type Unicycle struct{}

func (Unicycle) Name() string   { return UnicycleModelName }
func (Unicycle) NumStates() int { return 3 }
func (Unicycle) NumInputs() int { return 2 }

func (Unicycle) Transition(state, input []float64) []float64 {
	heading := state[2]
	omega, speed := input[0], input[1]
	return []float64{
		speed * math.Cos(heading),
		speed * math.Sin(heading),
		omega,
	}
}

func (Unicycle) Jacobians(state, input []float64) (a, b *mat.Dense) {
	heading := state[2]
	speed := input[1]
	sin, cos := math.Sincos(heading)
	a = mat.NewDense(3, 3, []float64{
		0, 0, -speed * sin,
		0, 0, speed * cos,
		0, 0, 0,
	})
	b = mat.NewDense(3, 2, []float64{
		0, cos,
		0, sin,
		1, 0,
	})
	return a, b
}

// Bicycle is the kinematic bicycle referenced at the rear axle:
// state (x, y, heading), input (steering angle, speed).
type Bicycle struct {
	Wheelbase float64
}

func (Bicycle) Name() string   { return BicycleModelName }
func (Bicycle) NumStates() int { return 3 }
func (Bicycle) NumInputs() int { return 2 }

func (m Bicycle) Transition(state, input []float64) []float64 {
	heading := state[2]
	steer, speed := input[0], input[1]
	return []float64{
		speed * math.Cos(heading),
		speed * math.Sin(heading),
		speed * math.Tan(steer) / m.Wheelbase,
	}
}

func (m Bicycle) Jacobians(state, input []float64) (a, b *mat.Dense) {
	heading := state[2]
	steer, speed := input[0], input[1]
	sin, cos := math.Sincos(heading)
	cosSteer := math.Cos(steer)
	a = mat.NewDense(3, 3, []float64{
		0, 0, -speed * sin,
		0, 0, speed * cos,
		0, 0, 0,
	})
	b = mat.NewDense(3, 2, []float64{
		0, cos,
		0, sin,
		speed / (m.Wheelbase * cosSteer * cosSteer), math.Tan(steer) / m.Wheelbase,
	})
	return a, b
}

func (m Bicycle) String() string {
	return fmt.Sprintf("bicycle(L=%g)", m.Wheelbase)
}
