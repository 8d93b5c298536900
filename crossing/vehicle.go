package crossing

import (
	"fmt"
	"math"
)

// Bounds holds per-dimension constraints for a state or input trajectory.
// A nil entry means the dimension is unconstrained in that respect.
type Bounds struct {
	Initial []*float64 `yaml:"initial"` // equality at the first sample
	Final   []*float64 `yaml:"final"`   // equality at the last sample
	Lower   []*float64 `yaml:"lower"`   // lower bound on every sample
	Upper   []*float64 `yaml:"upper"`   // upper bound on every sample
}

// Validate checks that every sequence has exactly dim entries and that
// present values are finite with lower <= upper.
func (b Bounds) Validate(name string, dim int) error {
	seqs := []struct {
		field string
		vals  []*float64
	}{
		{"initial", b.Initial},
		{"final", b.Final},
		{"lower", b.Lower},
		{"upper", b.Upper},
	}
	for _, s := range seqs {
		if len(s.vals) != dim {
			return NewValidationError(name+"."+s.field, "length %d does not match dimension %d", len(s.vals), dim)
		}
		for i, v := range s.vals {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return NewValidationError(fmt.Sprintf("%s.%s[%d]", name, s.field, i), "must be finite, got %v", *v)
			}
		}
	}
	for i := 0; i < dim; i++ {
		if b.Lower[i] != nil && b.Upper[i] != nil && *b.Lower[i] > *b.Upper[i] {
			return NewValidationError(fmt.Sprintf("%s[%d]", name, i), "lower %g exceeds upper %g", *b.Lower[i], *b.Upper[i])
		}
	}
	return nil
}

// Preferences are the passenger cost weights for one vehicle.
type Preferences struct {
	State      []float64 `yaml:"state"` // per-state tracking weight
	Input      []float64 `yaml:"input"` // per-input effort weight
	Time       float64   `yaml:"time"`  // weight on the crossing duration
	WaitFactor float64   `yaml:"-"`     // cost per unit of waiting time
}

// Vehicle is an immutable, validated vehicle model.
type Vehicle struct {
	kinematics  Kinematics
	stateBounds Bounds
	inputBounds Bounds
	preferences Preferences
}

// NewVehicle validates bounds and preferences against the model's dimensions.
func NewVehicle(k Kinematics, stateBounds, inputBounds Bounds, prefs Preferences) (*Vehicle, error) {
	if k == nil {
		return nil, NewValidationError("model", "kinematics must not be nil")
	}
	ns, ni := k.NumStates(), k.NumInputs()
	if err := stateBounds.Validate("state_bounds", ns); err != nil {
		return nil, err
	}
	if err := inputBounds.Validate("input_bounds", ni); err != nil {
		return nil, err
	}
	if len(prefs.State) != ns {
		return nil, NewValidationError("preferences.state", "length %d does not match %d states", len(prefs.State), ns)
	}
	if len(prefs.Input) != ni {
		return nil, NewValidationError("preferences.input", "length %d does not match %d inputs", len(prefs.Input), ni)
	}
	return &Vehicle{
		kinematics:  k,
		stateBounds: cloneBounds(stateBounds),
		inputBounds: cloneBounds(inputBounds),
		preferences: Preferences{
			State:      append([]float64(nil), prefs.State...),
			Input:      append([]float64(nil), prefs.Input...),
			Time:       prefs.Time,
			WaitFactor: prefs.WaitFactor,
		},
	}, nil
}

func (v *Vehicle) Kinematics() Kinematics   { return v.kinematics }
func (v *Vehicle) NumStates() int           { return v.kinematics.NumStates() }
func (v *Vehicle) NumInputs() int           { return v.kinematics.NumInputs() }
func (v *Vehicle) StateBounds() Bounds      { return cloneBounds(v.stateBounds) }
func (v *Vehicle) InputBounds() Bounds      { return cloneBounds(v.inputBounds) }
func (v *Vehicle) Preferences() Preferences { return v.preferences }

// Transition evaluates the model's state derivative.
func (v *Vehicle) Transition(state, input []float64) []float64 {
	return v.kinematics.Transition(state, input)
}

// InitialPosition returns the (x, y) initial state, zero where unconstrained.
func (v *Vehicle) InitialPosition() (x, y float64) {
	if p := v.stateBounds.Initial[0]; p != nil {
		x = *p
	}
	if v.NumStates() > 1 {
		if p := v.stateBounds.Initial[1]; p != nil {
			y = *p
		}
	}
	return x, y
}

func cloneBounds(b Bounds) Bounds {
	return Bounds{
		Initial: cloneOptional(b.Initial),
		Final:   cloneOptional(b.Final),
		Lower:   cloneOptional(b.Lower),
		Upper:   cloneOptional(b.Upper),
	}
}

func cloneOptional(vals []*float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if v != nil {
			c := *v
			out[i] = &c
		}
	}
	return out
}

// Float returns a pointer to v, for building Bounds literals.
func Float(v float64) *float64 { return &v }

// Floats converts a dense slice into fully-present optional entries.
func Floats(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = Float(vals[i])
	}
	return out
}
