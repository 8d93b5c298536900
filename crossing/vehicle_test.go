package crossing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func unicycleBounds() (Bounds, Bounds, Preferences) {
	state := Bounds{
		Initial: Floats(1, 2, 3),
		Final:   Floats(4, 5, 6),
		Upper:   Floats(7, 8, 9),
		Lower:   Floats(-10, -11, -12),
	}
	input := Bounds{
		Initial: Floats(1, 2),
		Final:   Floats(3, 4),
		Upper:   Floats(5, 6),
		Lower:   Floats(-7, -8),
	}
	prefs := Preferences{State: []float64{1, 2, 3}, Input: []float64{4, 5}, Time: 6, WaitFactor: 2}
	return state, input, prefs
}

func TestNewVehicle_ValidBounds_ExposesModel(t *testing.T) {
	state, input, prefs := unicycleBounds()

	v, err := NewVehicle(Unicycle{}, state, input, prefs)
	require.NoError(t, err)

	assert.Equal(t, 3, v.NumStates())
	assert.Equal(t, 2, v.NumInputs())
	assert.Equal(t, state, v.StateBounds())
	assert.Equal(t, input, v.InputBounds())
	assert.Equal(t, prefs, v.Preferences())
}

func TestNewVehicle_LengthMismatch_ReturnsValidationError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s, i *Bounds, p *Preferences)
	}{
		{"state initial short", func(s, _ *Bounds, _ *Preferences) { s.Initial = Floats(1, 2) }},
		{"state final long", func(s, _ *Bounds, _ *Preferences) { s.Final = Floats(1, 2, 3, 4) }},
		{"state upper empty", func(s, _ *Bounds, _ *Preferences) { s.Upper = nil }},
		{"state lower short", func(s, _ *Bounds, _ *Preferences) { s.Lower = Floats(0) }},
		{"input initial long", func(_, i *Bounds, _ *Preferences) { i.Initial = Floats(1, 2, 3) }},
		{"input lower short", func(_, i *Bounds, _ *Preferences) { i.Lower = Floats(1) }},
		{"state prefs short", func(_, _ *Bounds, p *Preferences) { p.State = []float64{1} }},
		{"input prefs long", func(_, _ *Bounds, p *Preferences) { p.Input = []float64{1, 2, 3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, input, prefs := unicycleBounds()
			tt.mutate(&state, &input, &prefs)

			_, err := NewVehicle(Unicycle{}, state, input, prefs)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "want ErrValidation, got %v", err)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestNewVehicle_AbsentEntries_Accepted(t *testing.T) {
	state := Bounds{
		Initial: []*float64{Float(0), Float(0), nil},
		Final:   []*float64{nil, nil, nil},
		Lower:   []*float64{nil, Float(-1), nil},
		Upper:   []*float64{Float(20), nil, nil},
	}
	input := Bounds{
		Initial: []*float64{nil, nil},
		Final:   []*float64{nil, nil},
		Lower:   []*float64{nil, nil},
		Upper:   []*float64{nil, nil},
	}
	_, err := NewVehicle(Unicycle{}, state, input, Preferences{State: []float64{1, 1, 0}, Input: []float64{1, 1}})
	assert.NoError(t, err)
}

func TestNewVehicle_LowerAboveUpper_Rejected(t *testing.T) {
	state, input, prefs := unicycleBounds()
	state.Lower[0] = Float(100)

	_, err := NewVehicle(Unicycle{}, state, input, prefs)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewVehicle_NilKinematics_Rejected(t *testing.T) {
	state, input, prefs := unicycleBounds()
	_, err := NewVehicle(nil, state, input, prefs)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewVehicle_CopiesInputs(t *testing.T) {
	// GIVEN a vehicle built from caller-owned slices
	state, input, prefs := unicycleBounds()
	v, err := NewVehicle(Unicycle{}, state, input, prefs)
	require.NoError(t, err)

	// WHEN the caller mutates its slices afterwards
	*state.Initial[0] = 99
	prefs.State[0] = 99

	// THEN the vehicle is unaffected
	assert.Equal(t, 1.0, *v.StateBounds().Initial[0])
	assert.Equal(t, 1.0, v.Preferences().State[0])
}

func TestUnicycle_Transition(t *testing.T) {
	u := Unicycle{}

	got := u.Transition([]float64{0, 0, 0}, []float64{0, 1})
	assert.Equal(t, []float64{1, 0, 0}, got)

	// Zero input gives zero derivative at any state
	for _, s := range [][]float64{{0, 0, 0}, {3, -4, 1.2}, {-7, 2, -math.Pi}} {
		assert.Equal(t, []float64{0, 0, 0}, u.Transition(s, []float64{0, 0}), "state %v", s)
	}

	// Heading rate input sets the heading derivative directly
	got = u.Transition([]float64{1, 1, math.Pi / 2}, []float64{0.5, 2})
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 2, got[1], 1e-12)
	assert.InDelta(t, 0.5, got[2], 1e-12)
}

func TestKinematics_AnalyticJacobiansMatchFiniteDifferences(t *testing.T) {
	models := []Kinematics{Unicycle{}, Bicycle{Wheelbase: 2.5}}
	state := []float64{1.5, -0.3, 0.7}
	input := []float64{0.2, 3.1}

	for _, k := range models {
		t.Run(k.Name(), func(t *testing.T) {
			lin, ok := k.(Linearizer)
			require.True(t, ok)
			a, b := lin.Jacobians(state, input)

			ns, ni := k.NumStates(), k.NumInputs()
			wantA := mat.NewDense(ns, ns, nil)
			fd.Jacobian(wantA, func(y, x []float64) { copy(y, k.Transition(x, input)) }, state, &fd.JacobianSettings{Formula: fd.Central})
			wantB := mat.NewDense(ns, ni, nil)
			fd.Jacobian(wantB, func(y, u []float64) { copy(y, k.Transition(state, u)) }, input, &fd.JacobianSettings{Formula: fd.Central})

			assert.True(t, mat.EqualApprox(a, wantA, 1e-6), "A mismatch:\n%v\n%v", mat.Formatted(a), mat.Formatted(wantA))
			assert.True(t, mat.EqualApprox(b, wantB, 1e-6), "B mismatch:\n%v\n%v", mat.Formatted(b), mat.Formatted(wantB))
		})
	}
}

func TestNewKinematics_Registry(t *testing.T) {
	k, err := NewKinematics("", KinematicsParams{})
	require.NoError(t, err)
	assert.Equal(t, UnicycleModelName, k.Name())

	k, err = NewKinematics(BicycleModelName, KinematicsParams{Wheelbase: 2})
	require.NoError(t, err)
	assert.Equal(t, BicycleModelName, k.Name())

	_, err = NewKinematics(BicycleModelName, KinematicsParams{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewKinematics("hovercraft", KinematicsParams{})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, []string{"bicycle", "unicycle"}, KinematicsNames())
}
