package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/autocross/autocross/crossing"
)

// Integrator is the one-step discretization applied between samples.
// Inputs are held constant over each step.
type Integrator int

const (
	RK4 Integrator = iota
	Euler
)

// Integrator names accepted by ParseIntegrator.
const (
	RK4Name   = "rk4"
	EulerName = "euler"
)

// ParseIntegrator maps a CLI name to an Integrator. Empty selects RK4.
func ParseIntegrator(name string) (Integrator, error) {
	switch name {
	case RK4Name, "":
		return RK4, nil
	case EulerName:
		return Euler, nil
	}
	return RK4, fmt.Errorf("unknown integrator %q; valid: %s, %s", name, RK4Name, EulerName)
}

func (i Integrator) String() string {
	if i == Euler {
		return EulerName
	}
	return RK4Name
}

// Step advances state x by h under input u.
func (i Integrator) Step(k crossing.Kinematics, x, u []float64, h float64) []float64 {
	if i == Euler {
		out := k.Transition(x, u)
		for d := range out {
			out[d] = x[d] + h*out[d]
		}
		return out
	}
	k1 := k.Transition(x, u)
	k2 := k.Transition(axpy(x, h/2, k1), u)
	k3 := k.Transition(axpy(x, h/2, k2), u)
	k4 := k.Transition(axpy(x, h, k3), u)
	out := make([]float64, len(x))
	for d := range out {
		out[d] = x[d] + h/6*(k1[d]+2*k2[d]+2*k3[d]+k4[d])
	}
	return out
}

// StepJacobians returns the partial derivatives of Step with respect to the
// state (ns x ns) and the input (ns x ni), chained through every stage.
func (i Integrator) StepJacobians(k crossing.Kinematics, x, u []float64, h float64) (phiX, phiU *mat.Dense) {
	ns := k.NumStates()
	a, b := modelJacobians(k, x, u)
	if i == Euler {
		phiX = mat.NewDense(ns, ns, nil)
		phiX.Scale(h, a)
		addIdentity(phiX)
		phiU = mat.NewDense(ns, k.NumInputs(), nil)
		phiU.Scale(h, b)
		return phiX, phiU
	}

	stageCoeff := [3]float64{0.5, 0.5, 1}
	weight := [3]float64{2, 2, 1}

	slope := k.Transition(x, u)
	prevKx, prevKu := a, b
	sumX := mat.DenseCopyOf(a)
	sumU := mat.DenseCopyOf(b)
	for j := 0; j < 3; j++ {
		c := stageCoeff[j] * h
		s := axpy(x, c, slope)
		slope = k.Transition(s, u)
		as, bs := modelJacobians(k, s, u)

		// d stage / d x = I + c * d prev / d x
		var sx mat.Dense
		sx.Scale(c, prevKx)
		addIdentity(&sx)
		kx := mat.NewDense(ns, ns, nil)
		kx.Mul(as, &sx)

		var su mat.Dense
		su.Scale(c, prevKu)
		ku := mat.NewDense(ns, k.NumInputs(), nil)
		ku.Mul(as, &su)
		ku.Add(ku, bs)

		var wx, wu mat.Dense
		wx.Scale(weight[j], kx)
		wu.Scale(weight[j], ku)
		sumX.Add(sumX, &wx)
		sumU.Add(sumU, &wu)
		prevKx, prevKu = kx, ku
	}
	sumX.Scale(h/6, sumX)
	addIdentity(sumX)
	sumU.Scale(h/6, sumU)
	return sumX, sumU
}

// Simulate integrates x0 forward under inputs, returning len(inputs)+1 states.
func (i Integrator) Simulate(k crossing.Kinematics, x0 []float64, inputs [][]float64, dt float64) [][]float64 {
	states := make([][]float64, 0, len(inputs)+1)
	states = append(states, append([]float64(nil), x0...))
	for _, u := range inputs {
		states = append(states, i.Step(k, states[len(states)-1], u, dt))
	}
	return states
}

// Simulate integrates with RK4, the discretization Solve uses by default.
func Simulate(k crossing.Kinematics, x0 []float64, inputs [][]float64, dt float64) [][]float64 {
	return RK4.Simulate(k, x0, inputs, dt)
}

// modelJacobians uses the model's analytic derivatives when it has them and
// central differences otherwise.
func modelJacobians(k crossing.Kinematics, x, u []float64) (a, b *mat.Dense) {
	if lin, ok := k.(crossing.Linearizer); ok {
		return lin.Jacobians(x, u)
	}
	ns, ni := k.NumStates(), k.NumInputs()
	settings := &fd.JacobianSettings{Formula: fd.Central}

	a = mat.NewDense(ns, ns, nil)
	fd.Jacobian(a, func(y, s []float64) {
		copy(y, k.Transition(s, u))
	}, x, settings)

	b = mat.NewDense(ns, ni, nil)
	fd.Jacobian(b, func(y, v []float64) {
		copy(y, k.Transition(x, v))
	}, u, settings)
	return a, b
}

func axpy(x []float64, alpha float64, y []float64) []float64 {
	out := make([]float64, len(x))
	for d := range x {
		out[d] = x[d] + alpha*y[d]
	}
	return out
}

func addIdentity(m *mat.Dense) {
	r, _ := m.Dims()
	for d := 0; d < r; d++ {
		m.Set(d, d, m.At(d, d)+1)
	}
}
