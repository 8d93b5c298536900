// Package trajectory computes the minimum cost of driving a vehicle through
// the intersection in a fixed time T.
//
// The continuous optimal-control problem is transcribed directly: states at
// N+1 samples and inputs at N samples become decision variables, the
// dynamics become one defect constraint per interval, and the whole program
// is handed to an nlp.Solver.
package trajectory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/nlp"
	"github.com/autocross/autocross/crossing/reference"
)

// Trajectory is a solved state and input sequence.
type Trajectory struct {
	States [][]float64 // N+1 rows
	Inputs [][]float64 // N rows
	DeltaT float64
}

// Samples returns N, the number of intervals.
func (t *Trajectory) Samples() int { return len(t.Inputs) }

// Result is the outcome of a successful Solve.
type Result struct {
	Cost       float64
	Trajectory *Trajectory
	Iterations int // inner NLP iterations
}

// Solver transcribes and solves trajectory problems. The zero value uses
// RK4 defects and the default augmented Lagrangian NLP solver.
type Solver struct {
	NLP        nlp.Solver
	Integrator Integrator
}

// Solve minimizes the vehicle's crossing cost over a horizon of duration T.
// ref, when non-nil, must have N+1 samples and makes the first two state
// components track it. Non-convergence is reported as *crossing.SolveError.
func (s *Solver) Solve(ctx context.Context, v *crossing.Vehicle, duration float64, h Horizon, ref *reference.Path) (*Result, error) {
	if v == nil {
		return nil, crossing.NewValidationError("vehicle", "must not be nil")
	}
	n, dt, err := h.Resolve(duration)
	if err != nil {
		return nil, err
	}
	lay := layout{ns: v.NumStates(), ni: v.NumInputs(), n: n}
	if ref != nil {
		if ref.Len() != n+1 || len(ref.Y) != n+1 {
			return nil, crossing.NewValidationError("reference", "has %d samples, want %d", ref.Len(), n+1)
		}
		if lay.ns < 2 {
			return nil, crossing.NewValidationError("reference", "model has %d states, need at least 2 positions", lay.ns)
		}
	}

	prefs := v.Preferences()
	obj := &objective{
		lay:      lay,
		wState:   prefs.State,
		wInput:   prefs.Input,
		ref:      ref,
		timeCost: prefs.Time * duration,
	}
	defects := &defectConstraints{
		lay:        lay,
		model:      v.Kinematics(),
		integrator: s.Integrator,
		dt:         dt,
	}
	fixed, bounds := boundConstraints(lay, v.StateBounds(), v.InputBounds())

	problem := &nlp.Problem{
		Dim:        lay.dim(),
		Objective:  obj.value,
		Gradient:   obj.gradient,
		Equality:   nlp.Stack(defects, fixed),
		Inequality: bounds,
	}
	x0 := initialGuess(lay, v.StateBounds(), v.InputBounds(), ref)

	sol, err := s.solver().Solve(ctx, problem, x0)
	if err != nil {
		if errors.Is(err, crossing.ErrNoSolution) {
			return nil, &crossing.SolveError{Duration: duration, Samples: n, Err: err}
		}
		return nil, fmt.Errorf("trajectory: T=%g: %w", duration, err)
	}
	if math.IsNaN(sol.Objective) || math.IsInf(sol.Objective, 0) {
		return nil, &crossing.SolveError{Duration: duration, Samples: n, Err: fmt.Errorf("non-finite cost %v: %w", sol.Objective, crossing.ErrNoSolution)}
	}
	logrus.Debugf("trajectory: T=%g N=%d dt=%g cost=%.6g violation=%.2g iterations=%d/%d",
		duration, n, dt, sol.Objective, sol.Violation, sol.OuterIterations, sol.InnerIterations)

	return &Result{
		Cost:       sol.Objective,
		Trajectory: lay.unpack(sol.X, dt),
		Iterations: sol.InnerIterations,
	}, nil
}

func (s *Solver) solver() nlp.Solver {
	if s.NLP != nil {
		return s.NLP
	}
	return &nlp.AugmentedLagrangian{}
}

// layout indexes the packed decision vector: states (N+1) x ns, then inputs N x ni.
type layout struct {
	ns, ni, n int
}

func (l layout) dim() int           { return (l.n+1)*l.ns + l.n*l.ni }
func (l layout) state(k, d int) int { return k*l.ns + d }
func (l layout) input(k, j int) int { return (l.n+1)*l.ns + k*l.ni + j }

func (l layout) stateAt(z []float64, k int) []float64 {
	return z[l.state(k, 0) : l.state(k, 0)+l.ns]
}

func (l layout) inputAt(z []float64, k int) []float64 {
	return z[l.input(k, 0) : l.input(k, 0)+l.ni]
}

func (l layout) unpack(z []float64, dt float64) *Trajectory {
	tr := &Trajectory{
		States: make([][]float64, l.n+1),
		Inputs: make([][]float64, l.n),
		DeltaT: dt,
	}
	for k := range tr.States {
		tr.States[k] = append([]float64(nil), l.stateAt(z, k)...)
	}
	for k := range tr.Inputs {
		tr.Inputs[k] = append([]float64(nil), l.inputAt(z, k)...)
	}
	return tr
}

// objective is Time*T + Σ w_state·err² + Σ w_input·u².
type objective struct {
	lay      layout
	wState   []float64
	wInput   []float64
	ref      *reference.Path
	timeCost float64
}

// stateError returns the tracked error of state component d at sample k, and
// whether that component is tracked at all.
func (o *objective) stateError(z []float64, k, d int) (float64, bool) {
	x := z[o.lay.state(k, d)]
	if o.ref == nil {
		return x, true
	}
	switch d {
	case 0:
		return x - o.ref.X[k], true
	case 1:
		return x - o.ref.Y[k], true
	}
	return 0, false
}

func (o *objective) value(z []float64) float64 {
	f := o.timeCost
	for k := 0; k <= o.lay.n; k++ {
		for d, w := range o.wState {
			if e, ok := o.stateError(z, k, d); ok {
				f += w * e * e
			}
		}
	}
	for k := 0; k < o.lay.n; k++ {
		for j, w := range o.wInput {
			u := z[o.lay.input(k, j)]
			f += w * u * u
		}
	}
	return f
}

func (o *objective) gradient(grad, z []float64) {
	for i := range grad {
		grad[i] = 0
	}
	for k := 0; k <= o.lay.n; k++ {
		for d, w := range o.wState {
			if e, ok := o.stateError(z, k, d); ok {
				grad[o.lay.state(k, d)] = 2 * w * e
			}
		}
	}
	for k := 0; k < o.lay.n; k++ {
		for j, w := range o.wInput {
			i := o.lay.input(k, j)
			grad[i] = 2 * w * z[i]
		}
	}
}

// defectConstraints are x[k+1] - step(x[k], u[k]) = 0 for every interval.
type defectConstraints struct {
	lay        layout
	model      crossing.Kinematics
	integrator Integrator
	dt         float64
}

func (c *defectConstraints) Len() int { return c.lay.n * c.lay.ns }

func (c *defectConstraints) Eval(dst, z []float64) {
	ns := c.lay.ns
	for k := 0; k < c.lay.n; k++ {
		next := c.integrator.Step(c.model, c.lay.stateAt(z, k), c.lay.inputAt(z, k), c.dt)
		xk1 := c.lay.stateAt(z, k+1)
		for d := 0; d < ns; d++ {
			dst[k*ns+d] = xk1[d] - next[d]
		}
	}
}

func (c *defectConstraints) AddJacobianTransposeProduct(dst, z, v []float64) {
	ns, ni := c.lay.ns, c.lay.ni
	for k := 0; k < c.lay.n; k++ {
		vk := v[k*ns : (k+1)*ns]
		for d := 0; d < ns; d++ {
			dst[c.lay.state(k+1, d)] += vk[d]
		}
		phiX, phiU := c.integrator.StepJacobians(c.model, c.lay.stateAt(z, k), c.lay.inputAt(z, k), c.dt)
		for col := 0; col < ns; col++ {
			var g float64
			for r := 0; r < ns; r++ {
				g += phiX.At(r, col) * vk[r]
			}
			dst[c.lay.state(k, col)] -= g
		}
		for col := 0; col < ni; col++ {
			var g float64
			for r := 0; r < ns; r++ {
				g += phiU.At(r, col) * vk[r]
			}
			dst[c.lay.input(k, col)] -= g
		}
	}
}

// boundConstraints turns state and input bounds into equality pins and
// per-sample inequalities. Input Final pins the last input sample, N-1.
func boundConstraints(lay layout, sb, ib crossing.Bounds) (*nlp.FixedVariables, *nlp.VariableBounds) {
	fixed := &nlp.FixedVariables{}
	bounds := &nlp.VariableBounds{}
	add := func(b crossing.Bounds, dim, samples int, index func(k, d int) int) {
		for d := 0; d < dim; d++ {
			if b.Initial[d] != nil {
				fixed.Fix(index(0, d), *b.Initial[d])
			}
			if b.Final[d] != nil {
				fixed.Fix(index(samples-1, d), *b.Final[d])
			}
			lo, hi := b.Lower[d], b.Upper[d]
			for k := 0; k < samples; k++ {
				switch {
				case lo != nil && hi != nil:
					bounds.AddRange(index(k, d), *lo, *hi)
				case lo != nil:
					bounds.AddLower(index(k, d), *lo)
				case hi != nil:
					bounds.AddUpper(index(k, d), *hi)
				}
			}
		}
	}
	add(sb, lay.ns, lay.n+1, lay.state)
	add(ib, lay.ni, lay.n, lay.input)
	return fixed, bounds
}

// initialGuess seeds positions from the reference when present, otherwise
// interpolates between Initial and Final, and clamps everything into bounds.
func initialGuess(lay layout, sb, ib crossing.Bounds, ref *reference.Path) []float64 {
	z := make([]float64, lay.dim())
	for d := 0; d < lay.ns; d++ {
		for k := 0; k <= lay.n; k++ {
			var x float64
			switch {
			case ref != nil && d == 0:
				x = ref.X[k]
			case ref != nil && d == 1:
				x = ref.Y[k]
			case sb.Initial[d] != nil && sb.Final[d] != nil:
				frac := float64(k) / float64(lay.n)
				x = *sb.Initial[d] + frac*(*sb.Final[d]-*sb.Initial[d])
			case sb.Initial[d] != nil:
				x = *sb.Initial[d]
			case sb.Final[d] != nil:
				x = *sb.Final[d]
			}
			z[lay.state(k, d)] = clamp(x, sb.Lower[d], sb.Upper[d])
		}
	}
	for j := 0; j < lay.ni; j++ {
		for k := 0; k < lay.n; k++ {
			var u float64
			if ib.Initial[j] != nil {
				u = *ib.Initial[j]
			}
			z[lay.input(k, j)] = clamp(u, ib.Lower[j], ib.Upper[j])
		}
	}
	return z
}

func clamp(x float64, lo, hi *float64) float64 {
	if lo != nil && x < *lo {
		x = *lo
	}
	if hi != nil && x > *hi {
		x = *hi
	}
	return x
}
