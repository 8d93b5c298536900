// Package assign chooses crossing times for a set of vehicles by minimizing
// the sum of their cost curves, optionally under a shared time budget.
package assign

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/nlp"
)

// Defaults for Assigner. Zero-valued fields fall back to these.
const (
	DefaultPenalty = 100.0
	DefaultEpsilon = 1e-5
)

// Curve is a differentiable cost of crossing time over a closed domain.
// *costcurve.Curve satisfies it.
type Curve interface {
	Eval(t float64) float64
	Derivative(t float64) float64
	Domain() crossing.Domain
}

// Result holds one crossing time per input curve, index-aligned, and the
// budget slack that was needed.
type Result struct {
	Times     []float64
	Slack     float64
	Objective float64 // Σ curve_i(t_i) + Penalty·Slack
}

// Assigner solves
//
//	minimize Σ curve_i(t_i) + Penalty·s
//	subject to Min_i+ε <= t_i <= Max_i-ε, s >= 0, Σ t_i - s <= budget
//
// where the budget row is present only when a budget is given.
type Assigner struct {
	NLP     nlp.Solver // nil selects the default augmented Lagrangian
	Penalty float64    // cost per unit of budget overrun
	Epsilon float64    // margin kept from each domain end
}

func (a *Assigner) penalty() float64 {
	if a.Penalty > 0 {
		return a.Penalty
	}
	return DefaultPenalty
}

func (a *Assigner) epsilon() float64 {
	if a.Epsilon > 0 {
		return a.Epsilon
	}
	return DefaultEpsilon
}

func (a *Assigner) solver() nlp.Solver {
	if a.NLP != nil {
		return a.NLP
	}
	return &nlp.AugmentedLagrangian{}
}

// Assign returns jointly optimal crossing times. A nil budget leaves the
// sum of times unconstrained.
func (a *Assigner) Assign(ctx context.Context, curves []Curve, budget *float64) (Result, error) {
	n := len(curves)
	if n == 0 {
		return Result{Times: []float64{}}, nil
	}
	eps := a.epsilon()
	penalty := a.penalty()
	domains := make([]crossing.Domain, n)
	for i, c := range curves {
		domains[i] = c.Domain()
	}
	infeasible := func(vehicle int, err error) error {
		return &crossing.AssignmentInfeasibleError{Vehicle: vehicle, Domains: domains, Budget: budget, Err: err}
	}
	for i, d := range domains {
		if d.Max-d.Min < 2*eps {
			return Result{}, infeasible(i, fmt.Errorf("domain narrower than the %g margin", 2*eps))
		}
	}
	if budget != nil && (math.IsNaN(*budget) || math.IsInf(*budget, 0)) {
		return Result{}, crossing.NewValidationError("budget", "must be finite, got %v", *budget)
	}

	// x = [t_0 .. t_{n-1}, s]
	slack := n
	bounds := &nlp.VariableBounds{}
	for i, d := range domains {
		bounds.AddRange(i, d.Min+eps, d.Max-eps)
	}
	bounds.AddLower(slack, 0)
	var sum *nlp.LinearInequality
	if budget != nil {
		coeffs := make([]float64, n+1)
		for i := 0; i < n; i++ {
			coeffs[i] = 1
		}
		coeffs[slack] = -1
		sum = &nlp.LinearInequality{Coeffs: coeffs, Bound: *budget}
	}

	objective := func(x []float64) float64 {
		f := penalty * x[slack]
		for i, c := range curves {
			f += c.Eval(x[i])
		}
		return f
	}
	gradient := func(grad, x []float64) {
		for i, c := range curves {
			grad[i] = c.Derivative(x[i])
		}
		grad[slack] = penalty
	}
	var ineq nlp.Constraints = bounds
	if sum != nil {
		ineq = nlp.Stack(bounds, sum)
	}
	problem := &nlp.Problem{Dim: n + 1, Objective: objective, Gradient: gradient, Inequality: ineq}

	x0 := make([]float64, n+1)
	var total float64
	for i, d := range domains {
		x0[i] = (d.Min + d.Max) / 2
		total += x0[i]
	}
	if budget != nil && total > *budget {
		x0[slack] = total - *budget
	}

	sol, err := a.solver().Solve(ctx, problem, x0)
	if err != nil {
		if errors.Is(err, crossing.ErrNoSolution) {
			return Result{}, infeasible(-1, err)
		}
		return Result{}, fmt.Errorf("assign: %w", err)
	}

	res := Result{Times: make([]float64, n), Slack: math.Max(0, sol.X[slack])}
	for i, d := range domains {
		res.Times[i] = math.Max(d.Min+eps, math.Min(d.Max-eps, sol.X[i]))
	}
	res.Objective = penalty * res.Slack
	for i, c := range curves {
		res.Objective += c.Eval(res.Times[i])
	}
	if budget != nil && res.Slack > eps {
		logrus.Infof("assign: crossing-time budget %g exceeded by %.4g", *budget, res.Slack)
	}
	logrus.Debugf("assign: %d vehicles, objective %.6g, iterations %d/%d", n, res.Objective, sol.OuterIterations, sol.InnerIterations)
	return res, nil
}

// AssignIndependent gives every vehicle its own optimal crossing time,
// ignoring the others.
func (a *Assigner) AssignIndependent(ctx context.Context, curves []Curve) (Result, error) {
	res := Result{Times: make([]float64, len(curves))}
	for i, c := range curves {
		one, err := a.Assign(ctx, []Curve{c}, nil)
		if err != nil {
			var inf *crossing.AssignmentInfeasibleError
			if errors.As(err, &inf) {
				return Result{}, &crossing.AssignmentInfeasibleError{Vehicle: i, Domains: domainsOf(curves), Err: inf.Err}
			}
			return Result{}, fmt.Errorf("assign: vehicle %d: %w", i, err)
		}
		res.Times[i] = one.Times[0]
		res.Objective += one.Objective
	}
	return res, nil
}

func domainsOf(curves []Curve) []crossing.Domain {
	out := make([]crossing.Domain, len(curves))
	for i, c := range curves {
		out[i] = c.Domain()
	}
	return out
}
