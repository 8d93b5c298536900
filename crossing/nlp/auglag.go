package nlp

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/autocross/autocross/crossing"
)

// Defaults for AugmentedLagrangian. Zero-valued fields fall back to these.
const (
	DefaultFeasibilityTolerance = 1e-6
	DefaultGradientTolerance    = 1e-7
	DefaultInitialPenalty       = 10.0
	DefaultMaxPenalty           = 1e10
	DefaultMaxOuterIterations   = 60
	DefaultMaxInnerIterations   = 2000
)

// AugmentedLagrangian solves constrained problems with the
// Powell-Hestenes-Rockafellar augmented Lagrangian
//
//	L(x) = f(x) + λ·c(x) + ρ/2 |c(x)|² + 1/(2ρ) Σ_j (max(0, μ_j + ρ g_j(x))² - μ_j²)
//
// minimizing L over x with a gonum quasi-Newton method between multiplier
// updates. The zero value is ready to use.
//
// Thread-safety: the struct holds configuration only; concurrent Solve calls are safe.
type AugmentedLagrangian struct {
	FeasibilityTolerance float64
	GradientTolerance    float64
	InitialPenalty       float64
	MaxPenalty           float64
	MaxOuterIterations   int
	MaxInnerIterations   int

	// Method builds the inner unconstrained minimizer; nil selects LBFGS.
	Method func() optimize.Method
}

type alState struct {
	p      *Problem
	lambda []float64 // equality multipliers
	mu     []float64 // inequality multipliers, >= 0
	rho    float64
	cE, cI []float64
	wE, wI []float64
}

func newALState(p *Problem, rho float64) *alState {
	s := &alState{p: p, rho: rho}
	if p.Equality != nil {
		m := p.Equality.Len()
		s.lambda = make([]float64, m)
		s.cE = make([]float64, m)
		s.wE = make([]float64, m)
	}
	if p.Inequality != nil {
		m := p.Inequality.Len()
		s.mu = make([]float64, m)
		s.cI = make([]float64, m)
		s.wI = make([]float64, m)
	}
	return s
}

func (s *alState) value(x []float64) float64 {
	f := s.p.Objective(x)
	if len(s.cE) > 0 {
		s.p.Equality.Eval(s.cE, x)
		for i, c := range s.cE {
			f += s.lambda[i]*c + 0.5*s.rho*c*c
		}
	}
	if len(s.cI) > 0 {
		s.p.Inequality.Eval(s.cI, x)
		for j, g := range s.cI {
			shifted := math.Max(0, s.mu[j]+s.rho*g)
			f += (shifted*shifted - s.mu[j]*s.mu[j]) / (2 * s.rho)
		}
	}
	return f
}

func (s *alState) gradient(grad, x []float64) {
	s.p.Gradient(grad, x)
	if len(s.cE) > 0 {
		s.p.Equality.Eval(s.cE, x)
		for i, c := range s.cE {
			s.wE[i] = s.lambda[i] + s.rho*c
		}
		s.p.Equality.AddJacobianTransposeProduct(grad, x, s.wE)
	}
	if len(s.cI) > 0 {
		s.p.Inequality.Eval(s.cI, x)
		for j, g := range s.cI {
			s.wI[j] = math.Max(0, s.mu[j]+s.rho*g)
		}
		s.p.Inequality.AddJacobianTransposeProduct(grad, x, s.wI)
	}
}

// updateMultipliers applies the first-order multiplier update at x and
// returns the max constraint violation there.
func (s *alState) updateMultipliers(x []float64) float64 {
	var viol float64
	if len(s.cE) > 0 {
		s.p.Equality.Eval(s.cE, x)
		for i, c := range s.cE {
			s.lambda[i] += s.rho * c
			viol = math.Max(viol, math.Abs(c))
		}
	}
	if len(s.cI) > 0 {
		s.p.Inequality.Eval(s.cI, x)
		for j, g := range s.cI {
			s.mu[j] = math.Max(0, s.mu[j]+s.rho*g)
			viol = math.Max(viol, g)
		}
	}
	return viol
}

// Solve implements Solver.
func (a *AugmentedLagrangian) Solve(ctx context.Context, p *Problem, x0 []float64) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != p.Dim {
		return nil, fmt.Errorf("nlp: initial guess has length %d, want %d", len(x0), p.Dim)
	}
	feasTol := orDefault(a.FeasibilityTolerance, DefaultFeasibilityTolerance)
	gradTol := orDefault(a.GradientTolerance, DefaultGradientTolerance)
	maxRho := orDefault(a.MaxPenalty, DefaultMaxPenalty)
	maxOuter := a.MaxOuterIterations
	if maxOuter <= 0 {
		maxOuter = DefaultMaxOuterIterations
	}
	maxInner := a.MaxInnerIterations
	if maxInner <= 0 {
		maxInner = DefaultMaxInnerIterations
	}

	state := newALState(p, orDefault(a.InitialPenalty, DefaultInitialPenalty))
	x := append([]float64(nil), x0...)
	prevViol := math.Inf(1)
	prevF := math.Inf(1)
	inner := 0

	for outer := 1; outer <= maxOuter; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		method := a.newMethod()
		settings := &optimize.Settings{
			GradientThreshold: gradTol,
			MajorIterations:   maxInner,
			Converger:         &optimize.FunctionConverge{Absolute: 1e-12, Relative: 1e-12, Iterations: 25},
		}
		res, err := optimize.Minimize(optimize.Problem{Func: state.value, Grad: state.gradient}, x, settings, method)
		if res == nil {
			return nil, fmt.Errorf("nlp: inner minimization: %v: %w", err, crossing.ErrNoSolution)
		}
		if err != nil {
			logrus.Tracef("nlp: outer %d: inner minimizer stopped with %v (%v)", outer, res.Status, err)
		}
		inner += res.MajorIterations
		if floats.HasNaN(res.X) || math.IsInf(res.F, 0) {
			return nil, fmt.Errorf("nlp: diverged at outer iteration %d: %w", outer, crossing.ErrNoSolution)
		}
		copy(x, res.X)

		f := p.Objective(x)
		viol := state.updateMultipliers(x)
		logrus.Tracef("nlp: outer %d: f=%.6g violation=%.3g rho=%.3g inner=%d status=%v",
			outer, f, viol, state.rho, res.MajorIterations, res.Status)

		stalled := math.Abs(f-prevF) <= 1e-9*(1+math.Abs(f))
		if viol <= feasTol && (stalled || res.Status == optimize.GradientThreshold) {
			return &Solution{X: x, Objective: f, Violation: viol, OuterIterations: outer, InnerIterations: inner}, nil
		}
		if viol > 0.25*prevViol {
			state.rho = math.Min(state.rho*10, maxRho)
		}
		prevViol = viol
		prevF = f
	}

	viol := MaxViolation(p, x)
	if viol <= feasTol {
		logrus.Debugf("nlp: feasible but not stationary after %d outer iterations; accepting", maxOuter)
		return &Solution{X: x, Objective: p.Objective(x), Violation: viol, OuterIterations: maxOuter, InnerIterations: inner}, nil
	}
	return nil, fmt.Errorf("nlp: constraint violation %.3g after %d outer iterations: %w", viol, maxOuter, crossing.ErrNoSolution)
}

func (a *AugmentedLagrangian) newMethod() optimize.Method {
	if a.Method != nil {
		return a.Method()
	}
	return &optimize.LBFGS{}
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
