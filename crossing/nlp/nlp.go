// Package nlp defines the constrained nonlinear program capability used by the
// trajectory and assignment stages, and a default implementation built on
// gonum's unconstrained minimizers.
//
// Problems are stated as
//
//	minimize f(x)  subject to  c(x) = 0,  g(x) <= 0
//
// Constraint sets expose values and Jacobian-transpose products only, so
// callers with sparse structure (RK4 defects, bounds) never build dense
// Jacobians.
package nlp

import (
	"context"
	"fmt"
)

// Constraints is a vector-valued constraint function.
type Constraints interface {
	// Len returns the number of constraint rows.
	Len() int
	// Eval writes the constraint values at x into dst (len(dst) == Len()).
	Eval(dst, x []float64)
	// AddJacobianTransposeProduct adds J(x)^T v to dst (len(dst) == len(x)).
	AddJacobianTransposeProduct(dst, x, v []float64)
}

// Problem is a smooth constrained minimization problem.
type Problem struct {
	Dim        int
	Objective  func(x []float64) float64
	Gradient   func(grad, x []float64) // overwrites grad
	Equality   Constraints             // c(x) = 0, may be nil
	Inequality Constraints             // g(x) <= 0, may be nil
}

// Validate checks the problem is well formed before handing it to a solver.
func (p *Problem) Validate() error {
	if p.Dim <= 0 {
		return fmt.Errorf("nlp: dimension must be positive, got %d", p.Dim)
	}
	if p.Objective == nil || p.Gradient == nil {
		return fmt.Errorf("nlp: objective and gradient are required")
	}
	return nil
}

// Solution is a converged (feasible within tolerance) point.
type Solution struct {
	X               []float64
	Objective       float64
	Violation       float64 // max |c_i(x)| and max(0, g_j(x))
	OuterIterations int
	InnerIterations int
}

// Solver solves constrained nonlinear programs. Implementations return an
// error wrapping crossing.ErrNoSolution when no feasible stationary point is
// found within their limits.
type Solver interface {
	Solve(ctx context.Context, p *Problem, x0 []float64) (*Solution, error)
}

// MaxViolation returns the largest constraint violation of p at x.
func MaxViolation(p *Problem, x []float64) float64 {
	var worst float64
	if p.Equality != nil && p.Equality.Len() > 0 {
		c := make([]float64, p.Equality.Len())
		p.Equality.Eval(c, x)
		for _, v := range c {
			if v < 0 {
				v = -v
			}
			if v > worst {
				worst = v
			}
		}
	}
	if p.Inequality != nil && p.Inequality.Len() > 0 {
		g := make([]float64, p.Inequality.Len())
		p.Inequality.Eval(g, x)
		for _, v := range g {
			if v > worst {
				worst = v
			}
		}
	}
	return worst
}
