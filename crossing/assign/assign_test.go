package assign

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/internal/testutil"
	"github.com/autocross/autocross/crossing/nlp"
)

// quadraticCurve samples (t-center)²+1 on the integer grid [lo, hi] and fits
// an Akima spline, which reproduces quadratics exactly.
func quadraticCurve(t *testing.T, center float64, lo, hi int) Curve {
	t.Helper()
	cost := testutil.Quadratic(center, 1)
	var samples []costcurve.Sample
	for i := lo; i <= hi; i++ {
		samples = append(samples, costcurve.Sample{Time: float64(i), Cost: crossing.Float(cost(float64(i)))})
	}
	c, err := costcurve.Build(samples, costcurve.Options{Kind: costcurve.KindAkima})
	require.NoError(t, err)
	return c
}

func TestAssign_NoBudget_MatchesPerCurveMinimizers(t *testing.T) {
	// GIVEN three curves with minima at 3, 5 and 7
	curves := []Curve{
		quadraticCurve(t, 3, 0, 10),
		quadraticCurve(t, 5, 0, 10),
		quadraticCurve(t, 7, 0, 10),
	}

	// WHEN assigned without a budget
	res, err := (&Assigner{}).Assign(context.Background(), curves, nil)

	// THEN each time is its own curve's minimizer and no slack is used
	require.NoError(t, err)
	require.Len(t, res.Times, 3)
	assert.InDelta(t, 3, res.Times[0], 1e-3)
	assert.InDelta(t, 5, res.Times[1], 1e-3)
	assert.InDelta(t, 7, res.Times[2], 1e-3)
	assert.InDelta(t, 0, res.Slack, 1e-6)
	assert.InDelta(t, 3, res.Objective, 1e-5)
}

func TestAssign_BudgetBindsWithoutSlack(t *testing.T) {
	// GIVEN two curves preferring t=5 and a budget of 6
	curves := []Curve{quadraticCurve(t, 5, 0, 10), quadraticCurve(t, 5, 0, 10)}
	budget := 6.0

	res, err := (&Assigner{}).Assign(context.Background(), curves, &budget)

	// THEN the times shrink symmetrically to meet the budget exactly
	require.NoError(t, err)
	assert.InDelta(t, 3, res.Times[0], 1e-3)
	assert.InDelta(t, 3, res.Times[1], 1e-3)
	assert.InDelta(t, 0, res.Slack, 1e-4)
	assert.LessOrEqual(t, res.Times[0]+res.Times[1], budget+res.Slack+1e-4)
}

func TestAssign_BudgetBelowDomainsUsesSlack(t *testing.T) {
	// GIVEN domains starting at 4, so the sum can never go below 8
	curves := []Curve{quadraticCurve(t, 5, 4, 10), quadraticCurve(t, 6, 4, 10)}
	budget := 6.0

	res, err := (&Assigner{}).Assign(context.Background(), curves, &budget)

	require.NoError(t, err)
	assert.InDelta(t, 4, res.Times[0], 1e-3)
	assert.InDelta(t, 4, res.Times[1], 1e-3)
	assert.InDelta(t, 2, res.Slack, 1e-3)
	assert.GreaterOrEqual(t, res.Slack, 0.0)
	assert.LessOrEqual(t, res.Times[0]+res.Times[1], budget+res.Slack+1e-4)
	for i, c := range curves {
		d := c.Domain()
		assert.GreaterOrEqual(t, res.Times[i], d.Min)
		assert.LessOrEqual(t, res.Times[i], d.Max)
	}
}

func TestAssign_PenaltyIsConfigurable(t *testing.T) {
	// With a tiny penalty, overrunning the budget is cheaper than moving off the minimum.
	curves := []Curve{quadraticCurve(t, 5, 0, 10)}
	budget := 3.0

	res, err := (&Assigner{Penalty: 0.5}).Assign(context.Background(), curves, &budget)

	require.NoError(t, err)
	// d/dt (t-5)² = -0.5 at t = 4.75
	assert.InDelta(t, 4.75, res.Times[0], 1e-3)
	assert.InDelta(t, 1.75, res.Slack, 1e-3)
}

func TestAssign_NarrowDomainNamesVehicle(t *testing.T) {
	single, err := costcurve.Build([]costcurve.Sample{{Time: 2, Cost: crossing.Float(1)}}, costcurve.Options{})
	require.NoError(t, err)
	curves := []Curve{quadraticCurve(t, 5, 0, 10), single}

	_, err = (&Assigner{}).Assign(context.Background(), curves, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, crossing.ErrAssignmentInfeasible)
	var inf *crossing.AssignmentInfeasibleError
	require.True(t, errors.As(err, &inf))
	assert.Equal(t, 1, inf.Vehicle)
	assert.Equal(t, crossing.Domain{Min: 2, Max: 2}, inf.Domains[1])
	assert.Contains(t, err.Error(), "vehicle 1")
}

type failingSolver struct{}

func (failingSolver) Solve(context.Context, *nlp.Problem, []float64) (*nlp.Solution, error) {
	return nil, errors.New("stalled: " + crossing.ErrNoSolution.Error())
}

type noSolutionSolver struct{}

func (noSolutionSolver) Solve(context.Context, *nlp.Problem, []float64) (*nlp.Solution, error) {
	return nil, crossing.ErrNoSolution
}

func TestAssign_SolverFailure(t *testing.T) {
	curves := []Curve{quadraticCurve(t, 5, 0, 10)}
	budget := 4.0

	t.Run("no solution becomes infeasible assignment", func(t *testing.T) {
		_, err := (&Assigner{NLP: noSolutionSolver{}}).Assign(context.Background(), curves, &budget)
		var inf *crossing.AssignmentInfeasibleError
		require.True(t, errors.As(err, &inf))
		assert.Equal(t, -1, inf.Vehicle)
		require.NotNil(t, inf.Budget)
		assert.Equal(t, 4.0, *inf.Budget)
		assert.ErrorIs(t, err, crossing.ErrNoSolution)
	})

	t.Run("other errors are wrapped as is", func(t *testing.T) {
		_, err := (&Assigner{NLP: failingSolver{}}).Assign(context.Background(), curves, &budget)
		require.Error(t, err)
		assert.NotErrorIs(t, err, crossing.ErrAssignmentInfeasible)
	})
}

func TestAssign_Empty(t *testing.T) {
	res, err := (&Assigner{}).Assign(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Times)
}

func TestAssignIndependent(t *testing.T) {
	curves := []Curve{quadraticCurve(t, 2, 0, 10), quadraticCurve(t, 8, 0, 10)}

	res, err := (&Assigner{}).AssignIndependent(context.Background(), curves)

	require.NoError(t, err)
	assert.InDelta(t, 2, res.Times[0], 1e-3)
	assert.InDelta(t, 8, res.Times[1], 1e-3)
	assert.Equal(t, 0.0, res.Slack)
}

func TestAssignIndependent_ReportsVehicleIndex(t *testing.T) {
	single, err := costcurve.Build([]costcurve.Sample{{Time: 2, Cost: crossing.Float(1)}}, costcurve.Options{})
	require.NoError(t, err)

	_, err = (&Assigner{}).AssignIndependent(context.Background(), []Curve{quadraticCurve(t, 2, 0, 10), single})

	var inf *crossing.AssignmentInfeasibleError
	require.True(t, errors.As(err, &inf))
	assert.Equal(t, 1, inf.Vehicle)
}
