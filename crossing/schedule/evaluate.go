package schedule

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/autocross/autocross/crossing"
)

// Curve is a cost as a function of time. *costcurve.Curve satisfies it.
type Curve interface {
	Eval(t float64) float64
}

// Evaluation is the cost breakdown of a schedule.
type Evaluation struct {
	StartTimes   []float64 // per vehicle
	WaitingCost  float64
	CrossingCost float64
	TotalCost    float64
	ClearingTime float64
}

// StartTimes serializes the crossings: the vehicle in slot 0 starts at 0 and
// every later vehicle starts when the previous one has crossed.
func StartTimes(order []int, times []float64) ([]float64, error) {
	if len(order) != len(times) {
		return nil, crossing.NewValidationError("crossing_times", "length %d does not match order length %d", len(times), len(order))
	}
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	start := make([]float64, len(order))
	var clock float64
	for _, v := range Sequence(order) {
		start[v] = clock
		clock += times[v]
	}
	return start, nil
}

// SumWaitingCosts adds each vehicle's waiting cost at its start time.
func SumWaitingCosts(waitCurves []Curve, startTimes []float64) (float64, error) {
	return sumCurves("wait", waitCurves, startTimes)
}

// SumCrossingCosts adds each vehicle's crossing cost at its crossing time.
func SumCrossingCosts(curves []Curve, times []float64) (float64, error) {
	return sumCurves("cost", curves, times)
}

func sumCurves(field string, curves []Curve, at []float64) (float64, error) {
	if len(curves) != len(at) {
		return 0, crossing.NewValidationError(field, "have %d curves for %d vehicles", len(curves), len(at))
	}
	var total float64
	for i, c := range curves {
		if c == nil {
			return 0, crossing.NewValidationError(fmt.Sprintf("%s[%d]", field, i), "missing curve")
		}
		total += c.Eval(at[i])
	}
	return total, nil
}

// ClearingTime is the time until the last vehicle has crossed.
func ClearingTime(times []float64) float64 {
	return floats.Sum(times)
}

// Evaluate computes start times and the waiting, crossing and total costs of s.
func Evaluate(s Schedule, crossCurves, waitCurves []Curve) (Evaluation, error) {
	start, err := StartTimes(s.Order, s.CrossingTimes)
	if err != nil {
		return Evaluation{}, err
	}
	waiting, err := SumWaitingCosts(waitCurves, start)
	if err != nil {
		return Evaluation{}, err
	}
	crossingCost, err := SumCrossingCosts(crossCurves, s.CrossingTimes)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		StartTimes:   start,
		WaitingCost:  waiting,
		CrossingCost: crossingCost,
		TotalCost:    waiting + crossingCost,
		ClearingTime: ClearingTime(s.CrossingTimes),
	}, nil
}
