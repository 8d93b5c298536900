package schedule

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/assign"
)

// Mode selects how crossing times are assigned and vehicles ordered.
type Mode string

const (
	// ModeFastestCrossingFirst assigns times jointly (honouring the budget)
	// and lets the shortest crossing go first.
	ModeFastestCrossingFirst Mode = "fcf"
	// ModeFirstComeFirstServed assigns each vehicle alone and orders by a
	// seeded synthetic arrival sequence.
	ModeFirstComeFirstServed Mode = "fcfs"
	// ModeRandom assigns times jointly and draws a seeded random order.
	ModeRandom Mode = "rand"
	// ModeFixed assigns times jointly and keeps the input order.
	ModeFixed Mode = "fixed"
)

// ValidModes is the set of recognized schedule modes.
var ValidModes = map[string]bool{
	string(ModeFastestCrossingFirst): true,
	string(ModeFirstComeFirstServed): true,
	string(ModeRandom):               true,
	string(ModeFixed):                true,
}

// IsValidMode returns true if name is a recognized schedule mode.
func IsValidMode(name string) bool {
	return ValidModes[name]
}

// Plan is a schedule and the assignment it was built from.
type Plan struct {
	Mode       Mode
	Schedule   Schedule
	Assignment assign.Result
}

// Planner builds schedules. RNG supplies the seeded randomness for the
// fcfs and rand modes; nil means seed 0.
type Planner struct {
	Assigner *assign.Assigner
	RNG      *crossing.PartitionedRNG
}

// Plan assigns crossing times for curves and orders the vehicles per mode.
// budget bounds the sum of crossing times in the joint modes.
func (p *Planner) Plan(ctx context.Context, mode Mode, curves []assign.Curve, budget *float64) (*Plan, error) {
	if !IsValidMode(string(mode)) {
		return nil, crossing.NewValidationError("mode", "unknown schedule mode %q", mode)
	}
	assigner := p.Assigner
	if assigner == nil {
		assigner = &assign.Assigner{}
	}
	rng := p.RNG
	if rng == nil {
		rng = crossing.NewPartitionedRNG(crossing.NewRunKey(0))
	}
	n := len(curves)

	var (
		res assign.Result
		err error
	)
	if mode == ModeFirstComeFirstServed {
		if budget != nil {
			logrus.Warnf("schedule: %s assigns vehicles independently; ignoring budget %g", mode, *budget)
		}
		res, err = assigner.AssignIndependent(ctx, curves)
	} else {
		res, err = assigner.Assign(ctx, curves, budget)
	}
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", mode, err)
	}

	var order []int
	switch mode {
	case ModeFastestCrossingFirst:
		order = FastestCrossingFirst(res.Times)
	case ModeFirstComeFirstServed:
		arrivals := make([]float64, n)
		arrivalRNG := rng.ForSubsystem(crossing.SubsystemArrivals)
		for i := range arrivals {
			arrivals[i] = arrivalRNG.Float64()
		}
		order = FirstComeFirstServed(arrivals)
	case ModeRandom:
		order = Random(n, rng.ForSubsystem(crossing.SubsystemOrder))
	case ModeFixed:
		order = Fixed(n)
	}
	logrus.Debugf("schedule %s: crossing sequence %v", mode, Sequence(order))

	return &Plan{
		Mode:       mode,
		Schedule:   Schedule{Order: order, CrossingTimes: res.Times},
		Assignment: res,
	}, nil
}
