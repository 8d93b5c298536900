package costcurve

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/autocross/autocross/crossing"
)

// SolveFunc returns the minimum trajectory cost for crossing time t.
// Errors wrapping crossing.ErrNoSolution mark t as unsolved.
type SolveFunc func(ctx context.Context, t float64) (float64, error)

// Sweep solves every candidate time and returns one Sample per time, in
// input order. At most workers solves run at once (values below 1 mean 1).
// Any error other than crossing.ErrNoSolution cancels the sweep.
func Sweep(ctx context.Context, times []float64, solve SolveFunc, workers int) ([]Sample, error) {
	if workers < 1 {
		workers = 1
	}
	samples := make([]Sample, len(times))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range times {
		samples[i].Time = t
		g.Go(func() error {
			cost, err := solve(gctx, t)
			switch {
			case errors.Is(err, crossing.ErrNoSolution):
				logrus.Warnf("no solution for crossing time %g: %v", t, err)
				return nil
			case err != nil:
				return err
			}
			samples[i].Cost = crossing.Float(cost)
			logrus.Debugf("crossing time %g: cost %.6g", t, cost)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
