package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/artifact"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/reference"
	"github.com/autocross/autocross/crossing/store"
	"github.com/autocross/autocross/crossing/trajectory"
)

// defaultDeltaT is the sampling period of every trajectory solve.
const defaultDeltaT = 0.1

// waitStep is the grid spacing of the fitted waiting-cost curve.
const waitStep = 1.0

type calculateOptions struct {
	timeMin     float64   // Shortest crossing time to sweep
	timeMax     float64   // Longest crossing time to sweep (inclusive)
	timeStep    float64   // Sweep step
	deltaT      float64   // Trajectory sampling period
	direction   string    // straight, left or right
	workers     int       // Concurrent trajectory solves
	integrator  string    // rk4 or euler
	interp      string    // Cost curve interpolant
	gaps        string    // Interior gap policy
	systemTimes []float64 // Crossing times whose trajectories are saved
	sweepDB     string    // Optional SQLite sweep log
}

func newCalculateCmd() *cobra.Command {
	opts := calculateOptions{}
	c := &cobra.Command{
		Use:   "calculate VEHICLE_FILE...",
		Short: "Sweep crossing times and fit each vehicle's cost and waiting curves",
		Long: "For every vehicle file, solve the minimum-cost trajectory at each crossing time on the grid, " +
			"fit a cost curve through the solved samples, and write <name>.cost and <name>.wait next to the vehicle file.",
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCalculate(cmd.Context(), args, opts); err != nil {
				logrus.Fatalf("calculate failed: %v", err)
			}
		},
	}
	c.Flags().Float64Var(&opts.timeMin, "time-min", 1, "Shortest crossing time to evaluate (s)")
	c.Flags().Float64Var(&opts.timeMax, "time-max", 10, "Longest crossing time to evaluate (s)")
	c.Flags().Float64Var(&opts.timeStep, "time-step", 1, "Crossing time grid step (s)")
	c.Flags().Float64Var(&opts.deltaT, "delta-t", defaultDeltaT, "Trajectory sampling period (s)")
	c.Flags().StringVar(&opts.direction, "direction", string(reference.DirectionStraight), "Manoeuvre: straight, left or right")
	c.Flags().IntVar(&opts.workers, "workers", 1, "Number of trajectory solves to run concurrently")
	c.Flags().StringVar(&opts.integrator, "integrator", trajectory.RK4Name, "Defect integrator: rk4 or euler")
	c.Flags().StringVar(&opts.interp, "interp", string(costcurve.KindNatural),
		fmt.Sprintf("Cost curve interpolant (%s)", strings.Join(costcurve.KindNames(), ", ")))
	c.Flags().StringVar(&opts.gaps, "gaps", string(costcurve.GapInterpolate), "Unsolved interior samples: error, interpolate or longest-run")
	c.Flags().Float64SliceVar(&opts.systemTimes, "system-times", nil, "Crossing times whose solved trajectory is written to <name>_<T>.system")
	c.Flags().StringVar(&opts.sweepDB, "sweep-db", "", "SQLite file recording every sweep sample (disabled when empty)")
	return c
}

// calculation holds the parsed flags shared by every vehicle.
type calculation struct {
	times     []float64
	direction reference.Direction
	horizon   trajectory.Horizon
	solver    *trajectory.Solver
	curveOpts costcurve.Options
	workers   int
	log       *store.SweepStore
}

func runCalculate(ctx context.Context, vehicleFiles []string, opts calculateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	calc, err := newCalculation(opts)
	if err != nil {
		return err
	}
	if opts.sweepDB != "" {
		calc.log, err = store.Open(opts.sweepDB)
		if err != nil {
			return err
		}
		defer calc.log.Close()
	}
	for _, path := range vehicleFiles {
		if err := calc.vehicle(ctx, path, opts.systemTimes); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func newCalculation(opts calculateOptions) (*calculation, error) {
	times, err := costcurve.InclusiveGrid(opts.timeMin, opts.timeMax, opts.timeStep)
	if err != nil {
		return nil, err
	}
	dir, err := reference.ParseDirection(opts.direction)
	if err != nil {
		return nil, err
	}
	integ, err := trajectory.ParseIntegrator(opts.integrator)
	if err != nil {
		return nil, err
	}
	kind, err := costcurve.ParseKind(opts.interp)
	if err != nil {
		return nil, err
	}
	gaps, err := costcurve.ParseGapPolicy(opts.gaps)
	if err != nil {
		return nil, err
	}
	if opts.deltaT <= 0 {
		return nil, crossing.NewValidationError("delta-t", "must be positive, got %g", opts.deltaT)
	}
	return &calculation{
		times:     times,
		direction: dir,
		horizon:   trajectory.ByPeriod(opts.deltaT),
		solver:    &trajectory.Solver{Integrator: integ},
		curveOpts: costcurve.Options{Kind: kind, Gaps: gaps},
		workers:   opts.workers,
	}, nil
}

// referenceFor returns the vehicle's reference path sized for crossing time t.
func (c *calculation) referenceFor(v *crossing.Vehicle, t float64) (*reference.Path, error) {
	n, _, err := c.horizon.Resolve(t)
	if err != nil {
		return nil, err
	}
	ref := reference.ForDirection(c.direction, n+1).Translate(v.InitialPosition())
	return &ref, nil
}

func (c *calculation) solve(ctx context.Context, v *crossing.Vehicle, t float64) (*trajectory.Result, *reference.Path, error) {
	ref, err := c.referenceFor(v, t)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.solver.Solve(ctx, v, t, c.horizon, ref)
	if err != nil {
		return nil, nil, err
	}
	return res, ref, nil
}

func (c *calculation) vehicle(ctx context.Context, path string, systemTimes []float64) error {
	v, err := crossing.LoadVehicle(path)
	if err != nil {
		return err
	}
	logrus.Infof("calculate: %s (%s, %s) over %d crossing times", path, v.Kinematics().Name(), c.direction, len(c.times))

	var (
		mu         sync.Mutex
		iterations = make(map[float64]int, len(c.times))
	)
	samples, err := costcurve.Sweep(ctx, c.times, func(ctx context.Context, t float64) (float64, error) {
		res, _, err := c.solve(ctx, v, t)
		if err != nil {
			return 0, err
		}
		mu.Lock()
		iterations[t] = res.Iterations
		mu.Unlock()
		return res.Cost, nil
	}, c.workers)
	if err != nil {
		return err
	}
	if c.log != nil {
		if err := c.record(ctx, path, samples, iterations); err != nil {
			return err
		}
	}

	curve, err := costcurve.Build(samples, c.curveOpts)
	if err != nil {
		return err
	}
	wait, err := costcurve.BuildWait(v.Preferences().WaitFactor, curve.Min(), curve.Max(), waitStep, c.curveOpts)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := artifact.WriteCurve(base+artifact.CostSuffix, curve); err != nil {
		return err
	}
	if err := artifact.WriteCurve(base+artifact.WaitSuffix, wait); err != nil {
		return err
	}
	logrus.Infof("calculate: wrote %s%s with domain %s", base, artifact.CostSuffix, curve.Domain())

	for _, t := range systemTimes {
		res, ref, err := c.solve(ctx, v, t)
		if errors.Is(err, crossing.ErrNoSolution) {
			logrus.Warnf("calculate: no trajectory for crossing time %g; skipping system file", t)
			continue
		}
		if err != nil {
			return err
		}
		out := fmt.Sprintf("%s_%g%s", base, t, artifact.SystemSuffix)
		if err := artifact.WriteSystem(out, artifact.NewSystemFile(res.Trajectory, ref)); err != nil {
			return err
		}
		logrus.Infof("calculate: wrote %s (%d intervals)", out, res.Trajectory.Samples())
	}
	return nil
}

func (c *calculation) record(ctx context.Context, path string, samples []costcurve.Sample, iterations map[float64]int) error {
	run, err := c.log.StartRun(ctx, path, string(c.direction))
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := c.log.RecordSample(ctx, run.RunID, s, iterations[s.Time]); err != nil {
			return err
		}
	}
	logrus.Debugf("calculate: recorded sweep run %s", run.RunID)
	return nil
}
