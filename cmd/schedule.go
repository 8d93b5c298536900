package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/artifact"
	"github.com/autocross/autocross/crossing/assign"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/schedule"
)

type scheduleOptions struct {
	mode         string   // fcf, fcfs, rand or fixed
	crossSum     float64  // Budget on the sum of crossing times
	hasCrossSum  bool     // Whether --cross-sum was given
	slackPenalty float64  // Cost per unit of budget violation
	seed         int64    // Seed for fcfs arrivals and rand orders
	output       string   // Schedule artifact path
	costFiles    []string // One .cost file per vehicle
}

func newScheduleCmd() *cobra.Command {
	opts := scheduleOptions{}
	c := &cobra.Command{
		Use:   "schedule COST_FILE...",
		Short: "Assign crossing times and a crossing order to a set of vehicles",
		Long: "Read one cost curve per vehicle, choose crossing times that minimize the summed cost " +
			"(optionally bounded by --cross-sum), order the vehicles per --mode and write the schedule.",
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts.costFiles = args
			opts.hasCrossSum = cmd.Flags().Changed("cross-sum")
			if err := runSchedule(cmd.Context(), cmd.OutOrStdout(), opts); err != nil {
				logrus.Fatalf("schedule failed: %v", err)
			}
		},
	}
	c.Flags().StringVar(&opts.mode, "mode", string(schedule.ModeFastestCrossingFirst), "Schedule mode: fcf, fcfs, rand or fixed")
	c.Flags().Float64Var(&opts.crossSum, "cross-sum", 0, "Upper bound on the sum of crossing times (unbounded when unset)")
	c.Flags().Float64Var(&opts.slackPenalty, "slack-penalty", assign.DefaultPenalty, "Cost per unit by which the crossing times exceed --cross-sum")
	c.Flags().Int64Var(&opts.seed, "seed", 0, "Seed for the fcfs arrival order and the rand order")
	c.Flags().StringVarP(&opts.output, "output", "o", "schedule.yaml", "Schedule file to write")
	return c
}

func runSchedule(ctx context.Context, w io.Writer, opts scheduleOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !schedule.IsValidMode(opts.mode) {
		return fmt.Errorf("unknown schedule mode %q; valid: fcf, fcfs, rand, fixed", opts.mode)
	}
	curves, err := artifact.ReadCurves(opts.costFiles)
	if err != nil {
		return err
	}
	assignCurves := make([]assign.Curve, len(curves))
	for i, c := range curves {
		assignCurves[i] = c
	}
	var budget *float64
	if opts.hasCrossSum {
		budget = crossing.Float(opts.crossSum)
	}

	planner := &schedule.Planner{
		Assigner: &assign.Assigner{Penalty: opts.slackPenalty},
		RNG:      crossing.NewPartitionedRNG(crossing.NewRunKey(opts.seed)),
	}
	plan, err := planner.Plan(ctx, schedule.Mode(opts.mode), assignCurves, budget)
	if err != nil {
		return err
	}

	costs := make([]float64, len(curves))
	for i, c := range curves {
		costs[i] = c.Eval(plan.Schedule.CrossingTimes[i])
	}
	if err := artifact.WriteSchedule(opts.output, artifact.NewScheduleFile(plan.Schedule, costs, opts.mode)); err != nil {
		return err
	}
	logrus.Infof("schedule: wrote %s (%s, %d vehicles)", opts.output, opts.mode, len(curves))

	if plan.Mode == schedule.ModeFastestCrossingFirst {
		table := strings.TrimSuffix(opts.output, filepath.Ext(opts.output)) + ".txt"
		if err := writeCostTableFile(table, plan.Schedule.CrossingTimes, costs); err != nil {
			return err
		}
		logrus.Infof("schedule: wrote %s", table)
	}

	fmt.Fprintf(w, "crossing sequence: %v\n", schedule.Sequence(plan.Schedule.Order))
	for i, t := range plan.Schedule.CrossingTimes {
		fmt.Fprintf(w, "  %-30s slot %d  time %8.3f  cost %10.4f\n", opts.costFiles[i], plan.Schedule.Order[i], t, costs[i])
	}
	if plan.Assignment.Slack > 0 {
		fmt.Fprintf(w, "budget exceeded by %.4f\n", plan.Assignment.Slack)
	}
	return nil
}

func writeCostTableFile(path string, times, costs []float64) error {
	samples := make([]costcurve.Sample, len(times))
	for i := range times {
		samples[i] = costcurve.Sample{Time: times[i], Cost: crossing.Float(costs[i])}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := artifact.WriteCostTable(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
