package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autocross/autocross/crossing/artifact"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/schedule"
)

// analysisReport is the YAML document printed by the analyze command.
type analysisReport struct {
	StartTimes   []float64 `yaml:"start_times"`
	CrossingCost float64   `yaml:"crossing_cost"`
	WaitingCost  float64   `yaml:"waiting_cost"`
	TotalCost    float64   `yaml:"total_cost"`
	ClearingTime float64   `yaml:"clearing_time"`
}

func newAnalyzeCmd() *cobra.Command {
	var (
		scheduleFile string
		costFiles    []string
		waitFiles    []string
	)
	c := &cobra.Command{
		Use:   "analyze",
		Short: "Report the cost and clearing time of a schedule",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runAnalyze(cmd.OutOrStdout(), scheduleFile, costFiles, waitFiles); err != nil {
				logrus.Fatalf("analyze failed: %v", err)
			}
		},
	}
	c.Flags().StringVar(&scheduleFile, "schedule", "", "Schedule file written by the schedule command")
	c.Flags().StringArrayVar(&costFiles, "cost", nil, "Cost curve file, one per vehicle in schedule order (can be repeated)")
	c.Flags().StringArrayVar(&waitFiles, "wait", nil, "Waiting-cost curve file, one per vehicle (can be repeated)")
	_ = c.MarkFlagRequired("schedule")
	_ = c.MarkFlagRequired("cost")
	_ = c.MarkFlagRequired("wait")
	return c
}

func runAnalyze(w io.Writer, scheduleFile string, costFiles, waitFiles []string) error {
	f, err := artifact.ReadSchedule(scheduleFile)
	if err != nil {
		return err
	}
	s, err := f.Schedule()
	if err != nil {
		return err
	}
	cross, err := readScheduleCurves(costFiles)
	if err != nil {
		return err
	}
	wait, err := readScheduleCurves(waitFiles)
	if err != nil {
		return err
	}
	ev, err := schedule.Evaluate(s, cross, wait)
	if err != nil {
		return err
	}
	logrus.Debugf("analyze: %s evaluated over %d vehicles", scheduleFile, len(s.Order))

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(analysisReport{
		StartTimes:   ev.StartTimes,
		CrossingCost: ev.CrossingCost,
		WaitingCost:  ev.WaitingCost,
		TotalCost:    ev.TotalCost,
		ClearingTime: ev.ClearingTime,
	}); err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return nil
}

func readScheduleCurves(paths []string) ([]schedule.Curve, error) {
	curves, err := artifact.ReadCurves(paths)
	if err != nil {
		return nil, err
	}
	return asScheduleCurves(curves), nil
}

func asScheduleCurves(curves []*costcurve.Curve) []schedule.Curve {
	out := make([]schedule.Curve, len(curves))
	for i, c := range curves {
		out[i] = c
	}
	return out
}
