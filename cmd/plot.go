package cmd

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autocross/autocross/crossing/artifact"
	"github.com/autocross/autocross/crossing/plot"
)

func newPlotCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "plot",
		Short: "Render cost curves or solved trajectories to an image",
	}

	// --- autocross plot curves ---

	var curvesOutput, curvesTitle string
	curves := &cobra.Command{
		Use:   "curves CURVE_FILE...",
		Short: "Plot one or more .cost or .wait curves",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runPlotCurves(curvesOutput, curvesTitle, args); err != nil {
				logrus.Fatalf("plot curves failed: %v", err)
			}
		},
	}
	curves.Flags().StringVarP(&curvesOutput, "output", "o", "curves.png", "Image file (.png, .svg or .pdf)")
	curves.Flags().StringVar(&curvesTitle, "title", "Crossing cost", "Plot title")

	// --- autocross plot system ---

	var systemOutput string
	system := &cobra.Command{
		Use:   "system SYSTEM_FILE",
		Short: "Plot the planar path of a solved trajectory and its reference",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runPlotSystem(systemOutput, args[0]); err != nil {
				logrus.Fatalf("plot system failed: %v", err)
			}
		},
	}
	system.Flags().StringVarP(&systemOutput, "output", "o", "", "Image file (defaults to the system file with a .png extension)")

	root.AddCommand(curves, system)
	return root
}

func runPlotCurves(output, title string, paths []string) error {
	loaded, err := artifact.ReadCurves(paths)
	if err != nil {
		return err
	}
	named := make([]plot.NamedCurve, len(loaded))
	for i, c := range loaded {
		named[i] = plot.NamedCurve{Name: filepath.Base(paths[i]), Curve: c}
	}
	if err := plot.Curves(output, title, named); err != nil {
		return err
	}
	logrus.Infof("plot: wrote %s", output)
	return nil
}

func runPlotSystem(output, path string) error {
	f, err := artifact.ReadSystem(path)
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	tr, ref := f.Trajectory()
	if err := plot.Trajectory(output, filepath.Base(path), tr, ref); err != nil {
		return err
	}
	logrus.Infof("plot: wrote %s", output)
	return nil
}
