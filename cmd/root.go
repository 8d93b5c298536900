package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the CLI with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var logLevel string // Log verbosity level

	root := &cobra.Command{
		Use:   "autocross",
		Short: "Cost-optimal crossing schedules for autonomous vehicles at an intersection",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	root.AddCommand(
		newCalculateCmd(),
		newScheduleCmd(),
		newAnalyzeCmd(),
		newPlotCmd(),
	)
	return root
}

// Execute runs the CLI root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
