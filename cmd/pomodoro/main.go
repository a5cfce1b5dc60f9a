package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pomodoro",
		Short:        "Pomodoro timer with work and break cycles",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "./config/timer.yaml", "timer defaults file")
	rootCmd.PersistentFlags().Int("work", 0, "work minutes (1-60)")
	rootCmd.PersistentFlags().Int("short-break", 0, "short break minutes (1-30)")
	rootCmd.PersistentFlags().Int("long-break", 0, "long break minutes (1-60)")
	rootCmd.PersistentFlags().Int("cycle", 0, "work sessions until a long break (2-10)")

	rootCmd.AddCommand(NewRunCmd(), NewStatsCmd(), NewDefaultsCmd())
	return rootCmd
}
