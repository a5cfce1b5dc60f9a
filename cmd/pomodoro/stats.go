package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomodoro/timer/internal/cycle"
	"pomodoro/timer/internal/model"
)

type statsReport struct {
	SessionType                string `yaml:"session_type"`
	NextSessionType            string `yaml:"next_session_type"`
	CurrentDuration            string `yaml:"current_duration"`
	CompletedPomodoros         int    `yaml:"completed_pomodoros"`
	SessionCount               int    `yaml:"session_count"`
	SessionsUntilNextLongBreak int    `yaml:"sessions_until_next_long_break"`
	CurrentCycle               int    `yaml:"current_cycle"`
	CurrentSessionInCycle      int    `yaml:"current_session_in_cycle"`
}

// NewStatsCmd prints cycle statistics for a snapshot given on the command line.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cycle statistics for a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := timerConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			rawType, err := cmd.Flags().GetString("type")
			if err != nil {
				return err
			}
			count, err := cmd.Flags().GetInt("count")
			if err != nil {
				return err
			}
			completed, err := cmd.Flags().GetInt("completed")
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), cfg, model.Snapshot{
				CurrentSessionType: model.SessionType(rawType),
				SessionCount:       count,
				CompletedPomodoros: completed,
			})
		},
	}
	cmd.Flags().String("type", string(model.SessionWork), "current session type: work, short_break or long_break")
	cmd.Flags().Int("count", 0, "work sessions finished in total")
	cmd.Flags().Int("completed", 0, "completed pomodoros")
	return cmd
}

func writeStats(out io.Writer, cfg model.TimerConfig, snapshot model.Snapshot) error {
	controller := cycle.New(cfg)
	controller.ImportSnapshot(snapshot)
	stats := controller.Statistics()

	raw, err := yaml.Marshal(statsReport{
		SessionType:                sessionLabel(controller.SessionType()),
		NextSessionType:            sessionLabel(controller.PeekNextType()),
		CurrentDuration:            formatRemaining(controller.CurrentDuration()),
		CompletedPomodoros:         stats.CompletedPomodoros,
		SessionCount:               stats.SessionCount,
		SessionsUntilNextLongBreak: stats.SessionsUntilNextLongBreak,
		CurrentCycle:               stats.CurrentCycle,
		CurrentSessionInCycle:      stats.CurrentSessionInCycle,
	})
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = out.Write(raw)
	return err
}

func sessionLabel(sessionType model.SessionType) string {
	switch sessionType {
	case model.SessionShortBreak:
		return "short break"
	case model.SessionLongBreak:
		return "long break"
	default:
		return "work"
	}
}
