package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomodoro/timer/internal/config"
)

// NewDefaultsCmd prints the effective timer defaults and can write them back
// to the defaults file.
func NewDefaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show or save the timer defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := timerConfigFromFlags(cmd)
			if err != nil {
				return err
			}
			write, err := cmd.Flags().GetBool("write")
			if err != nil {
				return err
			}
			if write {
				path, err := cmd.Flags().GetString("config")
				if err != nil {
					return err
				}
				if err := config.SaveTimerDefaults(path, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
				return nil
			}

			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode timer defaults: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().Bool("auto-breaks", false, "start breaks automatically")
	cmd.Flags().Bool("auto-pomodoros", false, "start work sessions automatically")
	cmd.Flags().Bool("write", false, "save the result to the --config file")
	return cmd
}
