package main

import (
	"github.com/spf13/cobra"

	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/model"
)

// timerConfigFromFlags loads the defaults file and applies any duration or
// policy flags that were set explicitly.
func timerConfigFromFlags(cmd *cobra.Command) (model.TimerConfig, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return model.TimerConfig{}, err
	}
	cfg, err := config.LoadTimerDefaults(path)
	if err != nil {
		return model.TimerConfig{}, err
	}

	var patch model.ConfigPatch
	for name, target := range map[string]**int{
		"work":        &patch.WorkMinutes,
		"short-break": &patch.ShortBreakMinutes,
		"long-break":  &patch.LongBreakMinutes,
		"cycle":       &patch.SessionsUntilLongBreak,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetInt(name)
		if err != nil {
			return model.TimerConfig{}, err
		}
		*target = &value
	}
	for name, target := range map[string]**bool{
		"auto-breaks":    &patch.AutoStartBreaks,
		"auto-pomodoros": &patch.AutoStartPomodoros,
	} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return model.TimerConfig{}, err
		}
		*target = &value
	}

	cfg = patch.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return model.TimerConfig{}, err
	}
	return cfg, nil
}
