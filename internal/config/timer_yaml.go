package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pomodoro/timer/internal/model"
)

// yamlTimer uses pointers so that keys left out of the file keep their defaults.
type yamlTimer struct {
	WorkMinutes            *int  `yaml:"work_minutes"`
	ShortBreakMinutes      *int  `yaml:"short_break_minutes"`
	LongBreakMinutes       *int  `yaml:"long_break_minutes"`
	SessionsUntilLongBreak *int  `yaml:"sessions_until_long_break"`
	AutoStartBreaks        *bool `yaml:"auto_start_breaks"`
	AutoStartPomodoros     *bool `yaml:"auto_start_pomodoros"`
}

// LoadTimerDefaults reads the timer defaults used for new users.
// A missing file yields model.DefaultTimerConfig.
func LoadTimerDefaults(path string) (model.TimerConfig, error) {
	defaults := model.DefaultTimerConfig()
	if path == "" {
		return defaults, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read timer config: %w", err)
	}

	var fileData yamlTimer
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return defaults, fmt.Errorf("parse timer config yaml: %w", err)
	}

	merged := model.ConfigPatch{
		WorkMinutes:            fileData.WorkMinutes,
		ShortBreakMinutes:      fileData.ShortBreakMinutes,
		LongBreakMinutes:       fileData.LongBreakMinutes,
		SessionsUntilLongBreak: fileData.SessionsUntilLongBreak,
		AutoStartBreaks:        fileData.AutoStartBreaks,
		AutoStartPomodoros:     fileData.AutoStartPomodoros,
	}.Apply(defaults)

	if err := merged.Validate(); err != nil {
		return defaults, fmt.Errorf("invalid timer config %s: %w", path, err)
	}
	return merged, nil
}

// SaveTimerDefaults writes cfg as YAML, creating the parent directory.
func SaveTimerDefaults(path string, cfg model.TimerConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid timer config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal timer config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write timer config: %w", err)
	}
	return nil
}
