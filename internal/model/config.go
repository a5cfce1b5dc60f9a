package model

import "errors"

var (
	ErrInvalidWorkMinutes       = errors.New("work duration must be between 1 and 60 minutes")
	ErrInvalidShortBreakMinutes = errors.New("short break duration must be between 1 and 30 minutes")
	ErrInvalidLongBreakMinutes  = errors.New("long break duration must be between 1 and 60 minutes")
	ErrInvalidCycleLength       = errors.New("sessions until long break must be between 2 and 10")
)

const (
	DefaultWorkMinutes            = 25
	DefaultShortBreakMinutes      = 5
	DefaultLongBreakMinutes       = 15
	DefaultSessionsUntilLongBreak = 4
)

// TimerConfig holds the user-configurable durations and cycle policy.
type TimerConfig struct {
	WorkMinutes            int  `json:"workMinutes" yaml:"work_minutes"`
	ShortBreakMinutes      int  `json:"shortBreakMinutes" yaml:"short_break_minutes"`
	LongBreakMinutes       int  `json:"longBreakMinutes" yaml:"long_break_minutes"`
	SessionsUntilLongBreak int  `json:"sessionsUntilLongBreak" yaml:"sessions_until_long_break"`
	AutoStartBreaks        bool `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartPomodoros     bool `json:"autoStartPomodoros" yaml:"auto_start_pomodoros"`
}

func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		WorkMinutes:            DefaultWorkMinutes,
		ShortBreakMinutes:      DefaultShortBreakMinutes,
		LongBreakMinutes:       DefaultLongBreakMinutes,
		SessionsUntilLongBreak: DefaultSessionsUntilLongBreak,
	}
}

// Validate checks the ranges accepted from users and config files.
func (c TimerConfig) Validate() error {
	if c.WorkMinutes < 1 || c.WorkMinutes > 60 {
		return ErrInvalidWorkMinutes
	}
	if c.ShortBreakMinutes < 1 || c.ShortBreakMinutes > 30 {
		return ErrInvalidShortBreakMinutes
	}
	if c.LongBreakMinutes < 1 || c.LongBreakMinutes > 60 {
		return ErrInvalidLongBreakMinutes
	}
	if c.SessionsUntilLongBreak < 2 || c.SessionsUntilLongBreak > 10 {
		return ErrInvalidCycleLength
	}
	return nil
}

// Minutes returns the configured length of a session type.
func (c TimerConfig) Minutes(sessionType SessionType) int {
	switch sessionType {
	case SessionShortBreak:
		return c.ShortBreakMinutes
	case SessionLongBreak:
		return c.LongBreakMinutes
	default:
		return c.WorkMinutes
	}
}

// ConfigPatch is a partial TimerConfig; nil fields are left untouched.
type ConfigPatch struct {
	WorkMinutes            *int  `json:"workMinutes,omitempty"`
	ShortBreakMinutes      *int  `json:"shortBreakMinutes,omitempty"`
	LongBreakMinutes       *int  `json:"longBreakMinutes,omitempty"`
	SessionsUntilLongBreak *int  `json:"sessionsUntilLongBreak,omitempty"`
	AutoStartBreaks        *bool `json:"autoStartBreaks,omitempty"`
	AutoStartPomodoros     *bool `json:"autoStartPomodoros,omitempty"`
}

// PatchFrom builds a patch that replaces every field.
func PatchFrom(c TimerConfig) ConfigPatch {
	return ConfigPatch{
		WorkMinutes:            &c.WorkMinutes,
		ShortBreakMinutes:      &c.ShortBreakMinutes,
		LongBreakMinutes:       &c.LongBreakMinutes,
		SessionsUntilLongBreak: &c.SessionsUntilLongBreak,
		AutoStartBreaks:        &c.AutoStartBreaks,
		AutoStartPomodoros:     &c.AutoStartPomodoros,
	}
}

func (p ConfigPatch) Apply(c TimerConfig) TimerConfig {
	if p.WorkMinutes != nil {
		c.WorkMinutes = *p.WorkMinutes
	}
	if p.ShortBreakMinutes != nil {
		c.ShortBreakMinutes = *p.ShortBreakMinutes
	}
	if p.LongBreakMinutes != nil {
		c.LongBreakMinutes = *p.LongBreakMinutes
	}
	if p.SessionsUntilLongBreak != nil {
		c.SessionsUntilLongBreak = *p.SessionsUntilLongBreak
	}
	if p.AutoStartBreaks != nil {
		c.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartPomodoros != nil {
		c.AutoStartPomodoros = *p.AutoStartPomodoros
	}
	return c
}
