package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerConfigValidate(t *testing.T) {
	require.NoError(t, DefaultTimerConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*TimerConfig)
		want   error
	}{
		{"work too short", func(c *TimerConfig) { c.WorkMinutes = 0 }, ErrInvalidWorkMinutes},
		{"work too long", func(c *TimerConfig) { c.WorkMinutes = 61 }, ErrInvalidWorkMinutes},
		{"short break too long", func(c *TimerConfig) { c.ShortBreakMinutes = 31 }, ErrInvalidShortBreakMinutes},
		{"long break zero", func(c *TimerConfig) { c.LongBreakMinutes = 0 }, ErrInvalidLongBreakMinutes},
		{"cycle of one", func(c *TimerConfig) { c.SessionsUntilLongBreak = 1 }, ErrInvalidCycleLength},
		{"cycle of eleven", func(c *TimerConfig) { c.SessionsUntilLongBreak = 11 }, ErrInvalidCycleLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTimerConfig()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestConfigPatchApply(t *testing.T) {
	work := 50
	autoBreaks := true
	got := ConfigPatch{WorkMinutes: &work, AutoStartBreaks: &autoBreaks}.Apply(DefaultTimerConfig())

	assert.Equal(t, 50, got.WorkMinutes)
	assert.True(t, got.AutoStartBreaks)
	assert.Equal(t, DefaultShortBreakMinutes, got.ShortBreakMinutes)
	assert.Equal(t, DefaultSessionsUntilLongBreak, got.SessionsUntilLongBreak)
	assert.False(t, got.AutoStartPomodoros)
}

func TestParseSessionTypeDefaultsToWork(t *testing.T) {
	assert.Equal(t, SessionLongBreak, ParseSessionType("long_break"))
	assert.Equal(t, SessionWork, ParseSessionType(""))
	assert.Equal(t, SessionWork, ParseSessionType("coffee"))
}
