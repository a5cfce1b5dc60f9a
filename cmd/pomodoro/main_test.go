package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/config"
	"pomodoro/timer/internal/countdown"
	"pomodoro/timer/internal/cycle"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/timer"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	out, err := executeRoot(t, "stats", "--count", "2", "--completed", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "session_type: work")
	assert.Contains(t, out, "next_session_type: short break")
	assert.Contains(t, out, "25:00")
	assert.Contains(t, out, "sessions_until_next_long_break: 2")
	assert.Contains(t, out, "current_cycle: 1")
	assert.Contains(t, out, "current_session_in_cycle: 3")
}

func TestStatsCommandAtLongBreakBoundary(t *testing.T) {
	out, err := executeRoot(t, "stats", "--type", "long_break", "--count", "4", "--completed", "4", "--long-break", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "session_type: long break")
	assert.Contains(t, out, "next_session_type: work")
	assert.Contains(t, out, "20:00")
	assert.Contains(t, out, "sessions_until_next_long_break: 0")
	assert.Contains(t, out, "current_cycle: 2")
}

func TestStatsCommandRejectsInvalidFlags(t *testing.T) {
	_, err := executeRoot(t, "stats", "--cycle", "1")
	assert.ErrorIs(t, err, model.ErrInvalidCycleLength)
}

func TestRunTimerSkipsOnCommand(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	cfg := model.DefaultTimerConfig()
	cfg.WorkMinutes = 1
	tm := timer.New(countdown.New(clk, countdown.Options{}), cycle.New(cfg), timer.Options{Clock: clk})
	defer tm.Close()

	var out bytes.Buffer
	require.NoError(t, runTimer(context.Background(), strings.NewReader("s\n"), &out, tm, 1))

	assert.Contains(t, out.String(), "work 01:00 (next: short_break)")
	assert.Contains(t, out.String(), "work started")
	assert.Contains(t, out.String(), "work skipped, 1 pomodoros done, next: short_break 05:00")
	assert.Equal(t, model.SessionShortBreak, tm.State().SessionType)
}

func TestDescribeEvent(t *testing.T) {
	assert.Equal(t, "\rwork        12:30  50%", describeEvent(timer.Event{
		Type:        timer.EventTick,
		SessionType: model.SessionWork,
		Remaining:   750,
	}, timer.View{DurationSeconds: 1500, RemainingSeconds: 750}))
	assert.Empty(t, describeEvent(timer.Event{Type: timer.EventConfigChange}, timer.View{}))
	assert.Equal(t, "00:00", formatRemaining(-3))
}

func TestNextPrompt(t *testing.T) {
	assert.Equal(t, "take your long break", nextPrompt(model.SessionLongBreak))
	assert.Equal(t, "take your short break", nextPrompt(model.SessionShortBreak))
	assert.Equal(t, "start the next pomodoro", nextPrompt(model.SessionWork))
}

func TestDefaultsCommandPrintsEffectiveConfig(t *testing.T) {
	out, err := executeRoot(t, "defaults", "--work", "40", "--auto-breaks")
	require.NoError(t, err)
	assert.Contains(t, out, "work_minutes: 40")
	assert.Contains(t, out, "short_break_minutes: 5")
	assert.Contains(t, out, "auto_start_breaks: true")
}

func TestDefaultsCommandWritesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "timer.yaml")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"defaults", "--config", path, "--work", "40", "--cycle", "3", "--write"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "saved "+path)

	cfg, err := config.LoadTimerDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.WorkMinutes)
	assert.Equal(t, 3, cfg.SessionsUntilLongBreak)
	assert.Equal(t, model.DefaultTimerConfig().ShortBreakMinutes, cfg.ShortBreakMinutes)

	_, err = executeRoot(t, "defaults", "--work", "0")
	assert.Error(t, err)
}
