package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timer/internal/model"
)

func classicConfig() model.TimerConfig {
	return model.TimerConfig{
		WorkMinutes:            25,
		ShortBreakMinutes:      5,
		LongBreakMinutes:       15,
		SessionsUntilLongBreak: 4,
	}
}

func TestNewStartsAtWork(t *testing.T) {
	controller := New(classicConfig())
	assert.Equal(t, model.SessionWork, controller.SessionType())
	assert.Zero(t, controller.SessionCount())
	assert.Zero(t, controller.CompletedPomodoros())
	assert.Equal(t, 25*60, controller.CurrentDuration())
}

func TestEightAdvancesFollowTheCycle(t *testing.T) {
	controller := New(classicConfig())
	want := []model.SessionType{
		model.SessionShortBreak, model.SessionWork,
		model.SessionShortBreak, model.SessionWork,
		model.SessionShortBreak, model.SessionWork,
		model.SessionLongBreak, model.SessionWork,
	}

	for i, expected := range want {
		transition := controller.Advance()
		require.Equal(t, expected, transition.NewType, "advance %d", i+1)
		require.Equal(t, expected, controller.SessionType())
		if i == 6 {
			assert.Equal(t, 4, controller.CompletedPomodoros())
			assert.Equal(t, 4, controller.SessionCount())
			assert.Equal(t, 15*60, transition.NewDuration)
		}
	}
	assert.Equal(t, 4, controller.CompletedPomodoros())
}

func TestFourWorkCompletionsEndInLongBreak(t *testing.T) {
	controller := New(classicConfig())
	var breaks []model.SessionType
	for range 4 {
		controller.ImportSnapshot(model.Snapshot{
			CurrentSessionType: model.SessionWork,
			SessionCount:       controller.SessionCount(),
			CompletedPomodoros: controller.CompletedPomodoros(),
		})
		breaks = append(breaks, controller.Advance().NewType)
	}

	assert.Equal(t, []model.SessionType{
		model.SessionShortBreak, model.SessionShortBreak, model.SessionShortBreak, model.SessionLongBreak,
	}, breaks)
	assert.Equal(t, 4, controller.CompletedPomodoros())
}

func TestLongBreakOnEveryMultipleOfCycleLength(t *testing.T) {
	for length := 2; length <= 10; length++ {
		cfg := classicConfig()
		cfg.SessionsUntilLongBreak = length
		controller := New(cfg)

		for count := 0; count < 3*length; count++ {
			controller.ImportSnapshot(model.Snapshot{
				CurrentSessionType: model.SessionWork,
				SessionCount:       count,
				CompletedPomodoros: count,
			})
			transition := controller.Advance()
			expected := model.SessionShortBreak
			if (count+1)%length == 0 {
				expected = model.SessionLongBreak
			}
			require.Equal(t, expected, transition.NewType, "length %d count %d", length, count)
			require.Equal(t, count+1, transition.SessionCount)
		}
	}
}

func TestBreaksAlwaysReturnToWork(t *testing.T) {
	for _, breakType := range []model.SessionType{model.SessionShortBreak, model.SessionLongBreak} {
		for count := range 9 {
			controller := New(classicConfig())
			controller.ImportSnapshot(model.Snapshot{CurrentSessionType: breakType, SessionCount: count, CompletedPomodoros: count})

			transition := controller.Advance()
			assert.Equal(t, breakType, transition.PreviousType)
			assert.Equal(t, model.SessionWork, transition.NewType)
			assert.Equal(t, count, controller.SessionCount(), "break completion must not count")
			assert.Equal(t, count, controller.CompletedPomodoros())
		}
	}
}

func TestAutoStartPolicy(t *testing.T) {
	cases := []struct {
		name         string
		breaks, work bool
		from         model.SessionType
		want         bool
	}{
		{"break with auto breaks", true, false, model.SessionWork, true},
		{"break without auto breaks", false, true, model.SessionWork, false},
		{"work with auto pomodoros", false, true, model.SessionShortBreak, true},
		{"work without auto pomodoros", true, false, model.SessionLongBreak, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := classicConfig()
			cfg.AutoStartBreaks = tc.breaks
			cfg.AutoStartPomodoros = tc.work
			controller := New(cfg)
			controller.ImportSnapshot(model.Snapshot{CurrentSessionType: tc.from})

			assert.Equal(t, tc.want, controller.Advance().ShouldAutoStart)
		})
	}
}

func TestPeekNextTypeDoesNotMutate(t *testing.T) {
	controller := New(classicConfig())
	controller.ImportSnapshot(model.Snapshot{CurrentSessionType: model.SessionWork, SessionCount: 3, CompletedPomodoros: 3})
	before := controller.ExportSnapshot()

	assert.Equal(t, model.SessionLongBreak, controller.PeekNextType())
	assert.Equal(t, model.SessionLongBreak, controller.PeekNextType())
	assert.Equal(t, before, controller.ExportSnapshot())

	assert.Equal(t, model.SessionLongBreak, controller.Advance().NewType)
	assert.Equal(t, model.SessionWork, controller.PeekNextType())
}

func TestStatistics(t *testing.T) {
	controller := New(classicConfig())
	controller.Advance()
	controller.Advance()
	controller.Advance()

	stats := controller.Statistics()
	assert.Equal(t, 2, stats.SessionsUntilNextLongBreak)
	assert.Equal(t, 1, stats.CurrentCycle)
	assert.Equal(t, 3, stats.CurrentSessionInCycle)
	assert.Equal(t, 2, stats.CompletedPomodoros)

	controller.ImportSnapshot(model.Snapshot{CurrentSessionType: model.SessionLongBreak, SessionCount: 4, CompletedPomodoros: 4})
	stats = controller.Statistics()
	assert.Equal(t, 0, stats.SessionsUntilNextLongBreak)
	assert.Equal(t, 2, stats.CurrentCycle)
	assert.Equal(t, 1, stats.CurrentSessionInCycle)
}

func TestUpdateConfigKeepsSessionType(t *testing.T) {
	controller := New(classicConfig())
	controller.Advance()
	require.Equal(t, model.SessionShortBreak, controller.SessionType())

	short := 10
	autoWork := true
	controller.UpdateConfig(model.ConfigPatch{ShortBreakMinutes: &short, AutoStartPomodoros: &autoWork})

	assert.Equal(t, model.SessionShortBreak, controller.SessionType())
	assert.Equal(t, 600, controller.CurrentDuration())
	assert.Equal(t, 25, controller.Config().WorkMinutes)
	assert.True(t, controller.Advance().ShouldAutoStart)
}

func TestResets(t *testing.T) {
	controller := New(classicConfig())
	controller.Advance()
	controller.ResetCounters()
	assert.Equal(t, model.SessionShortBreak, controller.SessionType())
	assert.Zero(t, controller.SessionCount())
	assert.Zero(t, controller.CompletedPomodoros())

	controller.Advance()
	controller.Advance()
	controller.ResetToDefaults()
	assert.Equal(t, model.SessionWork, controller.SessionType())
	assert.Zero(t, controller.SessionCount())
}

func TestSnapshotRoundTrip(t *testing.T) {
	source := New(classicConfig())
	for range 5 {
		source.Advance()
	}
	snapshot := source.ExportSnapshot()

	restored := New(classicConfig())
	restored.ImportSnapshot(snapshot)
	assert.Equal(t, snapshot, restored.ExportSnapshot())
	assert.Equal(t, source.SessionType(), restored.SessionType())
	assert.Equal(t, source.SessionCount(), restored.SessionCount())
	assert.Equal(t, source.CompletedPomodoros(), restored.CompletedPomodoros())
}

func TestImportSnapshotDefaults(t *testing.T) {
	controller := New(classicConfig())
	controller.Advance()

	controller.ImportSnapshot(model.Snapshot{})
	assert.Equal(t, model.Snapshot{CurrentSessionType: model.SessionWork}, controller.ExportSnapshot())

	controller.ImportSnapshot(model.Snapshot{CurrentSessionType: "lunch", SessionCount: -3, CompletedPomodoros: 2})
	assert.Equal(t, model.SessionWork, controller.SessionType())
	assert.Zero(t, controller.SessionCount())
	assert.Equal(t, 2, controller.CompletedPomodoros())
}

func TestDegenerateConfigIsClamped(t *testing.T) {
	controller := New(model.TimerConfig{WorkMinutes: -5, SessionsUntilLongBreak: 0})
	assert.Equal(t, 0, controller.CurrentDuration())

	assert.Equal(t, model.SessionShortBreak, controller.Advance().NewType)
	controller.Advance()
	assert.Equal(t, model.SessionLongBreak, controller.Advance().NewType)
	assert.Equal(t, 0, controller.Statistics().SessionsUntilNextLongBreak)
}
