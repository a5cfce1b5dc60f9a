package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/model"
)

type recorder struct {
	ticks     []int
	completes int
}

func newEngine(t *testing.T) (*Engine, *clock.Manual, *recorder) {
	t.Helper()
	clk := clock.NewManual(time.Unix(0, 0))
	engine := New(clk, Options{})
	rec := &recorder{}
	engine.Subscribe(Observer{
		OnTick:     func(remaining int) { rec.ticks = append(rec.ticks, remaining) },
		OnComplete: func() { rec.completes++ },
	})
	return engine, clk, rec
}

func TestCountsDownAndCompletesOnce(t *testing.T) {
	engine, clk, rec := newEngine(t)
	engine.SetDuration(3)
	engine.Start()

	clk.Advance(10 * time.Second)

	assert.Equal(t, []int{2, 1, 0}, rec.ticks)
	assert.Equal(t, 1, rec.completes)
	assert.Equal(t, 0, engine.Remaining())
	assert.Equal(t, model.RunIdle, engine.RunState())
	assert.Zero(t, clk.Pending())
}

func TestStartIsIdempotent(t *testing.T) {
	engine, clk, rec := newEngine(t)
	engine.SetDuration(5)
	engine.Start()
	engine.Start()

	require.Equal(t, 1, clk.Pending())
	clk.Advance(2 * time.Second)
	assert.Equal(t, []int{4, 3}, rec.ticks)
	assert.Equal(t, model.RunRunning, engine.RunState())
}

func TestResetZeroThenStartCompletesOnFirstTick(t *testing.T) {
	engine, clk, rec := newEngine(t)
	engine.SetDuration(10)
	engine.Reset(0)
	engine.Start()

	clk.Advance(time.Second)

	assert.Equal(t, []int{0}, rec.ticks)
	assert.Equal(t, 1, rec.completes)
	assert.Equal(t, 0, engine.Remaining())
	assert.Equal(t, model.RunIdle, engine.RunState())
}

func TestPausePreservesRemaining(t *testing.T) {
	engine, clk, rec := newEngine(t)
	engine.SetDuration(10)
	engine.Start()
	clk.Advance(3 * time.Second)

	engine.Pause()
	assert.Equal(t, model.RunPaused, engine.RunState())
	clk.Advance(5 * time.Second)
	assert.Equal(t, 7, engine.Remaining())
	assert.Len(t, rec.ticks, 3)

	engine.Toggle()
	assert.Equal(t, model.RunRunning, engine.RunState())
	clk.Advance(time.Second)
	assert.Equal(t, 6, engine.Remaining())

	engine.Toggle()
	assert.Equal(t, model.RunPaused, engine.RunState())
}

func TestPauseWhenNotRunningIsNoop(t *testing.T) {
	engine, _, _ := newEngine(t)
	engine.SetDuration(4)
	engine.Pause()
	assert.Equal(t, model.RunIdle, engine.RunState())
}

func TestSetDurationIgnoredWhileRunning(t *testing.T) {
	engine, clk, _ := newEngine(t)
	engine.SetDuration(10)
	engine.Start()
	engine.SetDuration(99)
	assert.Equal(t, 10, engine.Remaining())

	engine.Stop()
	assert.Equal(t, model.RunIdle, engine.RunState())
	engine.SetDuration(99)
	assert.Equal(t, 99, engine.Remaining())

	clk.Advance(5 * time.Second)
	assert.Equal(t, 99, engine.Remaining())
}

func TestResetStopsTickingFromAnyState(t *testing.T) {
	engine, clk, rec := newEngine(t)
	engine.SetDuration(10)
	engine.Start()
	clk.Advance(2 * time.Second)

	engine.Reset(30)
	clk.Advance(5 * time.Second)

	assert.Equal(t, 30, engine.Remaining())
	assert.Equal(t, model.RunIdle, engine.RunState())
	assert.Len(t, rec.ticks, 2)
}

func TestNegativeDurationsClampToZero(t *testing.T) {
	engine, _, _ := newEngine(t)
	engine.SetDuration(-5)
	assert.Equal(t, 0, engine.Remaining())
	engine.Reset(-1)
	assert.Equal(t, 0, engine.Remaining())
}

func TestObserverMayResetEngineOnCompletion(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	engine := New(clk, Options{})
	engine.Subscribe(Observer{OnComplete: func() {
		engine.Reset(60)
		engine.Start()
	}})
	engine.SetDuration(1)
	engine.Start()

	clk.Advance(3 * time.Second)

	assert.Equal(t, 58, engine.Remaining())
	assert.Equal(t, model.RunRunning, engine.RunState())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	engine := New(clk, Options{})
	ticks := 0
	unsubscribe := engine.Subscribe(Observer{OnTick: func(int) { ticks++ }})
	engine.SetDuration(5)
	engine.Start()
	clk.Advance(time.Second)

	unsubscribe()
	unsubscribe()
	clk.Advance(time.Second)

	assert.Equal(t, 1, ticks)
	assert.Equal(t, 3, engine.Remaining())
}
