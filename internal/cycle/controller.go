// Package cycle decides which session follows which and keeps the pomodoro
// counters. It never touches a countdown; callers apply the durations it
// returns. A Controller is not safe for concurrent use.
package cycle

import "pomodoro/timer/internal/model"

// minCycleLength guards the modulo arithmetic against unvalidated configs.
const minCycleLength = 2

type Controller struct {
	config             model.TimerConfig
	sessionType        model.SessionType
	sessionCount       int
	completedPomodoros int
}

func New(config model.TimerConfig) *Controller {
	controller := &Controller{}
	controller.Initialize(config)
	return controller
}

// Initialize replaces the config and starts over at Work with zero counters.
func (c *Controller) Initialize(config model.TimerConfig) {
	c.config = config
	c.ResetToDefaults()
}

func (c *Controller) Config() model.TimerConfig {
	return c.config
}

func (c *Controller) SessionType() model.SessionType {
	return c.sessionType
}

func (c *Controller) SessionCount() int {
	return c.sessionCount
}

func (c *Controller) CompletedPomodoros() int {
	return c.completedPomodoros
}

// CurrentDuration returns the length of the current session in seconds.
func (c *Controller) CurrentDuration() int {
	return c.durationOf(c.sessionType)
}

// Advance moves to the next session. Natural completion and skip both go
// through here.
func (c *Controller) Advance() model.Transition {
	previous := c.sessionType
	if previous == model.SessionWork {
		c.sessionCount++
		c.completedPomodoros++
	}
	next := c.nextAfter(previous, c.sessionCount)
	c.sessionType = next

	return model.Transition{
		PreviousType:       previous,
		NewType:            next,
		NewDuration:        c.CurrentDuration(),
		CompletedPomodoros: c.completedPomodoros,
		SessionCount:       c.sessionCount,
		ShouldAutoStart:    c.shouldAutoStart(next),
	}
}

// PeekNextType reports what Advance would switch to without changing state.
func (c *Controller) PeekNextType() model.SessionType {
	count := c.sessionCount
	if c.sessionType == model.SessionWork {
		count++
	}
	return c.nextAfter(c.sessionType, count)
}

// UpdateConfig merges patch into the config. The current session type is
// kept; only future durations change.
func (c *Controller) UpdateConfig(patch model.ConfigPatch) {
	c.config = patch.Apply(c.config)
}

func (c *Controller) ResetCounters() {
	c.sessionCount = 0
	c.completedPomodoros = 0
}

func (c *Controller) ResetToDefaults() {
	c.sessionType = model.SessionWork
	c.ResetCounters()
}

func (c *Controller) Statistics() model.Statistics {
	length := c.cycleLength()
	position := c.sessionCount % length

	untilLong := length - position
	if untilLong == length {
		untilLong = 0
	}

	return model.Statistics{
		SessionsUntilNextLongBreak: untilLong,
		CurrentCycle:               c.sessionCount/length + 1,
		CurrentSessionInCycle:      position + 1,
		CompletedPomodoros:         c.completedPomodoros,
		SessionCount:               c.sessionCount,
	}
}

func (c *Controller) ExportSnapshot() model.Snapshot {
	return model.Snapshot{
		CurrentSessionType: c.sessionType,
		SessionCount:       c.sessionCount,
		CompletedPomodoros: c.completedPomodoros,
	}
}

// ImportSnapshot restores counters and session type. Unknown types fall back
// to Work and negative counters to zero.
func (c *Controller) ImportSnapshot(snapshot model.Snapshot) {
	c.sessionType = model.ParseSessionType(string(snapshot.CurrentSessionType))
	c.sessionCount = max(snapshot.SessionCount, 0)
	c.completedPomodoros = max(snapshot.CompletedPomodoros, 0)
}

func (c *Controller) nextAfter(current model.SessionType, count int) model.SessionType {
	if current != model.SessionWork {
		return model.SessionWork
	}
	if count > 0 && count%c.cycleLength() == 0 {
		return model.SessionLongBreak
	}
	return model.SessionShortBreak
}

func (c *Controller) shouldAutoStart(next model.SessionType) bool {
	if next == model.SessionWork {
		return c.config.AutoStartPomodoros
	}
	return c.config.AutoStartBreaks
}

func (c *Controller) durationOf(sessionType model.SessionType) int {
	return max(c.config.Minutes(sessionType), 0) * 60
}

func (c *Controller) cycleLength() int {
	return max(c.config.SessionsUntilLongBreak, minCycleLength)
}
