package timer

import (
	"time"

	"pomodoro/timer/internal/model"
)

// EventType names a Timer notification.
type EventType string

const (
	EventTick            EventType = "tick"
	EventStateChange     EventType = "state_change"
	EventSessionStart    EventType = "session_start"
	EventSessionComplete EventType = "session_complete"
	EventSessionCancel   EventType = "session_cancel"
	EventConfigChange    EventType = "config_change"
	EventCountersReset   EventType = "counters_reset"
)

// Event is emitted to observers after the Timer state changed.
// For EventSessionComplete, SessionType is the session that just ended and
// Remaining is what was left of it (non-zero when skipped).
type Event struct {
	Type        EventType         `json:"type"`
	SessionType model.SessionType `json:"sessionType"`
	RunState    model.RunState    `json:"runState"`
	Remaining   int               `json:"remainingSeconds"`
	Transition  *model.Transition `json:"transition,omitempty"`
	Skipped     bool              `json:"skipped,omitempty"`
	At          time.Time         `json:"at"`
}

// View is the read model handed to renderers.
type View struct {
	SessionType        model.SessionType `json:"sessionType"`
	NextSessionType    model.SessionType `json:"nextSessionType"`
	RunState           model.RunState    `json:"runState"`
	RemainingSeconds   int               `json:"remainingSeconds"`
	DurationSeconds    int               `json:"durationSeconds"`
	CompletedPomodoros int               `json:"completedPomodoros"`
	SessionCount       int               `json:"sessionCount"`
	Statistics         model.Statistics  `json:"statistics"`
	Config             model.TimerConfig `json:"config"`
	SessionStarted     bool              `json:"sessionStarted"`
	AutoStartPending   bool              `json:"autoStartPending"`
}

// Progress is the elapsed fraction of the current session in [0,1].
func (v View) Progress() float64 {
	if v.DurationSeconds <= 0 {
		return 1
	}
	progress := float64(v.DurationSeconds-v.RemainingSeconds) / float64(v.DurationSeconds)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
