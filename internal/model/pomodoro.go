package model

import "time"

type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

// ParseSessionType maps unknown or empty values to SessionWork.
func ParseSessionType(raw string) SessionType {
	switch SessionType(raw) {
	case SessionShortBreak:
		return SessionShortBreak
	case SessionLongBreak:
		return SessionLongBreak
	default:
		return SessionWork
	}
}

func (t SessionType) IsBreak() bool {
	return t == SessionShortBreak || t == SessionLongBreak
}

type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
	RunPaused  RunState = "paused"
)

func ParseRunState(raw string) RunState {
	switch RunState(raw) {
	case RunRunning:
		return RunRunning
	case RunPaused:
		return RunPaused
	default:
		return RunIdle
	}
}

const (
	HistoryRunning   = "running"
	HistoryCompleted = "completed"
	HistorySkipped   = "skipped"
	HistoryCancelled = "cancelled"
)

// Snapshot is the exported cycle state. Missing fields decode to Work/0/0.
type Snapshot struct {
	CurrentSessionType SessionType `json:"currentSessionType" yaml:"current_session_type"`
	SessionCount       int         `json:"sessionCount" yaml:"session_count"`
	CompletedPomodoros int         `json:"completedPomodoros" yaml:"completed_pomodoros"`
}

// Transition describes one advance of the session cycle.
type Transition struct {
	PreviousType       SessionType `json:"previousType"`
	NewType            SessionType `json:"newType"`
	NewDuration        int         `json:"newDuration"`
	CompletedPomodoros int         `json:"completedPomodoros"`
	SessionCount       int         `json:"sessionCount"`
	ShouldAutoStart    bool        `json:"shouldAutoStart"`
}

type Statistics struct {
	SessionsUntilNextLongBreak int `json:"sessionsUntilNextLongBreak"`
	CurrentCycle               int `json:"currentCycle"`
	CurrentSessionInCycle      int `json:"currentSessionInCycle"`
	CompletedPomodoros         int `json:"completedPomodoros"`
	SessionCount               int `json:"sessionCount"`
}

// PomodoroState is the persisted timer row of one user.
type PomodoroState struct {
	UserID             string      `json:"userId"`
	SessionType        SessionType `json:"sessionType"`
	RunState           RunState    `json:"runState"`
	RemainingSeconds   int         `json:"remainingSeconds"`
	SessionCount       int         `json:"sessionCount"`
	CompletedPomodoros int         `json:"completedPomodoros"`
	Config             TimerConfig `json:"config"`
	StartedAt          *time.Time  `json:"startedAt,omitempty"`
	SessionID          *string     `json:"sessionId,omitempty"`
	Version            int         `json:"version"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

func (s PomodoroState) Snapshot() Snapshot {
	return Snapshot{
		CurrentSessionType: s.SessionType,
		SessionCount:       s.SessionCount,
		CompletedPomodoros: s.CompletedPomodoros,
	}
}

type PomodoroSession struct {
	ID                     string      `json:"id"`
	UserID                 string      `json:"userId"`
	SessionType            SessionType `json:"sessionType"`
	PlannedDurationSeconds int         `json:"plannedDurationSeconds"`
	ActualDurationSeconds  int         `json:"actualDurationSeconds"`
	StartedAt              time.Time   `json:"startedAt"`
	EndedAt                *time.Time  `json:"endedAt,omitempty"`
	Status                 string      `json:"status"`
	CreatedAt              time.Time   `json:"createdAt"`
	UpdatedAt              time.Time   `json:"updatedAt"`
}
