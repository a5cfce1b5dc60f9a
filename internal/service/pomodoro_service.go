package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/countdown"
	"pomodoro/timer/internal/cycle"
	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/repository"
	"pomodoro/timer/internal/timer"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	subscriberBuffer    = 64
)

type PomodoroOptions struct {
	Clock          clock.Clock
	AutoStartDelay time.Duration
	Logger         *slog.Logger
}

// PomodoroService keeps one live timer per user. Timers are loaded from the
// database on first use and every non-tick event is written back.
type PomodoroService struct {
	repo           *repository.PomodoroRepository
	clock          clock.Clock
	autoStartDelay time.Duration
	logger         *slog.Logger

	// loads collapses concurrent first loads of the same user so the
	// database work runs once and outside mu.
	loads singleflight.Group

	mu     sync.Mutex
	timers map[string]*userTimer
	closed bool
}

type userTimer struct {
	userID string
	timer  *timer.Timer

	// controlMu serializes version checks with the control that follows.
	controlMu sync.Mutex

	persistMu  sync.Mutex
	version    int
	sessionID  *string
	startedAt  *time.Time
	updatedAt  time.Time
	persistErr error
}

type StateView struct {
	timer.View
	UserID     string     `json:"userId"`
	SessionID  *string    `json:"sessionId,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	Version    int        `json:"version"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ServerTime time.Time  `json:"serverTime"`
}

func NewPomodoroService(repo *repository.PomodoroRepository, options PomodoroOptions) *PomodoroService {
	if options.Clock == nil {
		options.Clock = clock.System{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &PomodoroService{
		repo:           repo,
		clock:          options.Clock,
		autoStartDelay: options.AutoStartDelay,
		logger:         options.Logger,
		timers:         make(map[string]*userTimer),
	}
}

func (s *PomodoroService) GetState(ctx context.Context, userID string) (*StateView, *apperrors.APIError) {
	ut, apiErr := s.load(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	view := s.viewOf(ut)
	return &view, nil
}

func (s *PomodoroService) Start(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).Start)
}

func (s *PomodoroService) Pause(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).Pause)
}

func (s *PomodoroService) Toggle(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).Toggle)
}

func (s *PomodoroService) Reset(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).Reset)
}

func (s *PomodoroService) Skip(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).Skip)
}

func (s *PomodoroService) UpdateSettings(ctx context.Context, userID string, baseVersion int, cfg model.TimerConfig) (*StateView, *apperrors.APIError) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.BadRequest("invalid_settings", err.Error())
	}
	return s.control(ctx, userID, baseVersion, func(t *timer.Timer) {
		t.UpdateConfig(model.PatchFrom(cfg))
	})
}

func (s *PomodoroService) ResetCounters(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).ResetCounters)
}

func (s *PomodoroService) ResetToDefaults(ctx context.Context, userID string, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, (*timer.Timer).ResetToDefaults)
}

func (s *PomodoroService) ExportSnapshot(ctx context.Context, userID string) (*model.Snapshot, *apperrors.APIError) {
	ut, apiErr := s.load(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snapshot := ut.timer.ExportSnapshot()
	return &snapshot, nil
}

func (s *PomodoroService) ImportSnapshot(ctx context.Context, userID string, baseVersion int, snapshot model.Snapshot) (*StateView, *apperrors.APIError) {
	return s.control(ctx, userID, baseVersion, func(t *timer.Timer) {
		t.ImportSnapshot(snapshot)
	})
}

func (s *PomodoroService) GetHistory(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, *apperrors.APIError) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	sessions, err := s.repo.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Subscribe streams the user's timer events until cancel is called or the
// service shuts down.
func (s *PomodoroService) Subscribe(ctx context.Context, userID string) (<-chan timer.Event, func(), *apperrors.APIError) {
	ut, apiErr := s.load(ctx, userID)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	events, cancel := ut.timer.Subscribe(subscriberBuffer)
	return events, cancel, nil
}

// Shutdown stops every live timer. Running countdowns keep their persisted
// start time and resume with the elapsed time subtracted on next load.
func (s *PomodoroService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	timers := s.timers
	s.timers = make(map[string]*userTimer)
	s.mu.Unlock()

	for _, ut := range timers {
		ut.timer.Close()
	}
}

func (s *PomodoroService) control(
	ctx context.Context,
	userID string,
	baseVersion int,
	op func(*timer.Timer),
) (*StateView, *apperrors.APIError) {
	ut, apiErr := s.load(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	ut.controlMu.Lock()
	defer ut.controlMu.Unlock()

	if apiErr := s.ensureVersion(ut, baseVersion); apiErr != nil {
		return nil, apiErr
	}

	// Failures from ticker-driven writes were logged where they happened.
	_ = ut.takePersistErr()
	op(ut.timer)

	if err := ut.takePersistErr(); err != nil {
		s.logger.Error("persist pomodoro state", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to update state")
	}

	view := s.viewOf(ut)
	return &view, nil
}

func (s *PomodoroService) ensureVersion(ut *userTimer, baseVersion int) *apperrors.APIError {
	ut.persistMu.Lock()
	version := ut.version
	ut.persistMu.Unlock()

	if baseVersion <= 0 || baseVersion == version {
		return nil
	}
	view := s.viewOf(ut)
	return apperrors.Conflict("state_conflict", "state changed on another device", map[string]interface{}{
		"state": view,
	})
}

func (s *PomodoroService) load(ctx context.Context, userID string) (*userTimer, *apperrors.APIError) {
	if ut, apiErr := s.cached(userID); ut != nil || apiErr != nil {
		return ut, apiErr
	}

	loaded, err, _ := s.loads.Do(userID, func() (interface{}, error) {
		if ut, apiErr := s.cached(userID); ut != nil || apiErr != nil {
			return ut, wrapAPIError(apiErr)
		}

		ut, apiErr := s.restore(ctx, userID)
		if apiErr != nil {
			return nil, apiErr
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			ut.timer.Close()
			return nil, apperrors.Unavailable("pomodoro service is shutting down")
		}
		s.timers[userID] = ut
		return ut, nil
	})
	if err != nil {
		if apiErr, ok := err.(*apperrors.APIError); ok {
			return nil, apiErr
		}
		return nil, apperrors.Internal("failed to load state")
	}
	return loaded.(*userTimer), nil
}

func (s *PomodoroService) cached(userID string) (*userTimer, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperrors.Unavailable("pomodoro service is shutting down")
	}
	return s.timers[userID], nil
}

// restore builds a live timer from the persisted row. Only a countdown that
// ran out while the service was down produces a write.
func (s *PomodoroService) restore(ctx context.Context, userID string) (*userTimer, *apperrors.APIError) {
	state, err := s.repo.GetState(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("state_not_found", "pomodoro state not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get state")
	}

	ut := &userTimer{
		userID:    userID,
		version:   state.Version,
		sessionID: state.SessionID,
		startedAt: state.StartedAt,
		updatedAt: state.UpdatedAt,
	}

	controller := cycle.New(state.Config)
	controller.ImportSnapshot(state.Snapshot())
	engine := countdown.New(s.clock, countdown.Options{})
	ut.timer = timer.New(engine, controller, timer.Options{
		Clock:          s.clock,
		AutoStartDelay: s.autoStartDelay,
		Logger:         s.logger.With("user_id", userID),
		OnEvent: func(event timer.Event) {
			s.handleEvent(ut, event)
		},
	})

	remaining := state.RemainingSeconds
	if state.RunState == model.RunRunning && state.StartedAt != nil {
		elapsed := int(s.clock.Now().Sub(*state.StartedAt).Seconds())
		remaining = max(remaining-max(elapsed, 0), 0)
	}
	ut.timer.Restore(remaining, state.RunState)

	if err := ut.takePersistErr(); err != nil {
		ut.timer.Close()
		s.logger.Error("restore pomodoro state", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to restore state")
	}

	s.logger.Debug("pomodoro timer loaded",
		"user_id", userID,
		"session_type", state.SessionType,
		"run_state", state.RunState,
		"remaining_seconds", remaining,
	)
	return ut, nil
}

// handleEvent runs on whichever goroutine drove the timer: a request or the
// countdown ticker.
func (s *PomodoroService) handleEvent(ut *userTimer, event timer.Event) {
	if event.Type == timer.EventTick {
		return
	}

	ut.persistMu.Lock()
	defer ut.persistMu.Unlock()

	if err := s.persistLocked(ut, event); err != nil {
		ut.persistErr = err
		s.logger.Error("persist pomodoro event",
			"user_id", ut.userID,
			"event", event.Type,
			"error", err,
		)
	}
}

func (s *PomodoroService) persistLocked(ut *userTimer, event timer.Event) error {
	ctx := context.Background()
	now := s.clock.Now().UTC()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sessionID := ut.sessionID
	switch event.Type {
	case timer.EventSessionStart:
		id := uuid.NewString()
		session := model.PomodoroSession{
			ID:                     id,
			UserID:                 ut.userID,
			SessionType:            event.SessionType,
			PlannedDurationSeconds: event.Remaining,
			StartedAt:              now,
			Status:                 model.HistoryRunning,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.repo.InsertSessionTx(ctx, tx, &session); err != nil {
			return err
		}
		sessionID = &id
	case timer.EventSessionComplete:
		status := model.HistoryCompleted
		if event.Skipped {
			status = model.HistorySkipped
		}
		if err := s.finishSession(ctx, tx, sessionID, event.Remaining, status, now); err != nil {
			return err
		}
		sessionID = nil
	case timer.EventSessionCancel:
		if err := s.finishSession(ctx, tx, sessionID, event.Remaining, model.HistoryCancelled, now); err != nil {
			return err
		}
		sessionID = nil
	}

	view := ut.timer.State()
	var startedAt *time.Time
	if view.RunState == model.RunRunning {
		startedAt = &now
	}
	state := model.PomodoroState{
		UserID:             ut.userID,
		SessionType:        view.SessionType,
		RunState:           view.RunState,
		RemainingSeconds:   view.RemainingSeconds,
		SessionCount:       view.SessionCount,
		CompletedPomodoros: view.CompletedPomodoros,
		Config:             view.Config,
		StartedAt:          startedAt,
		SessionID:          sessionID,
		Version:            ut.version + 1,
		UpdatedAt:          now,
	}
	if err := s.repo.UpdateStateTx(ctx, tx, &state); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	ut.version = state.Version
	ut.sessionID = sessionID
	ut.startedAt = startedAt
	ut.updatedAt = now
	return nil
}

func (s *PomodoroService) finishSession(
	ctx context.Context,
	tx *sql.Tx,
	sessionID *string,
	remainingSeconds int,
	status string,
	now time.Time,
) error {
	if sessionID == nil {
		return nil
	}
	session, err := s.repo.GetSessionTx(ctx, tx, *sessionID)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if session.Status != model.HistoryRunning {
		return nil
	}

	actual := session.PlannedDurationSeconds - max(remainingSeconds, 0)
	session.ActualDurationSeconds = min(max(actual, 0), session.PlannedDurationSeconds)
	session.Status = status
	session.EndedAt = &now
	session.UpdatedAt = now
	return s.repo.UpdateSessionTx(ctx, tx, session)
}

func (s *PomodoroService) viewOf(ut *userTimer) StateView {
	view := StateView{
		View:       ut.timer.State(),
		UserID:     ut.userID,
		ServerTime: s.clock.Now().UTC(),
	}
	ut.persistMu.Lock()
	view.SessionID = ut.sessionID
	view.StartedAt = ut.startedAt
	view.Version = ut.version
	view.UpdatedAt = ut.updatedAt
	ut.persistMu.Unlock()
	return view
}

// wrapAPIError keeps a nil *APIError from becoming a non-nil error.
func wrapAPIError(apiErr *apperrors.APIError) error {
	if apiErr == nil {
		return nil
	}
	return apiErr
}

func (ut *userTimer) takePersistErr() error {
	ut.persistMu.Lock()
	defer ut.persistMu.Unlock()
	err := ut.persistErr
	ut.persistErr = nil
	return err
}
