// Package timer wires a countdown engine to a session cycle controller.
//
// A Timer owns both components. Engine completion advances the cycle, loads
// the next session's duration and, when the cycle policy asks for it,
// schedules a deferred start. Any manual control cancels a pending deferred
// start so it can never fire after the user intervened.
package timer

import (
	"log/slog"
	"sync"
	"time"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/countdown"
	"pomodoro/timer/internal/cycle"
	"pomodoro/timer/internal/model"
)

const DefaultAutoStartDelay = time.Second

type Options struct {
	Clock clock.Clock
	// AutoStartDelay defers automatic starts; <= 0 means DefaultAutoStartDelay.
	AutoStartDelay time.Duration
	// OnEvent is called synchronously, outside the Timer lock.
	OnEvent func(Event)
	Logger  *slog.Logger
}

type Timer struct {
	mu             sync.Mutex
	engine         *countdown.Engine
	cycle          *cycle.Controller
	clock          clock.Clock
	autoStartDelay time.Duration
	onEvent        func(Event)
	logger         *slog.Logger
	unsubscribe    func()

	autoStart      clock.Cancel
	autoStartSeq   uint64
	sessionStarted bool
	closed         bool

	subMu       sync.Mutex
	subscribers map[uint64]chan Event
	nextSubID   uint64
}

// New takes ownership of engine and controller and loads the controller's
// current duration into the engine.
func New(engine *countdown.Engine, controller *cycle.Controller, options Options) *Timer {
	if options.Clock == nil {
		options.Clock = clock.System{}
	}
	if options.AutoStartDelay <= 0 {
		options.AutoStartDelay = DefaultAutoStartDelay
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	t := &Timer{
		engine:         engine,
		cycle:          controller,
		clock:          options.Clock,
		autoStartDelay: options.AutoStartDelay,
		onEvent:        options.OnEvent,
		logger:         options.Logger,
		subscribers:    make(map[uint64]chan Event),
	}
	engine.Reset(controller.CurrentDuration())
	t.unsubscribe = engine.Subscribe(countdown.Observer{
		OnTick:     t.handleTick,
		OnComplete: t.handleComplete,
	})
	return t
}

func (t *Timer) Start() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	events := t.startLocked()
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) Pause() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	events := t.pauseLocked()
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) Toggle() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	var events []Event
	if t.engine.RunState() == model.RunRunning {
		events = t.pauseLocked()
	} else {
		events = t.startLocked()
	}
	t.mu.Unlock()
	t.dispatch(events)
}

// Reset reloads the full duration of the current session and stops. A
// session whose final tick already ran is completed instead of cancelled.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	var events []Event
	if t.elapsedLocked() {
		events = t.finishLocked(false)
		t.cancelAutoStartLocked()
	} else {
		events = t.cancelSessionLocked()
		t.engine.Reset(t.cycle.CurrentDuration())
		events = append(events, t.eventLocked(EventStateChange))
	}
	t.mu.Unlock()
	t.dispatch(events)
}

// Skip ends the current session early and moves to the next one, following
// the same auto-start policy as a natural completion.
func (t *Timer) Skip() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	t.engine.Stop()
	events := t.finishLocked(true)
	t.mu.Unlock()
	t.dispatch(events)
}

// UpdateConfig merges patch into the cycle config. A countdown that has not
// started yet is refreshed to the new duration.
func (t *Timer) UpdateConfig(patch model.ConfigPatch) {
	t.mu.Lock()
	t.cycle.UpdateConfig(patch)
	if !t.sessionStarted && t.engine.RunState() != model.RunRunning {
		t.engine.Reset(t.cycle.CurrentDuration())
	}
	events := []Event{t.eventLocked(EventConfigChange)}
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) ResetCounters() {
	t.mu.Lock()
	t.cycle.ResetCounters()
	events := []Event{t.eventLocked(EventCountersReset)}
	t.mu.Unlock()
	t.dispatch(events)
}

// ResetToDefaults returns to a fresh Work session with zero counters.
func (t *Timer) ResetToDefaults() {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	events := t.cancelSessionLocked()
	t.cycle.ResetToDefaults()
	t.engine.Reset(t.cycle.CurrentDuration())
	events = append(events, t.eventLocked(EventCountersReset), t.eventLocked(EventStateChange))
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) ExportSnapshot() model.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cycle.ExportSnapshot()
}

// ImportSnapshot replaces the cycle state and loads the restored session's
// full duration.
func (t *Timer) ImportSnapshot(snapshot model.Snapshot) {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	events := t.cancelSessionLocked()
	t.cycle.ImportSnapshot(snapshot)
	t.engine.Reset(t.cycle.CurrentDuration())
	events = append(events, t.eventLocked(EventStateChange))
	t.mu.Unlock()
	t.dispatch(events)
}

// Restore resumes a persisted countdown without emitting events. A running
// countdown with nothing left is completed right away, and only that path
// notifies observers.
func (t *Timer) Restore(remaining int, state model.RunState) {
	t.mu.Lock()
	t.cancelAutoStartLocked()
	t.engine.Reset(remaining)
	t.sessionStarted = state != model.RunIdle

	var events []Event
	switch state {
	case model.RunRunning:
		if remaining <= 0 {
			events = t.finishLocked(false)
			break
		}
		t.engine.Start()
	case model.RunPaused:
		t.engine.Start()
		t.engine.Pause()
	}
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) State() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

// Subscribe returns a channel of events. Sends never block; events are
// dropped when the buffer is full.
func (t *Timer) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	t.subMu.Lock()
	if t.subscribers == nil {
		t.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.nextSubID++
	id := t.nextSubID
	t.subscribers[id] = ch
	t.subMu.Unlock()

	return ch, func() {
		t.subMu.Lock()
		defer t.subMu.Unlock()
		if existing, ok := t.subscribers[id]; ok {
			delete(t.subscribers, id)
			close(existing)
		}
	}
}

// Close stops the countdown, drops any pending start and closes subscribers.
func (t *Timer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.cancelAutoStartLocked()
	t.engine.Stop()
	t.unsubscribe()
	t.mu.Unlock()

	t.subMu.Lock()
	subscribers := t.subscribers
	t.subscribers = nil
	t.subMu.Unlock()
	for _, ch := range subscribers {
		close(ch)
	}
}

func (t *Timer) handleTick(remaining int) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	event := t.eventLocked(EventTick)
	event.Remaining = remaining
	t.mu.Unlock()
	t.dispatch([]Event{event})
}

func (t *Timer) handleComplete() {
	t.mu.Lock()
	// A manual start or reset that raced the final tick wins.
	if t.closed || t.engine.RunState() == model.RunRunning || t.engine.Remaining() != 0 {
		t.mu.Unlock()
		return
	}
	events := t.finishLocked(false)
	t.mu.Unlock()
	t.dispatch(events)
}

func (t *Timer) fireAutoStart(seq uint64) {
	t.mu.Lock()
	if t.closed || t.autoStart == nil || seq != t.autoStartSeq {
		t.mu.Unlock()
		return
	}
	t.autoStart = nil
	events := t.startLocked()
	sessionType := t.cycle.SessionType()
	t.mu.Unlock()

	t.logger.Debug("auto-started session", "session_type", sessionType)
	t.dispatch(events)
}

func (t *Timer) startLocked() []Event {
	if t.closed || t.engine.RunState() == model.RunRunning {
		return nil
	}
	fresh := !t.sessionStarted
	t.sessionStarted = true
	t.engine.Start()

	events := make([]Event, 0, 2)
	if fresh {
		events = append(events, t.eventLocked(EventSessionStart))
	}
	return append(events, t.eventLocked(EventStateChange))
}

func (t *Timer) pauseLocked() []Event {
	if t.engine.RunState() != model.RunRunning {
		return nil
	}
	t.engine.Pause()
	return []Event{t.eventLocked(EventStateChange)}
}

// finishLocked advances the cycle after the current session ended, either
// naturally or by skip. The engine must already be stopped.
func (t *Timer) finishLocked(skipped bool) []Event {
	remaining := t.engine.Remaining()
	previous := t.cycle.SessionType()
	transition := t.cycle.Advance()
	t.engine.Reset(transition.NewDuration)
	t.sessionStarted = false

	complete := t.eventLocked(EventSessionComplete)
	complete.SessionType = previous
	complete.Remaining = remaining
	complete.Transition = &transition
	complete.Skipped = skipped

	t.logger.Info("session complete",
		"previous", previous,
		"next", transition.NewType,
		"skipped", skipped,
		"completed_pomodoros", transition.CompletedPomodoros,
		"auto_start", transition.ShouldAutoStart,
	)

	if transition.ShouldAutoStart {
		t.scheduleAutoStartLocked()
	}
	return []Event{complete, t.eventLocked(EventStateChange)}
}

// elapsedLocked reports a started session whose final tick already ran but
// whose completion has not been handled yet.
func (t *Timer) elapsedLocked() bool {
	return t.sessionStarted && t.engine.RunState() == model.RunIdle && t.engine.Remaining() == 0
}

func (t *Timer) cancelSessionLocked() []Event {
	if !t.sessionStarted {
		return nil
	}
	event := t.eventLocked(EventSessionCancel)
	t.engine.Stop()
	t.sessionStarted = false
	return []Event{event}
}

func (t *Timer) scheduleAutoStartLocked() {
	t.cancelAutoStartLocked()
	seq := t.autoStartSeq
	t.autoStart = t.clock.After(t.autoStartDelay, func() {
		t.fireAutoStart(seq)
	})
}

func (t *Timer) cancelAutoStartLocked() {
	if t.autoStart != nil {
		t.autoStart()
		t.autoStart = nil
	}
	t.autoStartSeq++
}

func (t *Timer) eventLocked(eventType EventType) Event {
	return Event{
		Type:        eventType,
		SessionType: t.cycle.SessionType(),
		RunState:    t.engine.RunState(),
		Remaining:   t.engine.Remaining(),
		At:          t.clock.Now(),
	}
}

func (t *Timer) viewLocked() View {
	snapshot := t.cycle.ExportSnapshot()
	return View{
		SessionType:        snapshot.CurrentSessionType,
		NextSessionType:    t.cycle.PeekNextType(),
		RunState:           t.engine.RunState(),
		RemainingSeconds:   t.engine.Remaining(),
		DurationSeconds:    t.cycle.CurrentDuration(),
		CompletedPomodoros: snapshot.CompletedPomodoros,
		SessionCount:       snapshot.SessionCount,
		Statistics:         t.cycle.Statistics(),
		Config:             t.cycle.Config(),
		SessionStarted:     t.sessionStarted,
		AutoStartPending:   t.autoStart != nil,
	}
}

func (t *Timer) dispatch(events []Event) {
	for _, event := range events {
		if t.onEvent != nil {
			t.onEvent(event)
		}
		t.publish(event)
	}
}

func (t *Timer) publish(event Event) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
