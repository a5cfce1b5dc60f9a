// Package countdown implements a single seconds countdown with no knowledge
// of session semantics.
package countdown

import (
	"sync"
	"time"

	"pomodoro/timer/internal/clock"
	"pomodoro/timer/internal/model"
)

// Observer receives countdown notifications. Either hook may be nil.
// Hooks run outside the engine lock and may call back into the engine.
type Observer struct {
	OnTick     func(remaining int)
	OnComplete func()
}

type Options struct {
	Interval time.Duration
}

// Engine counts remaining seconds down to zero.
type Engine struct {
	mu         sync.Mutex
	clock      clock.Clock
	interval   time.Duration
	remaining  int
	state      model.RunState
	cancel     clock.Cancel
	generation uint64
	observers  map[uint64]Observer
	nextID     uint64
}

func New(clk clock.Clock, options Options) *Engine {
	if clk == nil {
		clk = clock.System{}
	}
	if options.Interval <= 0 {
		options.Interval = time.Second
	}
	return &Engine{
		clock:     clk,
		interval:  options.Interval,
		state:     model.RunIdle,
		observers: make(map[uint64]Observer),
	}
}

// Subscribe registers an observer until the returned func is called.
func (e *Engine) Subscribe(observer Observer) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.observers[id] = observer
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.observers, id)
			e.mu.Unlock()
		})
	}
}

func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

func (e *Engine) RunState() model.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetDuration is ignored while the engine is running.
func (e *Engine) SetDuration(seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.RunRunning {
		return
	}
	e.remaining = clampSeconds(seconds)
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.RunRunning {
		return
	}
	e.state = model.RunRunning
	e.generation++
	generation := e.generation
	e.cancel = e.clock.Every(e.interval, func() {
		e.tick(generation)
	})
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != model.RunRunning {
		return
	}
	e.haltLocked()
	e.state = model.RunPaused
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haltLocked()
	e.state = model.RunIdle
}

func (e *Engine) Reset(seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haltLocked()
	e.remaining = clampSeconds(seconds)
	e.state = model.RunIdle
}

func (e *Engine) Toggle() {
	e.mu.Lock()
	running := e.state == model.RunRunning
	e.mu.Unlock()

	if running {
		e.Pause()
		return
	}
	e.Start()
}

func (e *Engine) tick(generation uint64) {
	e.mu.Lock()
	if generation != e.generation || e.state != model.RunRunning {
		e.mu.Unlock()
		return
	}

	if e.remaining > 0 {
		e.remaining--
	}
	remaining := e.remaining
	completed := remaining == 0
	if completed {
		e.haltLocked()
		e.state = model.RunIdle
	}
	observers := make([]Observer, 0, len(e.observers))
	for _, observer := range e.observers {
		observers = append(observers, observer)
	}
	e.mu.Unlock()

	for _, observer := range observers {
		if observer.OnTick != nil {
			observer.OnTick(remaining)
		}
	}
	if !completed {
		return
	}
	for _, observer := range observers {
		if observer.OnComplete != nil {
			observer.OnComplete()
		}
	}
}

// haltLocked cancels the ticker and invalidates ticks already in flight.
func (e *Engine) haltLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
}

func clampSeconds(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}
