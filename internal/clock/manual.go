package clock

import (
	"sync"
	"time"
)

// Manual is a deterministic Clock for tests. Time only moves on Advance, and
// due callbacks run synchronously on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	pending []*manualTimer
}

type manualTimer struct {
	id     uint64
	due    time.Time
	period time.Duration
	fn     func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		return func() {}
	}
	return m.schedule(d, d, fn)
}

func (m *Manual) After(d time.Duration, fn func()) Cancel {
	if d < 0 {
		d = 0
	}
	return m.schedule(d, 0, fn)
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves time forward by d, firing every callback that falls due in
// order of due time. Callbacks may schedule or cancel other callbacks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			m.removeLocked(next.id)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) schedule(d, period time.Duration, fn func()) Cancel {
	m.mu.Lock()
	m.nextID++
	entry := &manualTimer{
		id:     m.nextID,
		due:    m.now.Add(d),
		period: period,
		fn:     fn,
	}
	m.pending = append(m.pending, entry)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.removeLocked(entry.id)
		m.mu.Unlock()
	}
}

func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	var next *manualTimer
	for _, entry := range m.pending {
		if entry.due.After(target) {
			continue
		}
		if next == nil || entry.due.Before(next.due) || (entry.due.Equal(next.due) && entry.id < next.id) {
			next = entry
		}
	}
	return next
}

func (m *Manual) removeLocked(id uint64) {
	for i, entry := range m.pending {
		if entry.id == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}
