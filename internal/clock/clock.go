// Package clock provides the scheduling primitives used by the countdown.
// Callbacks are cancellable; a Cancel is idempotent and may be invoked from
// within the callback it cancels.
package clock

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback.
type Cancel func()

type Clock interface {
	Now() time.Time
	// Every invokes fn every d until cancelled.
	Every(d time.Duration, fn func()) Cancel
	// After invokes fn once after d unless cancelled first.
	After(d time.Duration, fn func()) Cancel
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

func (System) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(d)
	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				select {
				case <-stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(stopCh) })
	}
}

func (System) After(d time.Duration, fn func()) Cancel {
	timer := time.AfterFunc(d, fn)
	return func() {
		timer.Stop()
	}
}
