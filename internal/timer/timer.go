// Package timer abstracts the host's single-shot and repeating timers.
//
// Every component that schedules work (the decoder's quiet-period watchdog,
// the blink clocks) takes a Scheduler so tests can drive time manually.
// Handles must be stopped on every path that would otherwise leave a timer
// dangling; Stop is idempotent.
package timer

import (
	"sync"
	"time"
)

// Handle controls a scheduled callback.
type Handle interface {
	// Stop cancels the callback. Safe to call multiple times and after
	// the callback has fired.
	Stop()
}

// Scheduler schedules callbacks to run after a delay or at an interval.
type Scheduler interface {
	// After runs fn once after d elapses.
	After(d time.Duration, fn func()) Handle

	// Every runs fn repeatedly with period d until stopped.
	Every(d time.Duration, fn func()) Handle
}

// Clock is the real Scheduler backed by the Go runtime's timers.
type Clock struct{}

// NewClock returns the real scheduler.
func NewClock() *Clock {
	return &Clock{}
}

type afterHandle struct {
	t *time.Timer
}

func (h *afterHandle) Stop() {
	h.t.Stop()
}

// After runs fn once after d.
func (c *Clock) After(d time.Duration, fn func()) Handle {
	return &afterHandle{t: time.AfterFunc(d, fn)}
}

type everyHandle struct {
	once sync.Once
	done chan struct{}
}

func (h *everyHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Every runs fn with period d until the handle is stopped.
func (c *Clock) Every(d time.Duration, fn func()) Handle {
	h := &everyHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.done:
				return
			}
		}
	}()
	return h
}
