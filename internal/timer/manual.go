package timer

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven explicitly by tests. Nothing fires until
// Advance moves the synthetic clock forward; due callbacks then run
// synchronously, in deadline order, on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	entries []*manualEntry
	nextSeq int
}

type manualEntry struct {
	deadline time.Duration
	period   time.Duration // 0 for one-shot
	fn       func()
	stopped  bool
	seq      int
}

func (e *manualEntry) Stop() {
	e.stopped = true
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After schedules fn once, d from the current synthetic time.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

// Every schedules fn at interval d of synthetic time.
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &manualEntry{deadline: m.now + d, period: period, fn: fn, seq: m.nextSeq}
	m.nextSeq++
	m.entries = append(m.entries, e)
	return e
}

// Advance moves the clock forward by d, firing every callback whose
// deadline is reached, in deadline order. Repeating callbacks fire once
// per elapsed period.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		e := m.nextDue(target)
		if e == nil {
			break
		}
		e.fn()
	}

	m.mu.Lock()
	m.now = target
	m.compact()
	m.mu.Unlock()
}

// nextDue pops the earliest entry due at or before target, advancing the
// clock to its deadline and rescheduling it if periodic.
func (m *Manual) nextDue(target time.Duration) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due *manualEntry
	for _, e := range m.entries {
		if e.stopped || e.deadline > target {
			continue
		}
		if due == nil || e.deadline < due.deadline ||
			(e.deadline == due.deadline && e.seq < due.seq) {
			due = e
		}
	}
	if due == nil {
		return nil
	}

	m.now = due.deadline
	if due.period > 0 {
		due.deadline += due.period
	} else {
		due.stopped = true
	}
	return due
}

// compact drops stopped entries.
func (m *Manual) compact() {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if !e.stopped {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	sort.Slice(m.entries, func(i, j int) bool {
		return m.entries[i].deadline < m.entries[j].deadline
	})
}

// Pending returns the number of live scheduled callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}
