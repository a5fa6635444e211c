// Package reactive provides observable state cells with a subscribe/notify
// contract. Cells hold the framework's shared mutable state (focused slot,
// last event, blink phase) so that any number of consumers can observe the
// same value without owning it.
package reactive

import "sync"

// subscriberEntry pairs a callback with its registration id so a
// cancellation removes exactly its own entry.
type subscriberEntry[T any] struct {
	id int
	fn func(T)
}

// Cell is an observable value. Set replaces the value and notifies every
// subscriber, in registration order, with the new value. Subscribers may
// subscribe or unsubscribe other subscribers during notification; delivery
// for the in-flight notification iterates a stable snapshot.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	subs   []subscriberEntry[T]
	nextID int
}

// NewCell creates a cell holding the initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	snapshot := make([]subscriberEntry[T], len(c.subs))
	copy(snapshot, c.subs)
	c.mu.Unlock()

	for _, s := range snapshot {
		s.fn(v)
	}
}

// Subscribe registers fn to be called on every Set. The returned cancel
// function removes exactly this registration; it is idempotent and safe to
// call after the cell has been reset.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriberEntry[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (c *Cell[T]) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Reset replaces the value without notifying and drops all subscribers.
// Used for test isolation and subsystem teardown.
func (c *Cell[T]) Reset(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.subs = nil
}
