package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/reactive"
	"github.com/dshills/termflux/internal/slot"
)

// MouseHandler processes one mouse event. Returning true consumes it.
type MouseHandler func(mouse.Event) bool

type mouseEntry struct {
	id int
	h  MouseHandler
}

// MouseRegistry holds mouse handlers: per-slot handlers matched against
// the event's target, then global handlers, each in registration order.
type MouseRegistry struct {
	mu sync.Mutex

	last    *reactive.Cell[mouse.Event]
	slotted map[slot.ID][]mouseEntry
	global  []mouseEntry
	nextID  int

	logger *zap.Logger
}

// NewMouseRegistry creates an empty registry.
func NewMouseRegistry(logger *zap.Logger) *MouseRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MouseRegistry{
		last:    reactive.NewCell(mouse.Event{Target: slot.None}),
		slotted: make(map[slot.ID][]mouseEntry),
		logger:  logger,
	}
}

// Last exposes the most recently dispatched mouse event.
func (r *MouseRegistry) Last() *reactive.Cell[mouse.Event] {
	return r.last
}

// OnSlot registers a handler that only sees events targeting the given
// slot.
func (r *MouseRegistry) OnSlot(id slot.ID, h MouseHandler) (remove func()) {
	r.mu.Lock()
	regID := r.nextID
	r.nextID++
	r.slotted[id] = append(r.slotted[id], mouseEntry{id: regID, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		entries := r.slotted[id]
		for i, e := range entries {
			if e.id == regID {
				r.slotted[id] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
		if len(r.slotted[id]) == 0 {
			delete(r.slotted, id)
		}
	}
}

// OnMouse registers a global handler.
func (r *MouseRegistry) OnMouse(h MouseHandler) (remove func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.global = append(r.global, mouseEntry{id: id, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.global {
			if e.id == id {
				r.global = append(r.global[:i], r.global[i+1:]...)
				return
			}
		}
	}
}

// Dispatch updates the last-event cell, then runs the target slot's
// handlers followed by the global handlers, stopping at the first
// consumer.
func (r *MouseRegistry) Dispatch(ev mouse.Event) bool {
	r.last.Set(ev)

	r.mu.Lock()
	var chain []MouseHandler
	if !ev.Target.IsNone() {
		for _, e := range r.slotted[ev.Target] {
			chain = append(chain, e.h)
		}
	}
	for _, e := range r.global {
		chain = append(chain, e.h)
	}
	r.mu.Unlock()

	for _, h := range chain {
		if r.call(h, ev) {
			return true
		}
	}
	return false
}

func (r *MouseRegistry) call(h MouseHandler, ev mouse.Event) (consumed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			consumed = false
			r.logger.Error("mouse handler panicked",
				zap.Any("panic", rec),
				zap.String("event", ev.String()))
		}
	}()
	return h(ev)
}

// Reset drops every handler and clears the last-event cell.
func (r *MouseRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slotted = make(map[slot.ID][]mouseEntry)
	r.global = nil
	r.last.Reset(mouse.Event{Target: slot.None})
}
