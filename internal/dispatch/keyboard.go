// Package dispatch routes typed input events to handlers: keyboard and
// mouse registries with last-event cells and ordered handler chains, and
// an orchestrator that applies the built-in precedence (exit shortcut,
// tab cycling, focused handlers, bound handlers, navigation defaults).
package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/reactive"
	"github.com/dshills/termflux/internal/slot"
)

// KeyHandler processes one keyboard event. Returning true consumes the
// event and short-circuits the rest of its chain.
type KeyHandler func(key.Event) bool

type keyEntry struct {
	id int
	h  KeyHandler
}

// KeyboardRegistry holds keyboard handlers in three tiers: handlers
// bound to an exact key chord, handlers scoped to a focused slot, and
// global handlers. Each tier preserves registration order. Dispatch
// iterates over snapshots, so handlers may register or deregister other
// handlers mid-dispatch.
type KeyboardRegistry struct {
	mu sync.Mutex

	last    *reactive.Cell[key.Event]
	bound   map[string][]keyEntry
	global  []keyEntry
	focused map[slot.ID][]keyEntry
	nextID  int

	logger *zap.Logger
}

// NewKeyboardRegistry creates an empty registry. A nil logger disables
// handler-fault reporting.
func NewKeyboardRegistry(logger *zap.Logger) *KeyboardRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyboardRegistry{
		last:    reactive.NewCell(key.Event{}),
		bound:   make(map[string][]keyEntry),
		focused: make(map[slot.ID][]keyEntry),
		logger:  logger,
	}
}

// Last exposes the most recently dispatched event. The cell updates on
// every Dispatch call whether or not a handler consumes the event.
func (r *KeyboardRegistry) Last() *reactive.Cell[key.Event] {
	return r.last
}

// Bind registers a handler for one key chord, given in key-spec form
// ("Ctrl+S", "Shift+Tab", "Enter"). The remove function deletes exactly
// this registration and is idempotent.
func (r *KeyboardRegistry) Bind(spec string, h KeyHandler) (remove func(), err error) {
	ev, err := key.Parse(spec)
	if err != nil {
		return nil, err
	}
	chord := ev.Chord()

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.bound[chord] = append(r.bound[chord], keyEntry{id: id, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.bound[chord] = removeEntry(r.bound[chord], id)
		if len(r.bound[chord]) == 0 {
			delete(r.bound, chord)
		}
	}, nil
}

// OnKey registers a global handler, called for every event not consumed
// by a chord-bound handler.
func (r *KeyboardRegistry) OnKey(h KeyHandler) (remove func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.global = append(r.global, keyEntry{id: id, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.global = removeEntry(r.global, id)
	}
}

// OnFocused registers a handler that only sees events while the given
// slot holds focus.
func (r *KeyboardRegistry) OnFocused(id slot.ID, h KeyHandler) (remove func()) {
	r.mu.Lock()
	regID := r.nextID
	r.nextID++
	r.focused[id] = append(r.focused[id], keyEntry{id: regID, h: h})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.focused[id] = removeEntry(r.focused[id], regID)
		if len(r.focused[id]) == 0 {
			delete(r.focused, id)
		}
	}
}

// Dispatch updates the last-event cell, then runs chord-bound handlers
// followed by global handlers, stopping at the first one that consumes
// the event.
func (r *KeyboardRegistry) Dispatch(ev key.Event) bool {
	r.last.Set(ev)

	r.mu.Lock()
	chain := append(snapshot(r.bound[ev.Chord()]), snapshot(r.global)...)
	r.mu.Unlock()

	return r.run(chain, ev)
}

// DispatchFocused runs only the handlers scoped to the given slot. It
// does not touch the last-event cell; the orchestrator calls it ahead of
// Dispatch for the same event.
func (r *KeyboardRegistry) DispatchFocused(id slot.ID, ev key.Event) bool {
	if id.IsNone() {
		return false
	}
	r.mu.Lock()
	chain := snapshot(r.focused[id])
	r.mu.Unlock()

	return r.run(chain, ev)
}

func (r *KeyboardRegistry) run(chain []KeyHandler, ev key.Event) bool {
	for _, h := range chain {
		if r.call(h, ev) {
			return true
		}
	}
	return false
}

// call invokes one handler, containing any panic so the rest of the
// chain still runs.
func (r *KeyboardRegistry) call(h KeyHandler, ev key.Event) (consumed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			consumed = false
			r.logger.Error("key handler panicked",
				zap.Any("panic", rec),
				zap.String("key", ev.String()))
		}
	}()
	return h(ev)
}

// Reset drops every handler and clears the last-event cell.
func (r *KeyboardRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = make(map[string][]keyEntry)
	r.global = nil
	r.focused = make(map[slot.ID][]keyEntry)
	r.last.Reset(key.Event{})
}

func removeEntry(entries []keyEntry, id int) []keyEntry {
	for i, e := range entries {
		if e.id == id {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

func snapshot(entries []keyEntry) []KeyHandler {
	if len(entries) == 0 {
		return nil
	}
	out := make([]KeyHandler, len(entries))
	for i, e := range entries {
		out[i] = e.h
	}
	return out
}
