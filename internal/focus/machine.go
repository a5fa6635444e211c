// Package focus implements the focus state machine: which slot currently
// holds keyboard focus, how Tab cycling walks the focusable set, modal
// focus traps, and history-based restoration with stale-slot detection.
package focus

import (
	"sync"

	"github.com/dshills/termflux/internal/reactive"
	"github.com/dshills/termflux/internal/slot"
)

// DefaultHistoryDepth bounds the focus history stack.
const DefaultHistoryDepth = 10

// maxTrapDepth caps the parent-chain walk used for trap containment, in
// case the registry reports a parent cycle.
const maxTrapDepth = 64

// Callbacks are fired around focus transitions for one slot.
// Either field may be nil.
type Callbacks struct {
	OnFocus func()
	OnBlur  func()
}

type callbackEntry struct {
	id int
	cb Callbacks
}

type historyEntry struct {
	slot     slot.ID
	identity string
}

// Machine owns the focused-slot cell, the trap stack and the bounded
// focus history. All slot attributes are read fresh from the registry on
// every operation; the machine holds no cached view of the component tree.
type Machine struct {
	mu sync.Mutex

	reg       slot.Registry
	focused   *reactive.Cell[slot.ID]
	callbacks map[slot.ID][]callbackEntry
	nextID    int

	traps        []slot.ID
	history      []historyEntry
	historyDepth int
}

// Option configures a Machine.
type Option func(*Machine)

// WithHistoryDepth overrides the focus history bound.
func WithHistoryDepth(depth int) Option {
	return func(m *Machine) {
		if depth > 0 {
			m.historyDepth = depth
		}
	}
}

// New creates a Machine with nothing focused.
func New(reg slot.Registry, opts ...Option) *Machine {
	m := &Machine{
		reg:          reg,
		focused:      reactive.NewCell(slot.None),
		callbacks:    make(map[slot.ID][]callbackEntry),
		historyDepth: DefaultHistoryDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cell exposes the focused-slot cell for observers (renderers, tests).
func (m *Machine) Cell() *reactive.Cell[slot.ID] {
	return m.focused
}

// Focused returns the currently focused slot, slot.None when nothing is.
func (m *Machine) Focused() slot.ID {
	return m.focused.Get()
}

// IsFocused reports whether the given slot holds focus.
func (m *Machine) IsFocused(id slot.ID) bool {
	return m.focused.Get() == id
}

// HasFocus reports whether any slot holds focus.
func (m *Machine) HasFocus() bool {
	return !m.focused.Get().IsNone()
}

// RegisterCallbacks adds focus/blur callbacks for a slot. Multiple
// registrations per slot coexist; the returned remove function deletes
// exactly this registration and is idempotent.
func (m *Machine) RegisterCallbacks(id slot.ID, cb Callbacks) (remove func()) {
	m.mu.Lock()
	regID := m.nextID
	m.nextID++
	m.callbacks[id] = append(m.callbacks[id], callbackEntry{id: regID, cb: cb})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		entries := m.callbacks[id]
		for i, e := range entries {
			if e.id == regID {
				m.callbacks[id] = append(entries[:i], entries[i+1:]...)
				if len(m.callbacks[id]) == 0 {
					delete(m.callbacks, id)
				}
				return
			}
		}
	}
}

// Focus moves focus to the given slot. It fails if the slot is not
// focusable or is hidden. Focusing the already-focused slot succeeds
// without firing callbacks.
func (m *Machine) Focus(id slot.ID) bool {
	m.mu.Lock()
	if !m.reg.Focusable(id) || !slot.Visible(m.reg, id) {
		m.mu.Unlock()
		return false
	}
	old := m.focused.Get()
	if old == id {
		m.mu.Unlock()
		return true
	}
	m.pushHistoryLocked()
	blur, focus := m.transitionCallbacksLocked(old, id)
	m.mu.Unlock()

	m.fireTransition(blur, id, focus)
	return true
}

// Blur clears focus. Returns false when nothing was focused.
func (m *Machine) Blur() bool {
	m.mu.Lock()
	old := m.focused.Get()
	if old.IsNone() {
		m.mu.Unlock()
		return false
	}
	m.pushHistoryLocked()
	blur, focus := m.transitionCallbacksLocked(old, slot.None)
	m.mu.Unlock()

	m.fireTransition(blur, slot.None, focus)
	return true
}

// transitionCallbacksLocked snapshots the callback lists involved in a
// transition from old to next.
func (m *Machine) transitionCallbacksLocked(old, next slot.ID) (blur, focus []Callbacks) {
	if !old.IsNone() {
		for _, e := range m.callbacks[old] {
			blur = append(blur, e.cb)
		}
	}
	if !next.IsNone() {
		for _, e := range m.callbacks[next] {
			focus = append(focus, e.cb)
		}
	}
	return blur, focus
}

// fireTransition performs the atomic transition: blur the old slot,
// update the cell, focus the new slot. Runs outside the machine lock so
// callbacks can call back into the machine.
func (m *Machine) fireTransition(blur []Callbacks, next slot.ID, focus []Callbacks) {
	for _, cb := range blur {
		if cb.OnBlur != nil {
			cb.OnBlur()
		}
	}
	m.focused.Set(next)
	for _, cb := range focus {
		if cb.OnFocus != nil {
			cb.OnFocus()
		}
	}
}

// FocusNext moves focus to the next candidate in tab order, wrapping at
// the end. When nothing is focused (or the focused slot is no longer a
// candidate) it jumps to the first candidate.
func (m *Machine) FocusNext() bool {
	return m.step(true)
}

// FocusPrevious moves focus to the previous candidate in tab order,
// wrapping at the start.
func (m *Machine) FocusPrevious() bool {
	return m.step(false)
}

func (m *Machine) step(forward bool) bool {
	candidates := m.Candidates()
	if len(candidates) == 0 {
		return false
	}

	current := m.focused.Get()
	pos := -1
	for i, id := range candidates {
		if id == current {
			pos = i
			break
		}
	}

	var target slot.ID
	switch {
	case pos < 0 && forward:
		target = candidates[0]
	case pos < 0:
		target = candidates[len(candidates)-1]
	case forward:
		target = candidates[(pos+1)%len(candidates)]
	default:
		target = candidates[(pos-1+len(candidates))%len(candidates)]
	}

	if target == current {
		return false
	}
	return m.Focus(target)
}
