package focus

import (
	"sort"

	"github.com/dshills/termflux/internal/slot"
)

// Candidates returns the ordered focus-cycling candidate list: every
// allocated slot that is focusable and visible, restricted to the active
// trap's descendants when a trap is set, stable-sorted by tab order with
// allocation order breaking ties.
func (m *Machine) Candidates() []slot.ID {
	m.mu.Lock()
	trap := slot.None
	if len(m.traps) > 0 {
		trap = m.traps[len(m.traps)-1]
	}
	m.mu.Unlock()

	var out []slot.ID
	for _, id := range m.reg.Slots() {
		if !m.reg.Focusable(id) || !slot.Visible(m.reg, id) {
			continue
		}
		if !trap.IsNone() && !m.within(id, trap) {
			continue
		}
		out = append(out, id)
	}

	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := m.reg.TabOrder(out[i]), m.reg.TabOrder(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}

// within reports whether id is container or one of its descendants,
// walking the registry's parent chain.
func (m *Machine) within(id, container slot.ID) bool {
	for depth := 0; depth < maxTrapDepth; depth++ {
		if id == container {
			return true
		}
		parent, ok := m.reg.Parent(id)
		if !ok {
			return false
		}
		id = parent
	}
	return false
}

// PushTrap confines focus cycling to the container's descendants until
// the trap is popped. Traps nest; the most recent one is active.
func (m *Machine) PushTrap(container slot.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traps = append(m.traps, container)
}

// PopTrap removes the active trap. Returns the popped container, or
// false when no trap was active.
func (m *Machine) PopTrap() (slot.ID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.traps) == 0 {
		return slot.None, false
	}
	top := m.traps[len(m.traps)-1]
	m.traps = m.traps[:len(m.traps)-1]
	return top, true
}

// ActiveTrap returns the container of the active trap, if any.
func (m *Machine) ActiveTrap() (slot.ID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.traps) == 0 {
		return slot.None, false
	}
	return m.traps[len(m.traps)-1], true
}
