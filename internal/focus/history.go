package focus

import "github.com/dshills/termflux/internal/slot"

// SaveToHistory records the current focus (slot plus the identity bound
// to it right now) so it can be restored later. No-op when nothing is
// focused. The oldest entry is evicted once the bound is exceeded.
func (m *Machine) SaveToHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushHistoryLocked()
}

func (m *Machine) pushHistoryLocked() {
	current := m.focused.Get()
	if current.IsNone() {
		return
	}
	identity, _ := m.reg.Identity(current)
	m.history = append(m.history, historyEntry{slot: current, identity: identity})
	if len(m.history) > m.historyDepth {
		m.history = m.history[len(m.history)-m.historyDepth:]
	}
}

// RestoreFromHistory pops entries until one still refers to the component
// it was saved for: the slot's current identity must match the recorded
// one (slot numbers are recycled, so an index alone is not proof), and
// the slot must still be focusable and visible. Stale entries are
// discarded silently. Returns false when the stack runs out.
func (m *Machine) RestoreFromHistory() bool {
	for {
		m.mu.Lock()
		if len(m.history) == 0 {
			m.mu.Unlock()
			return false
		}
		entry := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		m.mu.Unlock()

		identity, ok := m.reg.Identity(entry.slot)
		if !ok || identity != entry.identity {
			continue
		}
		if !m.reg.Focusable(entry.slot) || !slot.Visible(m.reg, entry.slot) {
			continue
		}
		return m.restore(entry.slot)
	}
}

// restore transitions focus without pushing the outgoing focus onto
// history; restoration consumes history, it does not grow it.
func (m *Machine) restore(id slot.ID) bool {
	m.mu.Lock()
	old := m.focused.Get()
	if old == id {
		m.mu.Unlock()
		return true
	}
	blur, focus := m.transitionCallbacksLocked(old, id)
	m.mu.Unlock()

	m.fireTransition(blur, id, focus)
	return true
}

// HistoryLen returns the number of saved entries. Test hook.
func (m *Machine) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Reset clears focus, traps, history and callbacks without firing
// callbacks. Used for test isolation and subsystem teardown.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused.Reset(slot.None)
	m.traps = nil
	m.history = nil
	m.callbacks = make(map[slot.ID][]callbackEntry)
}
