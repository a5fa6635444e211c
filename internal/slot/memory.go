package slot

import (
	"sort"
	"sync"
)

// entry holds the mutable attributes of one allocated slot.
type entry struct {
	identity  string
	focusable bool
	visible   Visibility
	tabOrder  int
	parent    ID
	hasParent bool
	bounds    Bounds
	rect      rect
	hasRect   bool
}

type rect struct {
	x, y, w, h int
}

// MemoryRegistry is an in-memory Registry implementation.
//
// It reproduces the allocation behavior of the real component registry:
// slot numbers are recycled lowest-first after release, so a slot index can
// come back with a different identity. Tests and the demo binary use it as
// the external collaborator.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[ID]*entry
	order   []ID
	free    []ID
	next    ID
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[ID]*entry)}
}

// Allocate claims a slot for a component with the given identity.
// Released slot numbers are reused lowest-first.
func (m *MemoryRegistry) Allocate(identity string) ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id ID
	if len(m.free) > 0 {
		sort.Slice(m.free, func(i, j int) bool { return m.free[i] < m.free[j] })
		id = m.free[0]
		m.free = m.free[1:]
	} else {
		id = m.next
		m.next++
	}

	m.entries[id] = &entry{identity: identity}
	m.order = append(m.order, id)
	return id
}

// Release frees a slot for reuse.
func (m *MemoryRegistry) Release(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return
	}
	delete(m.entries, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.free = append(m.free, id)
}

// SetFocusable marks a slot as accepting focus.
func (m *MemoryRegistry) SetFocusable(id ID, focusable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.focusable = focusable
	}
}

// SetVisibility sets a slot's visibility attribute.
func (m *MemoryRegistry) SetVisibility(id ID, v Visibility) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.visible = v
	}
}

// SetTabOrder sets a slot's explicit tab order.
func (m *MemoryRegistry) SetTabOrder(id ID, order int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.tabOrder = order
	}
}

// SetParent records a slot's container.
func (m *MemoryRegistry) SetParent(id, parent ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.parent = parent
		e.hasParent = true
	}
}

// SetScrollBounds records a slot's layout-computed scroll bounds.
func (m *MemoryRegistry) SetScrollBounds(id ID, b Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.bounds = b
	}
}

// SetRect records a slot's screen rectangle for hit testing.
// Later calls win overlap, matching paint order.
func (m *MemoryRegistry) SetRect(id ID, x, y, w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.rect = rect{x: x, y: y, w: w, h: h}
		e.hasRect = true
	}
}

// Slots returns all allocated slots in allocation order.
func (m *MemoryRegistry) Slots() []ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ID, len(m.order))
	copy(out, m.order)
	return out
}

// Focusable reports whether a slot accepts focus.
func (m *MemoryRegistry) Focusable(id ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return ok && e.focusable
}

// Visibility returns a slot's visibility attribute.
func (m *MemoryRegistry) Visibility(id ID) Visibility {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.visible
	}
	return VisibilityUnset
}

// TabOrder returns a slot's explicit tab order, 0 when unset.
func (m *MemoryRegistry) TabOrder(id ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.tabOrder
	}
	return 0
}

// Identity returns the identity currently bound to a slot.
func (m *MemoryRegistry) Identity(id ID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.identity, true
	}
	return "", false
}

// Parent returns a slot's container, if recorded.
func (m *MemoryRegistry) Parent(id ID) (ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok && e.hasParent {
		return e.parent, true
	}
	return None, false
}

// ScrollBounds returns a slot's recorded scroll bounds.
func (m *MemoryRegistry) ScrollBounds(id ID) (Bounds, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.bounds, true
	}
	return Bounds{}, false
}

// SlotAt returns the most recently placed slot covering (x, y).
func (m *MemoryRegistry) SlotAt(x, y int) (ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		id := m.order[i]
		e := m.entries[id]
		if !e.hasRect {
			continue
		}
		r := e.rect
		if x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h {
			return id, true
		}
	}
	return None, false
}
