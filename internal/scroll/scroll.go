// Package scroll implements per-slot scroll-offset state with bounded
// movement, ancestor chaining, and scroll-into-view adjustment. Bounds
// come from the slot registry on every query so layout changes are
// picked up immediately.
package scroll

import (
	"sync"

	"github.com/dshills/termflux/internal/slot"
)

// DefaultPageLines is the number of lines a Page Up/Down moves when no
// override is configured.
const DefaultPageLines = 10

// maxChainDepth caps the ancestor walk in ScrollByChained, in case the
// registry reports a parent cycle.
const maxChainDepth = 64

// Offset is a two-axis scroll position in cells.
type Offset struct {
	X int
	Y int
}

// Controller owns scroll offsets for all slots. Bounds (scrollable flag
// and per-axis maxima) are never cached; each operation reads them fresh
// from the registry.
type Controller struct {
	mu        sync.Mutex
	reg       slot.Registry
	offsets   map[slot.ID]Offset
	pageLines int
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageLines overrides the page-scroll amount.
func WithPageLines(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageLines = n
		}
	}
}

// New creates a Controller with all offsets at origin.
func New(reg slot.Registry, opts ...Option) *Controller {
	c := &Controller{
		reg:       reg,
		offsets:   make(map[slot.ID]Offset),
		pageLines: DefaultPageLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageLines returns the configured page-scroll amount.
func (c *Controller) PageLines() int {
	return c.pageLines
}

// Offset returns the current scroll offset for a slot. Slots never
// scrolled report the origin.
func (c *Controller) Offset(id slot.ID) Offset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offsets[id]
}

// SetOffset sets a slot's scroll offset, clamping both axes into
// [0, max]. No-op when the slot is not scrollable.
func (c *Controller) SetOffset(id slot.ID, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(id, x, y)
}

func (c *Controller) setLocked(id slot.ID, x, y int) bool {
	bounds, ok := c.reg.ScrollBounds(id)
	if !ok || !bounds.Scrollable {
		return false
	}
	next := Offset{
		X: clamp(x, 0, bounds.MaxX),
		Y: clamp(y, 0, bounds.MaxY),
	}
	if next == c.offsets[id] {
		return false
	}
	c.offsets[id] = next
	return true
}

// ScrollBy moves a slot's offset by the given delta and reports whether
// the offset actually changed. A slot already at the boundary (or not
// scrollable at all) returns false.
func (c *Controller) ScrollBy(id slot.ID, dx, dy int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.offsets[id]
	return c.setLocked(id, cur.X+dx, cur.Y+dy)
}

// ScrollByChained moves the slot by the delta, retrying on each ancestor
// in turn when the current slot is at a boundary. Returns true as soon
// as some slot in the chain absorbs the delta.
func (c *Controller) ScrollByChained(id slot.ID, dx, dy int) bool {
	for depth := 0; depth < maxChainDepth; depth++ {
		if c.ScrollBy(id, dx, dy) {
			return true
		}
		parent, ok := c.reg.Parent(id)
		if !ok {
			return false
		}
		id = parent
	}
	return false
}

// ScrollIntoView adjusts the slot's vertical offset by the minimum
// needed to bring a child's span [childTop, childTop+childHeight) fully
// inside the viewport. Already-visible children leave the offset alone.
// Children above the viewport align to their top; children below align
// so their bottom edge meets the viewport bottom. The regular clamp
// still applies.
func (c *Controller) ScrollIntoView(id slot.ID, childTop, childHeight, viewportHeight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.offsets[id]
	switch {
	case childTop < cur.Y:
		c.setLocked(id, cur.X, childTop)
	case childTop+childHeight > cur.Y+viewportHeight:
		c.setLocked(id, cur.X, childTop+childHeight-viewportHeight)
	}
}

// Release drops a slot's offset state. Call when the slot is freed so a
// later occupant of the same slot starts at origin.
func (c *Controller) Release(id slot.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.offsets, id)
}

// Reset returns every slot to the origin.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets = make(map[slot.ID]Offset)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
