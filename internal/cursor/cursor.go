package cursor

import (
	"sync"

	"github.com/dshills/termflux/internal/focus"
	"github.com/dshills/termflux/internal/reactive"
	"github.com/dshills/termflux/internal/slot"
)

// Cursor is one slot's cursor. It resolves its visibility from three
// inputs, in precedence order: a manual override when set, the shared
// blink phase while blinking, and a steady visible state otherwise. The
// resolved value is published through a reactive cell for renderers.
type Cursor struct {
	mu sync.Mutex

	co        *Coordinator
	frequency float64
	resolved  *reactive.Cell[bool]

	override  *bool
	phase     *reactive.Cell[bool]
	stopBlink func()
	disposed  bool
}

// NewCursor creates a non-blinking, visible cursor on the coordinator.
func NewCursor(co *Coordinator, frequency float64) *Cursor {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	return &Cursor{
		co:        co,
		frequency: frequency,
		resolved:  reactive.NewCell(true),
	}
}

// Cell exposes the resolved visibility for observers.
func (c *Cursor) Cell() *reactive.Cell[bool] {
	return c.resolved
}

// Visible returns the resolved visibility right now.
func (c *Cursor) Visible() bool {
	return c.resolved.Get()
}

// StartBlink subscribes the cursor to its frequency's blink clock.
// No-op while already blinking or after disposal.
func (c *Cursor) StartBlink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.stopBlink != nil {
		return
	}

	phase, unsubscribe := c.co.Subscribe(c.frequency)
	cancel := phase.Subscribe(func(bool) { c.refresh() })
	c.phase = phase
	c.stopBlink = func() {
		cancel()
		unsubscribe()
	}
	c.refreshLocked()
}

// StopBlink leaves the blink clock and returns the cursor to steady
// visibility (unless an override says otherwise). Idempotent.
func (c *Cursor) StopBlink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopBlinkLocked()
}

func (c *Cursor) stopBlinkLocked() {
	if c.stopBlink == nil {
		return
	}
	c.stopBlink()
	c.stopBlink = nil
	c.phase = nil
	c.refreshLocked()
}

// SetOverride forces the cursor visible or hidden regardless of blink
// phase.
func (c *Cursor) SetOverride(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = &visible
	c.refreshLocked()
}

// ClearOverride removes the manual override, returning control to the
// blink phase.
func (c *Cursor) ClearOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = nil
	c.refreshLocked()
}

// Blinking reports whether the cursor currently holds a blink
// subscription.
func (c *Cursor) Blinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopBlink != nil
}

// Attach ties the cursor's blink lifetime to a slot's focus: blinking
// starts on focus and stops on blur. The returned remove function
// detaches the callbacks and is idempotent.
func (c *Cursor) Attach(m *focus.Machine, id slot.ID) (remove func()) {
	return m.RegisterCallbacks(id, focus.Callbacks{
		OnFocus: c.StartBlink,
		OnBlur:  c.StopBlink,
	})
}

// Dispose releases the blink subscription permanently. Safe to call more
// than once, and safe as a teardown hook after the owning slot is gone;
// repeated calls never decrement the clock's reference count twice.
func (c *Cursor) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.stopBlinkLocked()
}

// refresh recomputes resolved visibility after a phase tick. Runs
// outside the cursor lock paths that already hold it.
func (c *Cursor) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

func (c *Cursor) refreshLocked() {
	switch {
	case c.override != nil:
		c.resolved.Set(*c.override)
	case c.phase != nil:
		c.resolved.Set(c.phase.Get())
	default:
		c.resolved.Set(true)
	}
}
