package dispatch

import (
	"os"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/focus"
	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/scroll"
	"github.com/dshills/termflux/internal/slot"
)

// DefaultExitChord is the built-in shortcut that tears the input
// subsystem down and terminates the process.
const DefaultExitChord = "Ctrl+c"

// Config wires an Orchestrator. Keyboard, Mouse, Focus, Scroll and
// Registry are required; the rest have defaults.
type Config struct {
	Keyboard *KeyboardRegistry
	Mouse    *MouseRegistry
	Focus    *focus.Machine
	Scroll   *scroll.Controller
	Registry slot.Registry

	// ExitChord overrides DefaultExitChord; Exit overrides the default
	// os.Exit(0) and should tear down the terminal state first.
	ExitChord string
	Exit      func()
	Logger    *zap.Logger
}

// Orchestrator is the single entry point from decoded events into the
// rest of the system. For keyboard events it applies a fixed precedence:
// exit shortcut, tab cycling, focused-slot handlers, bound and global
// handlers, then built-in navigation defaults; each stage only runs if
// nothing upstream consumed the event. Wheel events reach the scroll
// controller before the mouse registry sees them.
type Orchestrator struct {
	keys   *KeyboardRegistry
	mice   *MouseRegistry
	focus  *focus.Machine
	scroll *scroll.Controller
	reg    slot.Registry

	exitChord string
	exit      func()
	logger    *zap.Logger
}

// New creates an Orchestrator from the config.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		keys:      cfg.Keyboard,
		mice:      cfg.Mouse,
		focus:     cfg.Focus,
		scroll:    cfg.Scroll,
		reg:       cfg.Registry,
		exitChord: cfg.ExitChord,
		exit:      cfg.Exit,
		logger:    cfg.Logger,
	}
	if o.exitChord == "" {
		o.exitChord = DefaultExitChord
	}
	if o.exit == nil {
		o.exit = func() { os.Exit(0) }
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// HandleKey routes one keyboard event through the precedence chain.
func (o *Orchestrator) HandleKey(ev key.Event) {
	defer o.recovered("keyboard")

	// The exit shortcut fires on every state, including release, so a
	// wedged application cannot swallow it.
	if ev.Chord() == o.exitChord {
		o.exit()
		return
	}

	focused := o.focus.Focused()

	if ev.State != key.StatePress {
		// Repeat and release go to handlers only; no built-in defaults.
		if o.keys.DispatchFocused(focused, ev) {
			return
		}
		o.keys.Dispatch(ev)
		return
	}

	// Tab cycling is always consumed, even when the move fails.
	if ev.IsTab() {
		o.focus.FocusNext()
		return
	}
	if ev.IsShiftTab() {
		o.focus.FocusPrevious()
		return
	}

	if o.keys.DispatchFocused(focused, ev) {
		return
	}
	if o.keys.Dispatch(ev) {
		return
	}
	o.navigate(ev, focused)
}

// navigate applies the built-in scroll defaults against the focused
// slot, chaining to ancestors at boundaries.
func (o *Orchestrator) navigate(ev key.Event, focused slot.ID) {
	if focused.IsNone() || ev.Modifiers != 0 {
		return
	}

	page := o.scroll.PageLines()
	switch ev.Key {
	case key.KeyUp:
		o.scroll.ScrollByChained(focused, 0, -1)
	case key.KeyDown:
		o.scroll.ScrollByChained(focused, 0, 1)
	case key.KeyLeft:
		o.scroll.ScrollByChained(focused, -1, 0)
	case key.KeyRight:
		o.scroll.ScrollByChained(focused, 1, 0)
	case key.KeyPageUp:
		o.scroll.ScrollByChained(focused, 0, -page)
	case key.KeyPageDown:
		o.scroll.ScrollByChained(focused, 0, page)
	case key.KeyHome:
		o.scroll.SetOffset(focused, o.scroll.Offset(focused).X, 0)
	case key.KeyEnd:
		if bounds, ok := o.reg.ScrollBounds(focused); ok {
			o.scroll.SetOffset(focused, o.scroll.Offset(focused).X, bounds.MaxY)
		}
	}
}

// HandleMouse routes one mouse event. The target slot is resolved
// spatially when the decoder could not attach one. Wheel events drive
// the scroll controller first; the registry always sees the event
// afterwards, consumed or not.
func (o *Orchestrator) HandleMouse(ev mouse.Event) {
	defer o.recovered("mouse")

	if ev.Target.IsNone() {
		if id, ok := o.reg.SlotAt(ev.Position.X, ev.Position.Y); ok {
			ev.Target = id
		}
	}

	if ev.IsScroll() && !ev.Target.IsNone() {
		dy := ev.Scroll.Delta
		if ev.Scroll.Direction == mouse.ScrollUp {
			dy = -dy
		}
		o.scroll.ScrollByChained(ev.Target, 0, dy)
	}

	o.mice.Dispatch(ev)
}

// recovered is the outermost safety net: a panic escaping the handler
// chain is logged and the event abandoned, never the process.
func (o *Orchestrator) recovered(kind string) {
	if rec := recover(); rec != nil {
		o.logger.Error("event dispatch panicked",
			zap.String("kind", kind),
			zap.Any("panic", rec))
	}
}
