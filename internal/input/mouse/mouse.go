package mouse

import (
	"fmt"

	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/slot"
)

// Button represents a mouse button.
type Button uint8

const (
	// ButtonLeft is the primary (left) mouse button.
	ButtonLeft Button = iota
	// ButtonMiddle is the middle mouse button (scroll wheel click).
	ButtonMiddle
	// ButtonRight is the secondary (right) mouse button.
	ButtonRight
	// ButtonWheel is the reserved wheel pseudo-button carried by scroll
	// and motion reports.
	ButtonWheel
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonWheel:
		return "wheel"
	default:
		return fmt.Sprintf("button(%d)", b)
	}
}

// Action represents the type of mouse action.
type Action uint8

const (
	// ActionDown indicates a button press.
	ActionDown Action = iota
	// ActionUp indicates a button release.
	ActionUp
	// ActionMove indicates mouse movement with no button held.
	ActionMove
	// ActionDrag indicates movement while a button is held.
	ActionDrag
	// ActionScroll indicates a wheel event.
	ActionScroll
)

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionMove:
		return "move"
	case ActionDrag:
		return "drag"
	case ActionScroll:
		return "scroll"
	default:
		return fmt.Sprintf("action(%d)", a)
	}
}

// ScrollDirection is the direction of a wheel event.
type ScrollDirection uint8

const (
	// ScrollUp indicates scrolling up (content moves down).
	ScrollUp ScrollDirection = iota
	// ScrollDown indicates scrolling down (content moves up).
	ScrollDown
)

// String returns a string representation of the scroll direction.
func (d ScrollDirection) String() string {
	if d == ScrollUp {
		return "up"
	}
	return "down"
}

// Scroll carries the wheel payload of an ActionScroll event.
type Scroll struct {
	Direction ScrollDirection
	Delta     int
}

// Position is a zero-based screen cell coordinate.
type Position struct {
	X int
	Y int
}

// Event represents a single mouse event.
type Event struct {
	// Action is the kind of mouse activity.
	Action Action

	// Button is the button involved. ButtonWheel for scroll and motion.
	Button Button

	// Position is the zero-based cell the event occurred at.
	Position Position

	// Modifiers are the keyboard modifiers held during the event.
	// Only Shift, Alt and Ctrl are reported on the mouse wire.
	Modifiers key.Modifier

	// Scroll is the wheel payload for ActionScroll events.
	Scroll Scroll

	// Target is the slot under the cursor, resolved by the orchestrator
	// via the registry's hit test. slot.None when nothing was hit.
	Target slot.ID
}

// IsScroll returns true for wheel events.
func (e Event) IsScroll() bool {
	return e.Action == ActionScroll
}

// String returns a compact description for logs.
func (e Event) String() string {
	if e.IsScroll() {
		return fmt.Sprintf("scroll %s x%d @(%d,%d)", e.Scroll.Direction, e.Scroll.Delta, e.Position.X, e.Position.Y)
	}
	return fmt.Sprintf("%s %s @(%d,%d)", e.Button, e.Action, e.Position.X, e.Position.Y)
}
