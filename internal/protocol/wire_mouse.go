package protocol

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/slot"
)

// Button-byte bit layout shared by the SGR and X10 encodings:
// low 2 bits base button, bit 2 Shift, bit 3 Alt, bit 4 Ctrl,
// bit 5 motion, bit 6 wheel.
const (
	mouseShiftBit  = 1 << 2
	mouseAltBit    = 1 << 3
	mouseCtrlBit   = 1 << 4
	mouseMotionBit = 1 << 5
	mouseWheelBit  = 1 << 6
)

// consumeSGRMouse decodes ESC [ < button ; x ; y M|m.
func (d *Decoder) consumeSGRMouse(b []byte) ([]token, int, bool) {
	// Scan for the terminator.
	i := 3
	for i < len(b) {
		c := b[i]
		if c == 'M' || c == 'm' {
			break
		}
		if (c < '0' || c > '9') && c != ';' {
			d.cfg.Logger.Debug("dropping malformed SGR mouse sequence", zap.Uint8("byte", c))
			return nil, 3, false
		}
		i++
	}
	if i == len(b) {
		return nil, 0, true
	}

	terminator := b[i]
	consumed := i + 1

	fields := strings.Split(string(b[3:i]), ";")
	if len(fields) != 3 {
		d.cfg.Logger.Debug("dropping SGR mouse sequence with wrong field count",
			zap.Int("fields", len(fields)))
		return nil, consumed, false
	}
	button, err1 := strconv.Atoi(fields[0])
	x, err2 := strconv.Atoi(fields[1])
	y, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, consumed, false
	}

	// Wire coordinates are 1-based.
	ev := buttonByteEvent(button, terminator == 'm')
	ev.Position = mouse.Position{X: x - 1, Y: y - 1}
	return mouseTokens(ev), consumed, false
}

// consumeX10Mouse decodes the legacy ESC [ M b x y format: three raw
// bytes offset by 32 (button) and 33 (coordinates).
func (d *Decoder) consumeX10Mouse(b []byte) ([]token, int, bool) {
	if len(b) < 6 {
		return nil, 0, true
	}

	button := int(b[3]) - 32
	x := int(b[4]) - 33
	y := int(b[5]) - 33

	ev := buttonByteEvent(button, false)
	// X10 has no release terminator; base button 3 means the press ended.
	if !ev.IsScroll() && ev.Action != mouse.ActionMove && button&3 == 3 {
		ev.Action = mouse.ActionUp
		ev.Button = mouse.ButtonLeft
	}
	ev.Position = mouse.Position{X: x, Y: y}
	return mouseTokens(ev), 6, false
}

// buttonByteEvent decodes the shared button-byte semantics.
// release applies only to the SGR terminator distinction.
func buttonByteEvent(button int, release bool) mouse.Event {
	ev := mouse.Event{Target: slot.None}

	if button&mouseShiftBit != 0 {
		ev.Modifiers = ev.Modifiers.With(key.ModShift)
	}
	if button&mouseAltBit != 0 {
		ev.Modifiers = ev.Modifiers.With(key.ModAlt)
	}
	if button&mouseCtrlBit != 0 {
		ev.Modifiers = ev.Modifiers.With(key.ModCtrl)
	}

	base := button & 3

	switch {
	case button&mouseWheelBit != 0:
		ev.Action = mouse.ActionScroll
		ev.Button = mouse.ButtonWheel
		dir := mouse.ScrollUp
		if base&1 != 0 {
			dir = mouse.ScrollDown
		}
		ev.Scroll = mouse.Scroll{Direction: dir, Delta: 1}

	case button&mouseMotionBit != 0:
		if base == 3 {
			ev.Action = mouse.ActionMove
			ev.Button = mouse.ButtonWheel // reserved value: no button held
		} else {
			ev.Action = mouse.ActionDrag
			ev.Button = mouse.Button(base)
		}

	default:
		ev.Button = mouse.Button(base)
		if release {
			ev.Action = mouse.ActionUp
		} else {
			ev.Action = mouse.ActionDown
		}
	}

	return ev
}
