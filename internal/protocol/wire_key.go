package protocol

import (
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/input/key"
)

// CSI byte classes per ECMA-48: parameter bytes 0x30-0x3F, intermediate
// bytes 0x20-0x2F, final byte 0x40-0x7E.
func isCSIParam(c byte) bool        { return c >= 0x30 && c <= 0x3f }
func isCSIIntermediate(c byte) bool { return c >= 0x20 && c <= 0x2f }
func isCSIFinal(c byte) bool        { return c >= 0x40 && c <= 0x7e }

// consumeCSI decodes a control sequence starting at ESC [.
func (d *Decoder) consumeCSI(b []byte) ([]token, int, bool) {
	if len(b) < 3 {
		return nil, 0, true
	}

	// Mouse sub-formats are detected by the third byte.
	if b[2] == '<' {
		return d.consumeSGRMouse(b)
	}
	if b[2] == 'M' {
		return d.consumeX10Mouse(b)
	}

	// Scan for the final byte.
	i := 2
	for i < len(b) {
		c := b[i]
		if isCSIFinal(c) {
			break
		}
		if !isCSIParam(c) && !isCSIIntermediate(c) {
			// Malformed: drop the introducer and resynchronize on the rest.
			d.cfg.Logger.Debug("dropping malformed control sequence",
				zap.Uint8("byte", c))
			return nil, 2, false
		}
		i++
	}
	if i == len(b) {
		return nil, 0, true
	}

	final := b[i]
	params := string(b[2:i])
	raw := string(b[:i+1])
	consumed := i + 1

	if final == 'u' {
		return d.kittyKey(params, raw, consumed)
	}

	ev, ok := csiKey(final, params)
	if !ok {
		d.cfg.Logger.Debug("ignoring unrecognized control sequence",
			zap.String("sequence", raw))
		return nil, consumed, false
	}

	// Bracketed-paste markers emit no events.
	if ev.Key == keyPasteStart {
		d.pasting = true
		return nil, consumed, false
	}

	return keyTokens(ev.WithRaw(raw)), consumed, false
}

// keyPasteStart is an internal marker returned by csiKey for ESC[200~.
// It never leaves the decoder.
const keyPasteStart = key.Key(0xffff)

// csiKey resolves a CSI final byte plus parameter string to a key event.
func csiKey(final byte, params string) (key.Event, bool) {
	fields := strings.Split(params, ";")
	mods := key.ModNone
	if len(fields) >= 2 {
		if v, err := strconv.Atoi(fields[1]); err == nil {
			mods = key.FromWire(v)
		}
	}

	switch final {
	case 'A':
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case 'B':
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case 'C':
		return key.NewSpecialEvent(key.KeyRight, mods), true
	case 'D':
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case 'H':
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case 'F':
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case 'Z':
		return key.NewSpecialEvent(key.KeyTab, mods.With(key.ModShift)), true
	case 'P':
		return key.NewSpecialEvent(key.KeyF1, mods), true
	case 'Q':
		return key.NewSpecialEvent(key.KeyF2, mods), true
	case 'R':
		return key.NewSpecialEvent(key.KeyF3, mods), true
	case 'S':
		return key.NewSpecialEvent(key.KeyF4, mods), true
	case '~':
		if len(fields) == 0 || fields[0] == "" {
			return key.Event{}, false
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			return key.Event{}, false
		}
		if k, ok := tildeKeys[num]; ok {
			return key.NewSpecialEvent(k, mods), true
		}
		if num == 200 {
			return key.Event{Key: keyPasteStart}, true
		}
		if num == 201 {
			// Stray end marker outside a paste; ignore.
			return key.Event{}, false
		}
		return key.Event{}, false
	}
	return key.Event{}, false
}

// tildeKeys is the secondary numeric table for CSI <n> ~ sequences.
var tildeKeys = map[int]key.Key{
	1:  key.KeyHome,
	2:  key.KeyInsert,
	3:  key.KeyDelete,
	4:  key.KeyEnd,
	5:  key.KeyPageUp,
	6:  key.KeyPageDown,
	7:  key.KeyHome,
	8:  key.KeyEnd,
	11: key.KeyF1,
	12: key.KeyF2,
	13: key.KeyF3,
	14: key.KeyF4,
	15: key.KeyF5,
	17: key.KeyF6,
	18: key.KeyF7,
	19: key.KeyF8,
	20: key.KeyF9,
	21: key.KeyF10,
	23: key.KeyF11,
	24: key.KeyF12,
}

// ss3Keys maps SS3 final bytes to keys.
var ss3Keys = map[byte]key.Key{
	'A': key.KeyUp,
	'B': key.KeyDown,
	'C': key.KeyRight,
	'D': key.KeyLeft,
	'H': key.KeyHome,
	'F': key.KeyEnd,
	'P': key.KeyF1,
	'Q': key.KeyF2,
	'R': key.KeyF3,
	'S': key.KeyF4,
}

// consumeSS3 decodes an ESC O sequence.
func (d *Decoder) consumeSS3(b []byte) ([]token, int, bool) {
	if len(b) < 3 {
		return nil, 0, true
	}
	if k, ok := ss3Keys[b[2]]; ok {
		ev := key.NewSpecialEvent(k, key.ModNone).WithRaw(string(b[:3]))
		return keyTokens(ev), 3, false
	}
	d.cfg.Logger.Debug("ignoring unrecognized SS3 sequence", zap.Uint8("final", b[2]))
	return nil, 3, false
}

// kittyKey decodes the kitty extended keyboard protocol:
// CSI codepoint ; modifiers[:event-type] [; text] u.
func (d *Decoder) kittyKey(params, raw string, consumed int) ([]token, int, bool) {
	fields := strings.Split(params, ";")
	if len(fields) == 0 || fields[0] == "" {
		return nil, consumed, false
	}

	// The codepoint field may carry shifted/base alternates after colons;
	// only the primary codepoint matters here.
	cpField, _, _ := strings.Cut(fields[0], ":")
	cp, err := strconv.Atoi(cpField)
	if err != nil || cp <= 0 {
		d.cfg.Logger.Debug("ignoring malformed kitty sequence", zap.String("sequence", raw))
		return nil, consumed, false
	}

	mods := key.ModNone
	state := key.StatePress
	if len(fields) >= 2 && fields[1] != "" {
		modField, eventField, _ := strings.Cut(fields[1], ":")
		if v, err := strconv.Atoi(modField); err == nil {
			mods = key.FromWire(v)
		}
		switch eventField {
		case "2":
			state = key.StateRepeat
		case "3":
			state = key.StateRelease
		}
	}

	ev, ok := kittyCodepointEvent(cp, mods)
	if !ok {
		d.cfg.Logger.Debug("ignoring unmapped kitty codepoint", zap.Int("codepoint", cp))
		return nil, consumed, false
	}
	return keyTokens(ev.WithState(state).WithRaw(raw)), consumed, false
}

// kittyCodepointEvent maps a kitty codepoint to a key event.
func kittyCodepointEvent(cp int, mods key.Modifier) (key.Event, bool) {
	switch cp {
	case 9:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case 10, 13:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case 27:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case 127:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	}
	if cp < 0x20 || !utf8ValidCodepoint(cp) {
		return key.Event{}, false
	}
	r := rune(cp)
	if unicode.IsUpper(r) {
		mods = mods.With(key.ModShift)
	}
	return key.NewRuneEvent(r, mods), true
}

func utf8ValidCodepoint(cp int) bool {
	return cp <= 0x10ffff && (cp < 0xd800 || cp > 0xdfff)
}
