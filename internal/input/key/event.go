package key

import (
	"fmt"
	"strings"
	"unicode"
)

// State describes the phase of a key event. Terminals that speak the kitty
// keyboard protocol report repeat and release phases; everything else only
// ever produces StatePress.
type State uint8

const (
	// StatePress is the initial key-down event.
	StatePress State = iota
	// StateRepeat is an auto-repeat while the key is held.
	StateRepeat
	// StateRelease is the key-up event.
	StateRelease
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePress:
		return "press"
	case StateRepeat:
		return "repeat"
	case StateRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Event represents a single keyboard event.
type Event struct {
	// Key identifies the key.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// State is the event phase (press, repeat, release).
	State State

	// Raw is the escape sequence the event was decoded from, when it came
	// off the wire as one. Empty for plain literal input.
	Raw string
}

// NewRuneEvent creates a press event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a press event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// WithState returns a copy of the event with the given state.
func (e Event) WithState(s State) Event {
	e.State = s
	return e
}

// WithRaw returns a copy of the event carrying the originating sequence.
func (e Event) WithRaw(raw string) Event {
	e.Raw = raw
	return e
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable character.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune)
}

// IsModified returns true if any modifier is pressed.
// For character events, Shift alone is not considered modified
// (since Shift changes the character itself).
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// IsPress returns true for the initial key-down phase.
func (e Event) IsPress() bool {
	return e.State == StatePress
}

// Chord returns the canonical chord name for the event, ignoring state.
// Examples: "a", "A", "Ctrl+s", "Shift+Tab", "Alt+Enter".
// Bindings are keyed by this form.
func (e Event) Chord() string {
	var parts []string

	if e.Modifiers.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "Alt")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "Meta")
	}
	// Shift is part of the character itself for rune events.
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "Shift")
	}

	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		parts = append(parts, "Space")
	case e.Key == KeyRune:
		parts = append(parts, string(e.Rune))
	default:
		parts = append(parts, e.Key.String())
	}

	return strings.Join(parts, "+")
}

// String returns the chord name plus the state when it is not a press.
func (e Event) String() string {
	if e.State == StatePress {
		return e.Chord()
	}
	return fmt.Sprintf("%s(%s)", e.Chord(), e.State)
}

// Equals returns true if two events represent the same key in the same
// phase. The raw sequence is not compared.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers &&
		e.State == other.State
}

// Matches checks if this event matches a key specification string.
// State is ignored; a spec names a chord, not a phase.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Chord() == parsed.Chord()
}

// IsEscape returns true if this is the Escape key with no modifiers.
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// IsTab returns true if this is Tab with no modifiers.
func (e Event) IsTab() bool {
	return e.Key == KeyTab && e.Modifiers == ModNone
}

// IsShiftTab returns true if this is Shift+Tab (backtab).
func (e Event) IsShiftTab() bool {
	return e.Key == KeyTab && e.Modifiers == ModShift
}
