package key

import "testing"

func TestChord(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"plain rune", NewRuneEvent('a', ModNone), "a"},
		{"uppercase rune", NewRuneEvent('A', ModShift), "A"},
		{"ctrl rune", NewRuneEvent('s', ModCtrl), "Ctrl+s"},
		{"space", NewRuneEvent(' ', ModNone), "Space"},
		{"special", NewSpecialEvent(KeyEnter, ModNone), "Enter"},
		{"shift tab", NewSpecialEvent(KeyTab, ModShift), "Shift+Tab"},
		{"alt arrow", NewSpecialEvent(KeyUp, ModAlt), "Alt+Up"},
		{"ctrl alt special", NewSpecialEvent(KeyDelete, ModCtrl|ModAlt), "Ctrl+Alt+Delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Chord(); got != tt.want {
				t.Errorf("Chord() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventStateString(t *testing.T) {
	ev := NewSpecialEvent(KeyEnter, ModNone)
	if got := ev.String(); got != "Enter" {
		t.Errorf("press String() = %q, want %q", got, "Enter")
	}
	if got := ev.WithState(StateRelease).String(); got != "Enter(release)" {
		t.Errorf("release String() = %q, want %q", got, "Enter(release)")
	}
}

func TestEventEquals(t *testing.T) {
	a := NewRuneEvent('x', ModCtrl)
	b := NewRuneEvent('x', ModCtrl).WithRaw("\x1b[120;5u")
	if !a.Equals(b) {
		t.Error("events differing only in Raw should be equal")
	}
	if a.Equals(b.WithState(StateRelease)) {
		t.Error("events differing in State should not be equal")
	}
}

func TestEventMatches(t *testing.T) {
	tests := []struct {
		event Event
		spec  string
		want  bool
	}{
		{NewRuneEvent('s', ModCtrl), "Ctrl+S", true},
		{NewRuneEvent('s', ModCtrl), "Ctrl+A", false},
		{NewSpecialEvent(KeyTab, ModShift), "Shift+Tab", true},
		{NewSpecialEvent(KeyTab, ModNone), "Tab", true},
		// State is ignored when matching specs.
		{NewSpecialEvent(KeyTab, ModNone).WithState(StateRelease), "Tab", true},
		{NewRuneEvent('q', ModNone), "not a key spec at all", false},
	}

	for _, tt := range tests {
		if got := tt.event.Matches(tt.spec); got != tt.want {
			t.Errorf("%v.Matches(%q) = %v, want %v", tt.event, tt.spec, got, tt.want)
		}
	}
}

func TestIsModified(t *testing.T) {
	if NewRuneEvent('A', ModShift).IsModified() {
		t.Error("Shift alone should not count as modified for rune events")
	}
	if !NewRuneEvent('a', ModCtrl).IsModified() {
		t.Error("Ctrl should count as modified")
	}
	if !NewSpecialEvent(KeyTab, ModShift).IsModified() {
		t.Error("Shift should count as modified for special keys")
	}
}
