package key

import "testing"

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"enter", KeyEnter},
		{"Return", KeyEnter},
		{"ESC", KeyEscape},
		{"pgup", KeyPageUp},
		{"f11", KeyF11},
		{"nonsense", KeyNone},
	}

	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKeyPredicates(t *testing.T) {
	if !KeyUp.IsArrowKey() || KeyHome.IsArrowKey() {
		t.Error("IsArrowKey misclassified")
	}
	if !KeyHome.IsNavigationKey() || !KeyPageDown.IsNavigationKey() {
		t.Error("IsNavigationKey misclassified")
	}
	if !KeyF7.IsFunctionKey() || KeyTab.IsFunctionKey() {
		t.Error("IsFunctionKey misclassified")
	}
	if KeyRune.IsSpecial() || !KeyDelete.IsSpecial() {
		t.Error("IsSpecial misclassified")
	}
}
