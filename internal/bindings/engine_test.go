package bindings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/termflux/internal/dispatch"
	"github.com/dshills/termflux/internal/input/key"
)

func TestBindConsumesMatchingKey(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	script := `
		hits = 0
		bind("Ctrl+s", function(chord)
			hits = hits + 1
			return true
		end)
	`
	if err := e.DoString(script); err != nil {
		t.Fatal(err)
	}
	if e.BindingCount() != 1 {
		t.Fatalf("BindingCount = %d, want 1", e.BindingCount())
	}

	if !keys.Dispatch(key.NewRuneEvent('s', key.ModCtrl)) {
		t.Error("bound chord should be consumed")
	}
	if keys.Dispatch(key.NewRuneEvent('s', 0)) {
		t.Error("plain s should pass through")
	}
}

func TestHandlerReceivesChordString(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	script := `
		seen = ""
		bind("Alt+Enter", function(chord)
			seen = chord
			return true
		end)
	`
	if err := e.DoString(script); err != nil {
		t.Fatal(err)
	}
	keys.Dispatch(key.NewSpecialEvent(key.KeyEnter, key.ModAlt))

	e.mu.Lock()
	seen := e.state.GetGlobal("seen").String()
	e.mu.Unlock()
	if seen != "Alt+Enter" {
		t.Errorf("handler saw %q, want Alt+Enter", seen)
	}
}

func TestFalsyReturnLeavesEventUnconsumed(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	if err := e.DoString(`bind("Enter", function() return false end)`); err != nil {
		t.Fatal(err)
	}
	if keys.Dispatch(key.NewSpecialEvent(key.KeyEnter, 0)) {
		t.Error("falsy handler return must not consume")
	}
}

func TestScriptErrorDoesNotConsume(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	if err := e.DoString(`bind("Enter", function() error("broken") end)`); err != nil {
		t.Fatal(err)
	}
	if keys.Dispatch(key.NewSpecialEvent(key.KeyEnter, 0)) {
		t.Error("a failing handler must not consume the event")
	}
}

func TestBadSpecFailsScript(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	if err := e.DoString(`bind("Hyper+x", function() return true end)`); err == nil {
		t.Error("unknown modifier should surface as a script error")
	}
}

func TestSandboxExcludesSystemLibraries(t *testing.T) {
	e := NewEngine(dispatch.NewKeyboardRegistry(nil), nil)
	defer e.Close()

	for _, lib := range []string{"io", "os", "debug", "package"} {
		if err := e.DoString(lib + `.x()`); err == nil {
			t.Errorf("%s should not be available", lib)
		}
	}
}

func TestDoFile(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)
	defer e.Close()

	path := filepath.Join(t.TempDir(), "bindings.lua")
	if err := os.WriteFile(path, []byte(`bind("F1", function() return true end)`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.DoFile(path); err != nil {
		t.Fatal(err)
	}
	if !keys.Dispatch(key.NewSpecialEvent(key.KeyF1, 0)) {
		t.Error("file-scripted binding should consume F1")
	}
}

func TestCloseRemovesBindingsAndIsIdempotent(t *testing.T) {
	keys := dispatch.NewKeyboardRegistry(nil)
	e := NewEngine(keys, nil)

	if err := e.DoString(`bind("F2", function() return true end)`); err != nil {
		t.Fatal(err)
	}
	e.Close()
	e.Close()

	if keys.Dispatch(key.NewSpecialEvent(key.KeyF2, 0)) {
		t.Error("binding should be gone after Close")
	}
	if err := e.DoString(`x = 1`); err == nil {
		t.Error("scripts must fail after Close")
	}
}
