// Package main is a small interactive demo of the termflux input
// subsystem: three focusable panes, Tab cycling, arrow/wheel scrolling
// and a blinking cursor on the focused field. Run it in a terminal and
// press Ctrl+C (or -exit-key) to quit.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/termflux/internal/config"
	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/runtime"
	"github.com/dshills/termflux/internal/slot"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		bindingPath = flag.String("bindings", "", "path to a Lua key-binding script")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := runtime.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	reg := slot.NewMemoryRegistry()
	rt := runtime.New(cfg,
		runtime.WithRegistry(reg),
		runtime.WithLogger(logger),
	)
	defer rt.Close()

	panes := buildPanes(reg)
	wireStatusLine(rt, reg)

	if *bindingPath != "" {
		if err := rt.LoadBindings(*bindingPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	cur := rt.NewCursor(panes[0])
	cur.Cell().Subscribe(func(visible bool) {
		if visible {
			fmt.Print("cursor: on \r")
		} else {
			fmt.Print("cursor: off\r")
		}
	})

	if err := rt.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start input: %v\n", err)
		return 1
	}
	fmt.Printf("termflux demo — Tab cycles focus, arrows scroll, %s exits\r\n", cfg.ExitKey)

	// The exit shortcut terminates via the runtime; signals cover the
	// non-interactive case.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return 0
}

// buildPanes allocates three slots: two scrollable panes and a text
// field, laid out side by side.
func buildPanes(reg *slot.MemoryRegistry) []slot.ID {
	left := reg.Allocate("pane-left")
	reg.SetFocusable(left, true)
	reg.SetTabOrder(left, 1)
	reg.SetScrollBounds(left, slot.Bounds{Scrollable: true, MaxY: 100})
	reg.SetRect(left, 0, 1, 40, 20)

	right := reg.Allocate("pane-right")
	reg.SetFocusable(right, true)
	reg.SetTabOrder(right, 2)
	reg.SetScrollBounds(right, slot.Bounds{Scrollable: true, MaxY: 100})
	reg.SetRect(right, 40, 1, 40, 20)

	field := reg.Allocate("input-field")
	reg.SetFocusable(field, true)
	reg.SetTabOrder(field, 3)
	reg.SetRect(field, 0, 21, 80, 1)

	return []slot.ID{field, left, right}
}

// wireStatusLine prints one line per interesting event so the demo has
// visible output without a full renderer.
func wireStatusLine(rt *runtime.Runtime, reg *slot.MemoryRegistry) {
	rt.Focus().Cell().Subscribe(func(id slot.ID) {
		if id.IsNone() {
			fmt.Print("focus: none\r\n")
			return
		}
		name, _ := reg.Identity(id)
		fmt.Printf("focus: %s (scroll y=%d)\r\n", name, rt.Scroll().Offset(id).Y)
	})

	rt.Keyboard().OnKey(func(ev key.Event) bool {
		fmt.Printf("key: %s\r\n", ev)
		return false
	})

	rt.OnClick(func(ev mouse.Event, kind mouse.ClickKind) {
		name := "nowhere"
		if target, ok := reg.SlotAt(ev.Position.X, ev.Position.Y); ok {
			name, _ = reg.Identity(target)
		}
		fmt.Printf("click: %v on %s at (%d,%d)\r\n", kind, name, ev.Position.X, ev.Position.Y)
	})
}
