// Package runtime assembles the input subsystem: slot registry, protocol
// decoder, focus machine, scroll controller, event registries, blink
// coordinator and the orchestrator, wired per a single Config. It owns
// the terminal session (raw mode, mouse reporting) and the teardown
// order.
package runtime

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/termflux/internal/bindings"
	"github.com/dshills/termflux/internal/config"
	"github.com/dshills/termflux/internal/cursor"
	"github.com/dshills/termflux/internal/dispatch"
	"github.com/dshills/termflux/internal/focus"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/protocol"
	"github.com/dshills/termflux/internal/scroll"
	"github.com/dshills/termflux/internal/slot"
	"github.com/dshills/termflux/internal/timer"
)

// Terminal control sequences written on session start/stop.
const (
	mouseEnable  = "\x1b[?1002h\x1b[?1006h" // button tracking + SGR encoding
	mouseDisable = "\x1b[?1006l\x1b[?1002l"
	kittyEnable  = "\x1b[>1u" // progressive keyboard enhancement
	kittyDisable = "\x1b[<u"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithRegistry substitutes the slot registry. Default is an empty
// MemoryRegistry.
func WithRegistry(reg slot.Registry) Option {
	return func(r *Runtime) { r.reg = reg }
}

// WithScheduler substitutes the timer scheduler; tests pass a manual
// one.
func WithScheduler(sched timer.Scheduler) Option {
	return func(r *Runtime) { r.sched = sched }
}

// WithTerminal sets the input and output files. Defaults are stdin and
// stdout.
func WithTerminal(in, out *os.File) Option {
	return func(r *Runtime) {
		r.in = in
		r.out = out
	}
}

// WithExit replaces the exit-shortcut action. The default tears the
// session down and calls os.Exit(0).
func WithExit(exit func()) Option {
	return func(r *Runtime) { r.exit = exit }
}

// Runtime is the assembled input subsystem. Exactly one Runtime should
// drive a terminal at a time.
type Runtime struct {
	mu sync.Mutex

	cfg    config.Config
	logger *zap.Logger
	sched  timer.Scheduler
	in     *os.File
	out    *os.File
	exit   func()

	reg     slot.Registry
	focus   *focus.Machine
	scroll  *scroll.Controller
	keys    *dispatch.KeyboardRegistry
	mice    *dispatch.MouseRegistry
	orch    *dispatch.Orchestrator
	blink   *cursor.Coordinator
	clicks  *mouse.ClickTracker
	decoder *protocol.Decoder

	clickHandlers []func(mouse.Event, mouse.ClickKind)
	teardowns     []func()
	restore       func()
	started       bool
	closed        bool
}

// New assembles a Runtime from the config.
func New(cfg config.Config, opts ...Option) *Runtime {
	r := &Runtime{
		cfg:    cfg,
		logger: zap.NewNop(),
		sched:  timer.NewClock(),
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.reg == nil {
		r.reg = slot.NewMemoryRegistry()
	}
	if r.exit == nil {
		r.exit = func() {
			r.Close()
			os.Exit(0)
		}
	}

	r.focus = focus.New(r.reg, focus.WithHistoryDepth(cfg.HistoryDepth))
	r.scroll = scroll.New(r.reg, scroll.WithPageLines(cfg.PageScrollLines))
	r.keys = dispatch.NewKeyboardRegistry(r.logger)
	r.mice = dispatch.NewMouseRegistry(r.logger)
	r.blink = cursor.NewCoordinator(r.sched)
	r.clicks = mouse.NewClickTracker(cfg.DoubleClickWindow, nil)

	r.orch = dispatch.New(dispatch.Config{
		Keyboard:  r.keys,
		Mouse:     r.mice,
		Focus:     r.focus,
		Scroll:    r.scroll,
		Registry:  r.reg,
		ExitChord: cfg.ExitChord(),
		Exit:      r.exit,
		Logger:    r.logger,
	})
	r.decoder = protocol.New(protocol.Config{
		OnKey:       r.orch.HandleKey,
		OnMouse:     r.handleMouse,
		QuietPeriod: cfg.QuietPeriod,
		Scheduler:   r.sched,
		Logger:      r.logger,
	})
	return r
}

// Accessors for the assembled components.

func (r *Runtime) Registry() slot.Registry              { return r.reg }
func (r *Runtime) Focus() *focus.Machine                { return r.focus }
func (r *Runtime) Scroll() *scroll.Controller           { return r.scroll }
func (r *Runtime) Keyboard() *dispatch.KeyboardRegistry { return r.keys }
func (r *Runtime) Mouse() *dispatch.MouseRegistry       { return r.mice }
func (r *Runtime) Orchestrator() *dispatch.Orchestrator { return r.orch }

// NewCursor creates a cursor on the shared blink coordinator, ties its
// blinking to the slot's focus, and registers disposal as a teardown
// safety net.
func (r *Runtime) NewCursor(id slot.ID) *cursor.Cursor {
	c := cursor.NewCursor(r.blink, r.cfg.BlinkFrequency)
	detach := c.Attach(r.focus, id)
	r.OnTeardown(func() {
		detach()
		c.Dispose()
	})
	return c
}

// LoadBindings runs a Lua key-binding script against the keyboard
// registry. The script's engine is closed during runtime teardown.
func (r *Runtime) LoadBindings(path string) error {
	e := bindings.NewEngine(r.keys, r.logger)
	if err := e.DoFile(path); err != nil {
		e.Close()
		return err
	}
	r.OnTeardown(e.Close)
	return nil
}

// OnClick registers an observer for classified clicks (single, double,
// triple).
func (r *Runtime) OnClick(fn func(mouse.Event, mouse.ClickKind)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clickHandlers = append(r.clickHandlers, fn)
}

// OnTeardown registers a hook run once during Close, in reverse
// registration order.
func (r *Runtime) OnTeardown(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardowns = append(r.teardowns, fn)
}

// handleMouse classifies clicks before orchestration.
func (r *Runtime) handleMouse(ev mouse.Event) {
	if ev.Action == mouse.ActionDown {
		kind := r.clicks.Press(ev.Button, ev.Position)
		r.mu.Lock()
		handlers := append([]func(mouse.Event, mouse.ClickKind){}, r.clickHandlers...)
		r.mu.Unlock()
		for _, fn := range handlers {
			fn(ev, kind)
		}
	}
	r.orch.HandleMouse(ev)
}

// Start claims the terminal: raw mode, mouse reporting, keyboard
// enhancement, and a reader goroutine feeding the decoder. When stdin is
// not a terminal the subsystem stays disabled and Start returns nil;
// events can still be injected with Feed.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return nil
	}

	fd := int(r.in.Fd())
	if !term.IsTerminal(fd) {
		r.logger.Info("input disabled: not a terminal")
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	r.restore = func() { _ = term.Restore(fd, oldState) }
	r.started = true

	if r.cfg.MouseEnabled {
		_, _ = r.out.WriteString(mouseEnable)
	}
	_, _ = r.out.WriteString(kittyEnable)

	go r.readLoop()
	return nil
}

// readLoop pumps raw bytes from the terminal into the decoder until the
// stream ends or the runtime closes.
func (r *Runtime) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := r.in.Read(buf)
		if n > 0 {
			r.decoder.Feed(buf[:n])
		}
		if err != nil {
			return
		}
		r.mu.Lock()
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return
		}
	}
}

// Feed injects raw bytes directly into the decoder, bypassing the
// terminal. Used by tests and embedding applications.
func (r *Runtime) Feed(p []byte) {
	r.decoder.Feed(p)
}

// Close releases the terminal and runs teardown hooks. Idempotent.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	started := r.started
	restore := r.restore
	teardowns := r.teardowns
	r.teardowns = nil
	r.mu.Unlock()

	r.decoder.Close()

	if started {
		_, _ = r.out.WriteString(kittyDisable)
		if r.cfg.MouseEnabled {
			_, _ = r.out.WriteString(mouseDisable)
		}
	}
	if restore != nil {
		restore()
	}

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
	r.blink.Reset()
	_ = r.logger.Sync()
}

// Reset returns every component to its initial state without releasing
// the terminal. Test isolation hook.
func (r *Runtime) Reset() {
	r.keys.Reset()
	r.mice.Reset()
	r.focus.Reset()
	r.scroll.Reset()
	r.blink.Reset()
	r.clicks.Reset()
}
