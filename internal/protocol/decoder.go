package protocol

import (
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/timer"
)

// DefaultQuietPeriod is how long the decoder waits for the rest of a
// partial escape sequence before reinterpreting buffered bytes literally.
const DefaultQuietPeriod = 10 * time.Millisecond

// Config configures a Decoder.
type Config struct {
	// OnKey receives decoded keyboard events, in byte order.
	OnKey func(key.Event)

	// OnMouse receives decoded mouse events, in byte order.
	OnMouse func(mouse.Event)

	// QuietPeriod is the watchdog timeout for partial sequences.
	// DefaultQuietPeriod when zero.
	QuietPeriod time.Duration

	// Scheduler drives the watchdog timer. Real clock when nil.
	Scheduler timer.Scheduler

	// Logger reports resynchronization drops. No-op when nil.
	Logger *zap.Logger
}

// Decoder incrementally decodes a raw terminal byte stream into keyboard
// and mouse events. Feed may deliver bytes at arbitrary boundaries; bytes
// that do not yet form a complete token stay buffered until more input
// arrives or the quiet-period watchdog forces literal reinterpretation.
//
// A Decoder is exclusive to one input session. All callbacks fire
// synchronously inside Feed (or inside the watchdog callback).
type Decoder struct {
	mu       sync.Mutex
	cfg      Config
	buf      []byte
	watchdog timer.Handle
	pasting  bool
	closed   bool
}

// token is one decoded event, keyboard or mouse.
type token struct {
	isMouse bool
	key     key.Event
	mouse   mouse.Event
}

// New creates a Decoder.
func New(cfg Config) *Decoder {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = timer.NewClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Decoder{cfg: cfg}
}

// Feed appends raw bytes and synchronously emits every event they
// complete. Unconsumed trailing bytes are kept for the next Feed; a
// watchdog resolves them literally after the quiet period.
func (d *Decoder) Feed(p []byte) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopWatchdogLocked()
	d.buf = append(d.buf, p...)
	tokens := d.drainLocked(false)
	if len(d.buf) > 0 {
		d.watchdog = d.cfg.Scheduler.After(d.cfg.QuietPeriod, d.flushResidual)
	}
	d.mu.Unlock()

	d.emit(tokens)
}

// Flush forces immediate literal resolution of any buffered bytes,
// as if the quiet period had elapsed.
func (d *Decoder) Flush() {
	d.flushResidual()
}

// Close cancels the watchdog and drops buffered bytes. Idempotent.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopWatchdogLocked()
	d.buf = nil
}

// Buffered returns the number of unresolved bytes. Test hook.
func (d *Decoder) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}

func (d *Decoder) flushResidual() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopWatchdogLocked()
	tokens := d.drainLocked(true)
	d.mu.Unlock()

	d.emit(tokens)
}

func (d *Decoder) stopWatchdogLocked() {
	if d.watchdog != nil {
		d.watchdog.Stop()
		d.watchdog = nil
	}
}

// emit delivers tokens outside the decoder lock so handlers can feed
// more input without deadlocking.
func (d *Decoder) emit(tokens []token) {
	for _, t := range tokens {
		if t.isMouse {
			if d.cfg.OnMouse != nil {
				d.cfg.OnMouse(t.mouse)
			}
		} else if d.cfg.OnKey != nil {
			d.cfg.OnKey(t.key)
		}
	}
}

// drainLocked consumes tokens from the front of the accumulator until it
// is empty or a structurally incomplete token is found. With force set,
// nothing is considered incomplete: residual escape bytes resolve to
// literal Escape presses and partial runes are dropped.
func (d *Decoder) drainLocked(force bool) []token {
	var out []token
	for len(d.buf) > 0 {
		toks, n, incomplete := d.consume(d.buf, force)
		if incomplete {
			break
		}
		if n == 0 {
			// Defensive: always make progress.
			n = 1
		}
		d.buf = d.buf[n:]
		out = append(out, toks...)
	}
	if force {
		// Anything force mode could not resolve is unrecoverable.
		d.buf = nil
	}
	return out
}

// consume decodes one token from the front of b.
// Returns the decoded tokens (usually zero or one), the number of bytes
// consumed, and whether the front of b is a structurally incomplete
// sequence that needs more input.
func (d *Decoder) consume(b []byte, force bool) ([]token, int, bool) {
	if d.pasting {
		return d.consumePaste(b, force)
	}

	if b[0] == 0x1b {
		return d.consumeEscape(b, force)
	}

	return d.consumeLiteral(b, force)
}

// consumeEscape handles everything introduced by ESC.
func (d *Decoder) consumeEscape(b []byte, force bool) ([]token, int, bool) {
	if force {
		// Quiet period elapsed: this escape will never complete.
		return keyTokens(key.NewSpecialEvent(key.KeyEscape, key.ModNone)), 1, false
	}
	if len(b) < 2 {
		return nil, 0, true
	}

	switch {
	case b[1] == '[':
		return d.consumeCSI(b)
	case b[1] == 'O':
		return d.consumeSS3(b)
	case b[1] >= 0x20 && b[1] < 0x7f:
		// ESC + printable is Alt+key.
		r := rune(b[1])
		mods := key.ModAlt
		if unicode.IsUpper(r) {
			mods |= key.ModShift
		}
		ev := key.NewRuneEvent(r, mods).WithRaw(string(b[:2]))
		return keyTokens(ev), 2, false
	default:
		// ESC followed by a control byte: a bare Escape keypress.
		return keyTokens(key.NewSpecialEvent(key.KeyEscape, key.ModNone)), 1, false
	}
}

// consumeLiteral handles control bytes, DEL and printable runes.
func (d *Decoder) consumeLiteral(b []byte, force bool) ([]token, int, bool) {
	c := b[0]

	if c < 0x20 || c == 0x7f {
		if ev, ok := controlEvent(c); ok {
			return keyTokens(ev), 1, false
		}
		// No grammar matches: drop the byte to stay synchronized.
		d.cfg.Logger.Debug("dropping unrecognized control byte", zap.Uint8("byte", c))
		return nil, 1, false
	}

	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size == 1 {
		if !force && utf8.RuneStart(c) && len(b) < utf8.UTFMax {
			// Possible partial multi-byte rune at the buffer end.
			return nil, 0, true
		}
		d.cfg.Logger.Debug("dropping invalid utf-8 byte", zap.Uint8("byte", c))
		return nil, 1, false
	}

	var mods key.Modifier
	if unicode.IsUpper(r) {
		mods = key.ModShift
	}
	return keyTokens(key.NewRuneEvent(r, mods)), size, false
}

// consumePaste handles bytes between bracketed-paste markers. Everything
// is literal until the end marker; the marker itself emits nothing.
func (d *Decoder) consumePaste(b []byte, force bool) ([]token, int, bool) {
	if b[0] == 0x1b {
		n, complete := matchPrefix(b, pasteEnd)
		switch {
		case complete:
			d.pasting = false
			return nil, n, false
		case n > 0 && !force:
			// Partial end marker at the buffer end.
			return nil, 0, true
		}
		// Not the end marker: a literal escape inside the paste.
		return keyTokens(key.NewSpecialEvent(key.KeyEscape, key.ModNone)), 1, false
	}
	return d.consumeLiteral(b, force)
}

var pasteEnd = []byte("\x1b[201~")

// matchPrefix reports how much of pattern matches the front of b.
// complete is true when all of pattern is present; n is the matched length.
func matchPrefix(b, pattern []byte) (n int, complete bool) {
	for i := 0; i < len(pattern); i++ {
		if i >= len(b) {
			return i, false
		}
		if b[i] != pattern[i] {
			return 0, false
		}
	}
	return len(pattern), true
}

// controlEvent maps a control byte or DEL to a named key event.
func controlEvent(c byte) (key.Event, bool) {
	switch c {
	case 0x00:
		return key.NewRuneEvent(' ', key.ModCtrl), true // Ctrl+Space
	case 0x08:
		return key.NewSpecialEvent(key.KeyBackspace, key.ModNone), true
	case 0x09:
		return key.NewSpecialEvent(key.KeyTab, key.ModNone), true
	case 0x0a, 0x0d:
		return key.NewSpecialEvent(key.KeyEnter, key.ModNone), true
	case 0x1b:
		return key.NewSpecialEvent(key.KeyEscape, key.ModNone), true
	case 0x7f:
		return key.NewSpecialEvent(key.KeyBackspace, key.ModNone), true
	}
	if c >= 0x01 && c <= 0x1a {
		return key.NewRuneEvent(rune('a'+c-1), key.ModCtrl), true
	}
	return key.Event{}, false
}

func keyTokens(ev key.Event) []token {
	return []token{{key: ev}}
}

func mouseTokens(ev mouse.Event) []token {
	return []token{{isMouse: true, mouse: ev}}
}
