package protocol

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/termflux/internal/input/key"
	"github.com/dshills/termflux/internal/input/mouse"
	"github.com/dshills/termflux/internal/timer"
)

// collector records emitted events in order for assertions.
type collector struct {
	keys  []key.Event
	mice  []mouse.Event
	trace []string
}

func (c *collector) onKey(ev key.Event) {
	c.keys = append(c.keys, ev)
	c.trace = append(c.trace, "key:"+ev.String())
}

func (c *collector) onMouse(ev mouse.Event) {
	c.mice = append(c.mice, ev)
	c.trace = append(c.trace, "mouse:"+ev.String())
}

func newTestDecoder() (*Decoder, *collector, *timer.Manual) {
	col := &collector{}
	clock := timer.NewManual()
	d := New(Config{
		OnKey:       col.onKey,
		OnMouse:     col.onMouse,
		QuietPeriod: 10 * time.Millisecond,
		Scheduler:   clock,
	})
	return d, col, clock
}

func TestChunkBoundaryIndependence(t *testing.T) {
	stream := []byte("a\x1b[A\x1b[<0;11;6MZ\x1b[1;5C\x1bx\x1b[3~\x1bOPé\x1b[97;1:3u")

	chunkings := map[string][][]byte{
		"all at once":    {stream},
		"byte at a time": nil,
		"split mid-CSI":  {stream[:3], stream[3:]},
	}
	for i := range stream {
		chunkings["byte at a time"] = append(chunkings["byte at a time"], stream[i:i+1])
	}

	var want []string
	for name, chunks := range chunkings {
		t.Run(name, func(t *testing.T) {
			d, col, _ := newTestDecoder()
			for _, chunk := range chunks {
				d.Feed(chunk)
			}
			if d.Buffered() != 0 {
				t.Fatalf("Buffered() = %d after complete stream", d.Buffered())
			}
			if want == nil {
				want = col.trace
				return
			}
			if !reflect.DeepEqual(col.trace, want) {
				t.Errorf("event trace differs:\n got %v\nwant %v", col.trace, want)
			}
		})
	}
}

func TestSplitArrowResolvesOnce(t *testing.T) {
	d, col, clock := newTestDecoder()

	d.Feed([]byte{0x1b})
	if len(col.keys) != 0 {
		t.Fatalf("lone escape emitted %d events before quiet period", len(col.keys))
	}
	d.Feed([]byte("[A"))

	if len(col.keys) != 1 {
		t.Fatalf("got %d events, want 1", len(col.keys))
	}
	want := key.NewSpecialEvent(key.KeyUp, key.ModNone)
	if !col.keys[0].Equals(want) {
		t.Errorf("event = %v, want ArrowUp press", col.keys[0])
	}

	// Completion must have cancelled the watchdog.
	clock.Advance(time.Second)
	if len(col.keys) != 1 {
		t.Errorf("watchdog fired after completion, got %d events", len(col.keys))
	}
	if clock.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", clock.Pending())
	}
}

func TestBareEscapeResolvesAfterQuietPeriod(t *testing.T) {
	d, col, clock := newTestDecoder()

	d.Feed([]byte{0x1b})
	clock.Advance(9 * time.Millisecond)
	if len(col.keys) != 0 {
		t.Fatal("escape resolved before quiet period elapsed")
	}

	clock.Advance(time.Millisecond)
	if len(col.keys) != 1 || !col.keys[0].IsEscape() {
		t.Fatalf("events = %v, want exactly one Escape press", col.keys)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", d.Buffered())
	}
}

func TestResidualSequencePrefixFlushesLiterally(t *testing.T) {
	d, col, clock := newTestDecoder()

	// A CSI prefix that never completes.
	d.Feed([]byte("\x1b[1;5"))
	clock.Advance(10 * time.Millisecond)

	// ESC resolves to Escape; the rest are literal runes.
	if len(col.keys) != 5 {
		t.Fatalf("got %d events, want 5: %v", len(col.keys), col.trace)
	}
	if !col.keys[0].IsEscape() {
		t.Errorf("first event = %v, want Escape", col.keys[0])
	}
	for i, r := range []rune("[1;5") {
		got := col.keys[i+1]
		if got.Key != key.KeyRune || got.Rune != r {
			t.Errorf("event %d = %v, want rune %q", i+1, got, r)
		}
	}
}

func TestSGRMouseDown(t *testing.T) {
	d, col, _ := newTestDecoder()

	d.Feed([]byte("\x1b[<0;11;6M"))

	if len(col.mice) != 1 {
		t.Fatalf("got %d mouse events, want 1", len(col.mice))
	}
	ev := col.mice[0]
	if ev.Action != mouse.ActionDown || ev.Button != mouse.ButtonLeft {
		t.Errorf("action/button = %v/%v, want down/left", ev.Action, ev.Button)
	}
	if ev.Position.X != 10 || ev.Position.Y != 5 {
		t.Errorf("position = (%d,%d), want (10,5)", ev.Position.X, ev.Position.Y)
	}
}

func TestSGRMouseVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, ev mouse.Event)
	}{
		{"release", "\x1b[<2;5;5m", func(t *testing.T, ev mouse.Event) {
			if ev.Action != mouse.ActionUp || ev.Button != mouse.ButtonRight {
				t.Errorf("got %v/%v, want up/right", ev.Action, ev.Button)
			}
		}},
		{"wheel up", "\x1b[<64;1;1M", func(t *testing.T, ev mouse.Event) {
			if !ev.IsScroll() || ev.Scroll.Direction != mouse.ScrollUp {
				t.Errorf("got %v, want scroll up", ev)
			}
		}},
		{"wheel down", "\x1b[<65;1;1M", func(t *testing.T, ev mouse.Event) {
			if !ev.IsScroll() || ev.Scroll.Direction != mouse.ScrollDown {
				t.Errorf("got %v, want scroll down", ev)
			}
		}},
		{"drag", "\x1b[<32;4;4M", func(t *testing.T, ev mouse.Event) {
			if ev.Action != mouse.ActionDrag || ev.Button != mouse.ButtonLeft {
				t.Errorf("got %v/%v, want drag/left", ev.Action, ev.Button)
			}
		}},
		{"move", "\x1b[<35;4;4M", func(t *testing.T, ev mouse.Event) {
			if ev.Action != mouse.ActionMove {
				t.Errorf("got %v, want move", ev.Action)
			}
		}},
		{"ctrl shift click", "\x1b[<20;2;2M", func(t *testing.T, ev mouse.Event) {
			if !ev.Modifiers.HasCtrl() || !ev.Modifiers.HasShift() {
				t.Errorf("modifiers = %v, want Ctrl+Shift", ev.Modifiers)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, col, _ := newTestDecoder()
			d.Feed([]byte(tt.input))
			if len(col.mice) != 1 {
				t.Fatalf("got %d mouse events, want 1", len(col.mice))
			}
			tt.check(t, col.mice[0])
		})
	}
}

func TestX10Mouse(t *testing.T) {
	d, col, _ := newTestDecoder()

	// Button 0 press at wire (11, 6) -> cell (10, 5).
	d.Feed([]byte{0x1b, '[', 'M', 32 + 0, 33 + 10, 33 + 5})
	// Release (base button 3).
	d.Feed([]byte{0x1b, '[', 'M', 32 + 3, 33 + 10, 33 + 5})
	// Wheel down with Ctrl (64 | 1 | 16).
	d.Feed([]byte{0x1b, '[', 'M', 32 + 81, 33 + 0, 33 + 0})

	if len(col.mice) != 3 {
		t.Fatalf("got %d mouse events, want 3", len(col.mice))
	}
	down := col.mice[0]
	if down.Action != mouse.ActionDown || down.Button != mouse.ButtonLeft ||
		down.Position.X != 10 || down.Position.Y != 5 {
		t.Errorf("down = %v @(%d,%d)", down, down.Position.X, down.Position.Y)
	}
	if up := col.mice[1]; up.Action != mouse.ActionUp {
		t.Errorf("second event = %v, want up", up)
	}
	wheel := col.mice[2]
	if !wheel.IsScroll() || wheel.Scroll.Direction != mouse.ScrollDown || !wheel.Modifiers.HasCtrl() {
		t.Errorf("wheel = %v, want ctrl scroll down", wheel)
	}
}

func TestX10SplitAcrossFeeds(t *testing.T) {
	d, col, _ := newTestDecoder()

	d.Feed([]byte{0x1b, '[', 'M', 32})
	if len(col.mice) != 0 {
		t.Fatal("incomplete X10 sequence emitted an event")
	}
	d.Feed([]byte{33 + 2, 33 + 3})
	if len(col.mice) != 1 {
		t.Fatalf("got %d mouse events, want 1", len(col.mice))
	}
	if p := col.mice[0].Position; p.X != 2 || p.Y != 3 {
		t.Errorf("position = (%d,%d), want (2,3)", p.X, p.Y)
	}
}

func TestKittyProtocol(t *testing.T) {
	tests := []struct {
		input string
		want  key.Event
	}{
		{"\x1b[97;5u", key.NewRuneEvent('a', key.ModCtrl)},
		{"\x1b[97;1:2u", key.NewRuneEvent('a', key.ModNone).WithState(key.StateRepeat)},
		{"\x1b[97;1:3u", key.NewRuneEvent('a', key.ModNone).WithState(key.StateRelease)},
		{"\x1b[13;3u", key.NewSpecialEvent(key.KeyEnter, key.ModAlt)},
		{"\x1b[27;1u", key.NewSpecialEvent(key.KeyEscape, key.ModNone)},
		{"\x1b[9;6:3u", key.NewSpecialEvent(key.KeyTab, key.ModCtrl|key.ModShift).WithState(key.StateRelease)},
		{"\x1b[65;2u", key.NewRuneEvent('A', key.ModShift)},
	}

	for _, tt := range tests {
		t.Run(tt.input[1:], func(t *testing.T) {
			d, col, _ := newTestDecoder()
			d.Feed([]byte(tt.input))
			if len(col.keys) != 1 {
				t.Fatalf("got %d events, want 1", len(col.keys))
			}
			if !col.keys[0].Equals(tt.want) {
				t.Errorf("event = %#v, want %#v", col.keys[0], tt.want)
			}
			if col.keys[0].Raw != tt.input {
				t.Errorf("Raw = %q, want %q", col.keys[0].Raw, tt.input)
			}
		})
	}
}

func TestKeyboardSequences(t *testing.T) {
	tests := []struct {
		input string
		want  key.Event
	}{
		{"\x1b[A", key.NewSpecialEvent(key.KeyUp, key.ModNone)},
		{"\x1b[1;5C", key.NewSpecialEvent(key.KeyRight, key.ModCtrl)},
		{"\x1b[1;4H", key.NewSpecialEvent(key.KeyHome, key.ModAlt|key.ModShift)},
		{"\x1b[Z", key.NewSpecialEvent(key.KeyTab, key.ModShift)},
		{"\x1b[3~", key.NewSpecialEvent(key.KeyDelete, key.ModNone)},
		{"\x1b[5;3~", key.NewSpecialEvent(key.KeyPageUp, key.ModAlt)},
		{"\x1b[24~", key.NewSpecialEvent(key.KeyF12, key.ModNone)},
		{"\x1bOP", key.NewSpecialEvent(key.KeyF1, key.ModNone)},
		{"\x1bOF", key.NewSpecialEvent(key.KeyEnd, key.ModNone)},
	}

	for _, tt := range tests {
		t.Run(tt.input[1:], func(t *testing.T) {
			d, col, _ := newTestDecoder()
			d.Feed([]byte(tt.input))
			if len(col.keys) != 1 {
				t.Fatalf("got %d events, want 1: %v", len(col.keys), col.trace)
			}
			if !col.keys[0].Equals(tt.want) {
				t.Errorf("event = %#v, want %#v", col.keys[0], tt.want)
			}
			if col.keys[0].Raw != tt.input {
				t.Errorf("Raw = %q, want %q", col.keys[0].Raw, tt.input)
			}
		})
	}
}

func TestLiteralBytes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  key.Event
	}{
		{"plain rune", []byte("a"), key.NewRuneEvent('a', key.ModNone)},
		{"uppercase implies shift", []byte("A"), key.NewRuneEvent('A', key.ModShift)},
		{"ctrl letter", []byte{0x01}, key.NewRuneEvent('a', key.ModCtrl)},
		{"ctrl z", []byte{0x1a}, key.NewRuneEvent('z', key.ModCtrl)},
		{"ctrl space", []byte{0x00}, key.NewRuneEvent(' ', key.ModCtrl)},
		{"tab", []byte{0x09}, key.NewSpecialEvent(key.KeyTab, key.ModNone)},
		{"enter", []byte{0x0d}, key.NewSpecialEvent(key.KeyEnter, key.ModNone)},
		{"newline", []byte{0x0a}, key.NewSpecialEvent(key.KeyEnter, key.ModNone)},
		{"del is backspace", []byte{0x7f}, key.NewSpecialEvent(key.KeyBackspace, key.ModNone)},
		{"utf-8 rune", []byte("é"), key.NewRuneEvent('é', key.ModNone)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, col, _ := newTestDecoder()
			d.Feed(tt.input)
			if len(col.keys) != 1 {
				t.Fatalf("got %d events, want 1", len(col.keys))
			}
			if !col.keys[0].Equals(tt.want) {
				t.Errorf("event = %#v, want %#v", col.keys[0], tt.want)
			}
		})
	}
}

func TestAltKey(t *testing.T) {
	d, col, _ := newTestDecoder()

	d.Feed([]byte("\x1bx"))
	d.Feed([]byte("\x1bX"))

	if len(col.keys) != 2 {
		t.Fatalf("got %d events, want 2", len(col.keys))
	}
	if !col.keys[0].Equals(key.NewRuneEvent('x', key.ModAlt)) {
		t.Errorf("event = %#v, want Alt+x", col.keys[0])
	}
	if !col.keys[1].Equals(key.NewRuneEvent('X', key.ModAlt|key.ModShift)) {
		t.Errorf("event = %#v, want Alt+Shift+X", col.keys[1])
	}
}

func TestUnrecognizedByteDropped(t *testing.T) {
	d, col, _ := newTestDecoder()

	// 0x1c matches no grammar; the decoder must drop it and keep going.
	d.Feed([]byte{0x1c, 'a'})

	if len(col.keys) != 1 {
		t.Fatalf("got %d events, want 1", len(col.keys))
	}
	if col.keys[0].Rune != 'a' {
		t.Errorf("event = %v, want rune a", col.keys[0])
	}
}

func TestUTF8SplitAcrossFeeds(t *testing.T) {
	d, col, _ := newTestDecoder()

	raw := []byte("世")
	d.Feed(raw[:1])
	if len(col.keys) != 0 {
		t.Fatal("partial rune emitted an event")
	}
	d.Feed(raw[1:])

	if len(col.keys) != 1 || col.keys[0].Rune != '世' {
		t.Fatalf("events = %v, want single rune 世", col.keys)
	}
}

func TestBracketedPaste(t *testing.T) {
	d, col, _ := newTestDecoder()

	d.Feed([]byte("\x1b[200~hi\x1b[201~x"))

	var runes []rune
	for _, ev := range col.keys {
		if ev.Key != key.KeyRune {
			t.Errorf("unexpected non-rune event during paste: %v", ev)
			continue
		}
		runes = append(runes, ev.Rune)
	}
	if string(runes) != "hix" {
		t.Errorf("pasted runes = %q, want %q", string(runes), "hix")
	}
}

func TestBracketedPasteSplitEndMarker(t *testing.T) {
	d, col, _ := newTestDecoder()

	d.Feed([]byte("\x1b[200~ab\x1b[20"))
	d.Feed([]byte("1~c"))

	var got string
	for _, ev := range col.keys {
		got += string(ev.Rune)
	}
	if got != "abc" {
		t.Errorf("runes = %q, want %q", got, "abc")
	}
}

func TestCloseStopsWatchdog(t *testing.T) {
	d, col, clock := newTestDecoder()

	d.Feed([]byte{0x1b})
	d.Close()
	clock.Advance(time.Second)

	if len(col.keys) != 0 {
		t.Errorf("events after Close = %v, want none", col.keys)
	}
	d.Close() // idempotent
	d.Feed([]byte("a"))
	if len(col.keys) != 0 {
		t.Error("Feed after Close emitted events")
	}
}

func TestRapidTypingBurst(t *testing.T) {
	d, col, _ := newTestDecoder()

	var stream []byte
	for i := 0; i < 50; i++ {
		stream = append(stream, byte('a'+i%26))
	}
	d.Feed(stream)

	if len(col.keys) != 50 {
		t.Fatalf("got %d events, want 50", len(col.keys))
	}
	for i, ev := range col.keys {
		want := rune('a' + i%26)
		if ev.Rune != want {
			t.Fatalf("event %d = %v, want %q", i, ev, want)
		}
	}
}

func ExampleDecoder() {
	d := New(Config{
		OnKey: func(ev key.Event) { fmt.Println(ev) },
	})
	defer d.Close()

	d.Feed([]byte("\x1b[1;5A"))
	// Output: Ctrl+Up
}
