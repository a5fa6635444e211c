package timer

import (
	"testing"
	"time"
)

func TestManualAfter(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After(10*time.Millisecond, func() { fired++ })

	m.Advance(5 * time.Millisecond)
	if fired != 0 {
		t.Fatal("callback fired early")
	}
	m.Advance(5 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	m.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("one-shot fired again, fired = %d", fired)
	}
}

func TestManualAfterStop(t *testing.T) {
	m := NewManual()
	fired := 0
	h := m.After(10*time.Millisecond, func() { fired++ })
	h.Stop()
	h.Stop() // idempotent

	m.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("stopped callback fired %d times", fired)
	}
	if m.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", m.Pending())
	}
}

func TestManualEvery(t *testing.T) {
	m := NewManual()
	ticks := 0
	h := m.Every(250*time.Millisecond, func() { ticks++ })

	m.Advance(time.Second)
	if ticks != 4 {
		t.Fatalf("ticks = %d, want 4", ticks)
	}

	h.Stop()
	m.Advance(time.Second)
	if ticks != 4 {
		t.Fatalf("ticks after Stop = %d, want 4", ticks)
	}
}

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(20*time.Millisecond, func() { order = append(order, "late") })
	m.After(10*time.Millisecond, func() { order = append(order, "early") })

	m.Advance(30 * time.Millisecond)
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("order = %v, want [early late]", order)
	}
}

func TestManualRescheduleFromCallback(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After(10*time.Millisecond, func() {
		fired++
		m.After(10*time.Millisecond, func() { fired++ })
	})

	m.Advance(25 * time.Millisecond)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2 (chained callback due within window)", fired)
	}
}
