package mouse

import "time"

// ClickKind classifies a completed press/release pair.
type ClickKind uint8

const (
	// ClickSingle is an ordinary click.
	ClickSingle ClickKind = iota
	// ClickDouble is a second click on the same cell within the window.
	ClickDouble
	// ClickTriple is a third consecutive click on the same cell.
	ClickTriple
)

// ClickTracker turns raw down events into single/double/triple clicks.
// Consecutive presses of the same button on the same cell within the
// configured window escalate the click count; anything else resets it.
type ClickTracker struct {
	window time.Duration
	now    func() time.Time

	lastButton Button
	lastPos    Position
	lastTime   time.Time
	count      int
}

// NewClickTracker creates a tracker with the given double-click window.
// now is injectable for tests; pass nil for the real clock.
func NewClickTracker(window time.Duration, now func() time.Time) *ClickTracker {
	if now == nil {
		now = time.Now
	}
	return &ClickTracker{window: window, now: now}
}

// Press records a button press and returns its click classification.
func (t *ClickTracker) Press(button Button, pos Position) ClickKind {
	ts := t.now()

	same := button == t.lastButton && pos == t.lastPos &&
		ts.Sub(t.lastTime) <= t.window
	if same {
		t.count++
	} else {
		t.count = 1
	}

	t.lastButton = button
	t.lastPos = pos
	t.lastTime = ts

	switch {
	case t.count >= 3:
		t.count = 0 // a fourth click starts over
		return ClickTriple
	case t.count == 2:
		return ClickDouble
	default:
		return ClickSingle
	}
}

// Reset clears click history.
func (t *ClickTracker) Reset() {
	t.count = 0
	t.lastTime = time.Time{}
}
