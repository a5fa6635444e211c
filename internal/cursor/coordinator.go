// Package cursor implements cursor-blink timing: a coordinator that
// shares one phase clock per blink frequency across all subscribers, and
// a per-slot Cursor that follows the clock, honors manual visibility
// overrides, and ties its blink subscription to focus lifetime.
package cursor

import (
	"sync"
	"time"

	"github.com/dshills/termflux/internal/reactive"
	"github.com/dshills/termflux/internal/timer"
)

// DefaultFrequency is the blink rate in Hz used when nothing else is
// configured.
const DefaultFrequency = 2.0

// Coordinator owns one blink clock per frequency. The first subscriber
// for a frequency starts a repeating timer flipping the phase every
// half-period; the last unsubscribe stops the timer and resets the phase
// to visible so an idle cursor never freezes mid-blink.
type Coordinator struct {
	mu     sync.Mutex
	sched  timer.Scheduler
	clocks map[float64]*clock
}

type clock struct {
	refs   int
	phase  *reactive.Cell[bool]
	handle timer.Handle
}

// NewCoordinator creates a Coordinator driving its clocks from the given
// scheduler.
func NewCoordinator(sched timer.Scheduler) *Coordinator {
	return &Coordinator{
		sched:  sched,
		clocks: make(map[float64]*clock),
	}
}

// HalfPeriod returns the phase-flip interval for a frequency: 1/(2f).
func HalfPeriod(frequency float64) time.Duration {
	return time.Duration(float64(time.Second) / (2 * frequency))
}

// Subscribe joins the blink clock for a frequency, creating it on first
// use. The returned cell holds the shared phase (true = visible) and the
// unsubscribe function is idempotent.
func (co *Coordinator) Subscribe(frequency float64) (*reactive.Cell[bool], func()) {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}

	co.mu.Lock()
	cl, ok := co.clocks[frequency]
	if !ok {
		cl = &clock{phase: reactive.NewCell(true)}
		co.clocks[frequency] = cl
	}
	cl.refs++
	if cl.refs == 1 {
		phase := cl.phase
		cl.handle = co.sched.Every(HalfPeriod(frequency), func() {
			phase.Set(!phase.Get())
		})
	}
	co.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { co.release(frequency) })
	}
	return cl.phase, unsubscribe
}

func (co *Coordinator) release(frequency float64) {
	co.mu.Lock()
	cl, ok := co.clocks[frequency]
	if !ok || cl.refs == 0 {
		co.mu.Unlock()
		return
	}
	cl.refs--
	if cl.refs > 0 {
		co.mu.Unlock()
		return
	}
	if cl.handle != nil {
		cl.handle.Stop()
		cl.handle = nil
	}
	phase := cl.phase
	co.mu.Unlock()

	// Reset outside the lock; subscribers may react by resubscribing.
	phase.Set(true)
}

// Subscribers returns the reference count for a frequency's clock.
func (co *Coordinator) Subscribers(frequency float64) int {
	co.mu.Lock()
	defer co.mu.Unlock()
	if cl, ok := co.clocks[frequency]; ok {
		return cl.refs
	}
	return 0
}

// Reset stops every clock and drops all subscriptions. Unsubscribe
// functions handed out earlier stay safe to call afterwards.
func (co *Coordinator) Reset() {
	co.mu.Lock()
	var phases []*reactive.Cell[bool]
	for _, cl := range co.clocks {
		if cl.handle != nil {
			cl.handle.Stop()
			cl.handle = nil
		}
		cl.refs = 0
		phases = append(phases, cl.phase)
	}
	co.mu.Unlock()

	for _, phase := range phases {
		phase.Set(true)
	}
}
