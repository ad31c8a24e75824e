// Package debounce coalesces bursts of updates into a single trailing emission.
package debounce

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWindow is the quiescence period used when none is given.
const DefaultWindow = 300 * time.Millisecond

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Debouncer delivers the most recent pushed value once no push has happened
// for a full window. Each push disarms the pending timer and arms a new one,
// so a burst emits exactly once and the trailing value is never dropped.
type Debouncer[T any] struct {
	window time.Duration
	emit   func(T)
	clock  clockwork.Clock

	mu         sync.Mutex
	timer      clockwork.Timer
	generation uint64
	value      T
	pending    bool
	stopped    bool
}

// New creates a debouncer that calls emit from its own goroutine.
func New[T any](window time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer[T]{
		window: window,
		emit:   emit,
		clock:  o.clock,
	}
}

// Push records v as the latest value and restarts the quiescence window.
// Pushes after Stop are ignored.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.value = v
	d.pending = true
	d.generation++
	gen := d.generation

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.window, func() {
		d.fire(gen)
	})
}

// A timer that fired after being superseded finds a newer generation and
// does nothing.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.generation {
		d.mu.Unlock()
		return
	}
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}

// Pending reports whether a value is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending emission. An emission already handed to the
// callback is not interrupted.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = false
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Sequence hands out increasing tokens so that a response can be matched
// against the latest request. Only the response carrying the current token
// should be applied.
type Sequence struct {
	n atomic.Uint64
}

// Next issues a token that supersedes every earlier one.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// IsCurrent reports whether token is the latest issued.
func (s *Sequence) IsCurrent(token uint64) bool {
	return s.n.Load() == token
}
