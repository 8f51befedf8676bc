package store

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of calls into one trailing invocation after a
// quiet period. It is owned by the store so tests can Flush or Cancel
// deterministically instead of waiting on the wall clock. At most one
// invocation is pending at a time; re-triggering re-arms the timer and
// replaces the pending function.
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	timer   *time.Timer
	pending func()
	stopped bool
}

func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{d: d}
}

// Trigger schedules fn to run after the quiet period, replacing any pending
// invocation.
func (b *Debouncer) Trigger(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	b.pending = fn
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.d, b.fire)
}

func (b *Debouncer) fire() {
	b.mu.Lock()
	fn := b.pending
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Flush runs the pending invocation immediately, if any.
func (b *Debouncer) Flush() {
	b.mu.Lock()
	fn := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel drops the pending invocation without running it.
func (b *Debouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Pending reports whether an invocation is queued.
func (b *Debouncer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}

// Stop cancels and prevents further triggers.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
