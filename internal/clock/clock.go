// Package clock provides the millisecond time base the control loop polls.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock exposes a monotonically increasing millisecond counter.
type Clock interface {
	// NowMs returns milliseconds since the clock's epoch. It never resets
	// during a run.
	NowMs() uint64
}

// Monotonic counts milliseconds since it was created, using the runtime's
// monotonic clock reading.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock whose epoch is now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NowMs returns milliseconds elapsed since NewMonotonic.
func (m *Monotonic) NowMs() uint64 {
	return uint64(time.Since(m.start).Milliseconds())
}

// Fake is a manually advanced clock for tests.
// Safe for concurrent use so a test can advance it while a loop polls it.
type Fake struct {
	now atomic.Uint64
}

// NewFake creates a Fake clock reading start.
func NewFake(start uint64) *Fake {
	f := &Fake{}
	f.now.Store(start)
	return f
}

// NowMs returns the current fake reading.
func (f *Fake) NowMs() uint64 {
	return f.now.Load()
}

// Set moves the clock to ms. Wrapping past the top of the range is allowed.
func (f *Fake) Set(ms uint64) {
	f.now.Store(ms)
}

// Advance moves the clock forward by d milliseconds and returns the new reading.
func (f *Fake) Advance(d uint64) uint64 {
	return f.now.Add(d)
}
