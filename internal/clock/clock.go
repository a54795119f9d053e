// internal/clock/clock.go

// Package clock provides the microsecond timebase the scheduler measures
// deadlines, lateness and run durations with.
package clock

import (
	"sync/atomic"
	"time"
)

// Ticks is a free-running microsecond counter. It wraps around after about
// 71 minutes, so two readings must only be compared through Diff.
type Ticks uint32

// Add returns t advanced by d microseconds, wrapping like the hardware counter.
func (t Ticks) Add(d uint32) Ticks {
	return t + Ticks(d)
}

// Diff returns a - b in microseconds. The result is correct across one
// wraparound as long as the true distance fits in an int32.
func Diff(a, b Ticks) int32 {
	return int32(a - b)
}

// Clock is a monotonic microsecond source.
type Clock interface {
	Now() Ticks
}

// Monotonic reads the host's monotonic clock.
type Monotonic struct {
	epoch time.Time
}

// NewMonotonic creates a clock whose zero is the moment of the call.
func NewMonotonic() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Now returns the microseconds elapsed since the clock was created, truncated
// to the counter width.
func (m *Monotonic) Now() Ticks {
	return Ticks(uint64(time.Since(m.epoch).Microseconds()))
}

// Manual is a clock that only moves when told to. Tests use it to make timing
// deterministic.
type Manual struct {
	now atomic.Uint32
}

// NewManual creates a manual clock starting at start.
func NewManual(start Ticks) *Manual {
	m := &Manual{}
	m.now.Store(uint32(start))
	return m
}

// Now returns the current reading.
func (m *Manual) Now() Ticks {
	return Ticks(m.now.Load())
}

// Advance moves the clock forward by d microseconds.
func (m *Manual) Advance(d uint32) Ticks {
	return Ticks(m.now.Add(d))
}

// Set jumps the clock to t.
func (m *Manual) Set(t Ticks) {
	m.now.Store(uint32(t))
}

var system = NewMonotonic()

// System returns the process-wide clock, the counterpart of the single
// microsecond timer a microcontroller exposes.
func System() Clock {
	return system
}
