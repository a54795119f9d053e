// Package job holds stock routines that are handy for load and profiling.
package job

import (
	"cotask/internal/clock"
	"cotask/internal/sched"
)

// Spin returns a routine that keeps the processor busy for about the given
// number of microseconds per step, then reports state. It stands in for
// computation whose cost should show up in the task profile.
func Spin(micros uint32, state sched.State) sched.RoutineFunc {
	return func(ctx *sched.Context) sched.State {
		start := ctx.Clock.Now()
		for uint32(clock.Diff(ctx.Clock.Now(), start)) < micros {
		}
		return state
	}
}

// Count returns a routine that increments n on every step and reports the
// new count as its state, wrapping at modulo. Useful to watch a task in a
// trace.
func Count(n *int, modulo int) sched.RoutineFunc {
	return func(*sched.Context) sched.State {
		*n++
		if modulo > 0 {
			return sched.State(*n % modulo)
		}
		return sched.State(*n)
	}
}
