package sched

import (
	"iter"

	"cotask/internal/clock"
	"cotask/internal/logging"
	"cotask/internal/share"
)

// State is the code a routine reports after each step. It only feeds the
// execution trace.
type State int

// NoState is the code of a routine that does not report one.
const NoState State = 0

// Context is the handle every routine step receives. Routines that need no
// shared data simply ignore it.
type Context struct {
	Task   *Task
	Shares *share.Registry
	Clock  clock.Clock
	Log    logging.Logger
}

// Routine is one cooperative control routine. Step runs until the routine's
// next suspension point and must not block.
type Routine interface {
	Step(ctx *Context) State
}

// RoutineFunc adapts a plain function to Routine. Each call is one step.
type RoutineFunc func(ctx *Context) State

func (f RoutineFunc) Step(ctx *Context) State { return f(ctx) }

// Body is the code of a coroutine. Every call to yield is a suspension point:
// the current step ends there with the given state, and the next step resumes
// right after it. yield returns false once the coroutine is closed, after
// which the body should return.
type Body func(ctx *Context, yield func(State) bool)

// CoRoutine runs a Body as a resumable routine, so suspension points can sit
// anywhere, sub-loops included.
type CoRoutine struct {
	body Body
	next func() (State, bool)
	stop func()
	last State
	done bool
}

// Coroutine wraps body. The body starts on the first Step.
func Coroutine(body Body) *CoRoutine {
	return &CoRoutine{body: body}
}

// Step resumes the body until its next yield. Once the body has returned,
// Step keeps reporting the last state without running anything.
func (c *CoRoutine) Step(ctx *Context) State {
	if c.done {
		return c.last
	}
	if c.next == nil {
		c.next, c.stop = iter.Pull(iter.Seq[State](func(yield func(State) bool) {
			c.body(ctx, yield)
		}))
	}
	st, ok := c.next()
	if !ok {
		c.Close()
		return c.last
	}
	c.last = st
	return st
}

// Done reports whether the body has returned or the coroutine was closed.
func (c *CoRoutine) Done() bool { return c.done }

// Close abandons the body at its current suspension point.
func (c *CoRoutine) Close() {
	if c.stop != nil {
		c.stop()
	}
	c.done = true
}
