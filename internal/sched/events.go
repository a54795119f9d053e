// internal/sched/events.go

package sched

import "cotask/internal/clock"

// EventKind represents the type of scheduler event
type EventKind int

const (
	EventReady EventKind = iota
	EventRun
	EventStateChange
	EventTraceDisabled
)

// Event is emitted by a task on key actions.
type Event struct {
	At       clock.Ticks
	Kind     EventKind
	Task     string
	Priority int
	State    State
	Late     int32 // µs past the deadline, EventReady only
	Duration int32 // µs spent in the step, EventRun only
}

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "Ready"
	case EventRun:
		return "Run"
	case EventStateChange:
		return "StateChange"
	case EventTraceDisabled:
		return "TraceDisabled"
	default:
		return "Unknown"
	}
}

// Observer receives task events. Observe runs inline on the dispatch loop and
// must return quickly.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }
