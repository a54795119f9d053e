// Package sched is a cooperative scheduler for control loops that run
// without an operating system.
//
// Each Task wraps a Routine. A routine runs from one suspension point to the
// next and hands back a State code; nothing preempts it except interrupt
// handlers. Periodic tasks become ready when their deadline passes, and the
// next deadline is always the previous one plus the period, so timing does
// not drift with scheduling jitter. Any task can also be made ready with Go,
// including from an interrupt handler.
//
// A TaskList groups tasks by priority and offers two dispatch policies:
//
//   - RoundRobin visits every task once per call, highest priority first.
//   - Priority runs at most one task per call: the first ready task found
//     scanning priorities from highest to lowest, rotating among tasks of the
//     same priority.
//
// Priority is strict. A high-priority task that is ready on every call runs
// on every call, and every lower-priority task starves for as long as that
// lasts. This suits one hard real-time loop at the top priority; keep such a
// task periodic if lower priorities must make progress.
package sched
