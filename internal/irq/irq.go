// Package irq abstracts the interrupt mask that Share and Queue use for
// critical sections.
//
// On the host there is no interrupt hardware, so a Controller stands in for it:
// simulated interrupt handlers run through Controller.Raise while holding the
// same lock that Disable takes. A main-loop critical section therefore
// excludes handlers exactly like masking interrupts would, and handlers never
// need to mask again.
package irq

// State is the interrupt-enable state saved by Disable and handed back to
// Restore.
type State uintptr

// Mask disables and restores asynchronous interrupt delivery.
type Mask interface {
	Disable() State
	Restore(State)
}

// Critical runs fn with interrupts masked. The previous state is restored on
// every exit path, panics included.
//
// The host Controller is not re-entrant: calling Critical on it from inside
// another critical section or from a Raise handler deadlocks.
func Critical(m Mask, fn func()) {
	st := m.Disable()
	defer m.Restore(st)
	fn()
}

// None is a mask that does nothing. It suits single-threaded tests and data
// never touched from interrupt context.
type None struct{}

func (None) Disable() State { return 0 }
func (None) Restore(State)  {}
