package irq

import (
	"sync"
	"sync/atomic"
)

// Controller is the host stand-in for an interrupt controller.
type Controller struct {
	mu     sync.Mutex
	raised atomic.Uint64
}

// NewController creates a controller with interrupts enabled.
func NewController() *Controller {
	return &Controller{}
}

// Disable blocks interrupt handlers until Restore is called. It is not
// re-entrant: a second Disable before Restore, or one made from a handler,
// deadlocks.
func (c *Controller) Disable() State {
	c.mu.Lock()
	return 1
}

// Restore re-enables interrupt handlers.
func (c *Controller) Restore(State) {
	c.mu.Unlock()
}

// Raise delivers one interrupt: handler runs serialized against every other
// handler and every critical section on this controller. Callers are the
// goroutines that simulate interrupt sources.
func (c *Controller) Raise(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raised.Add(1)
	handler()
}

// Raised returns how many interrupts have been delivered.
func (c *Controller) Raised() uint64 {
	return c.raised.Load()
}
