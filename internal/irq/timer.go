// internal/irq/timer.go

package irq

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a simulated periodic interrupt source: every interval it raises an
// interrupt on its controller and runs the handler inside it.
type Timer struct {
	ctrl    *Controller
	handler func()
	count   atomic.Int64
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewTimer creates a timer but does not start it.
func NewTimer(ctrl *Controller, handler func()) *Timer {
	return &Timer{
		ctrl:    ctrl,
		handler: handler,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins firing at the given interval.
func (t *Timer) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer close(t.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.ctrl.Raise(t.handler)
				t.count.Add(1)
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop stops the timer and waits for an in-flight handler to finish.
// NOTE: Stop must only be called after Start.
func (t *Timer) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Count returns how many times the timer has fired.
func (t *Timer) Count() int64 {
	return t.count.Load()
}
