package irq

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticalRestoresOnPanic(t *testing.T) {
	c := NewController()

	assert.Panics(t, func() {
		Critical(c, func() { panic("boom") })
	})

	// The lock must be free again, otherwise Raise would deadlock.
	ran := false
	c.Raise(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, uint64(1), c.Raised())
}

func TestCriticalExcludesHandlers(t *testing.T) {
	c := NewController()
	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				Critical(c, func() { counter++ })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Raise(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*1000, counter)
}

func TestControllerIsNotReentrant(t *testing.T) {
	ctrl := NewController()

	ctrl.Raise(func() {
		assert.False(t, ctrl.mu.TryLock(), "a handler already holds the mask")
	})
	Critical(ctrl, func() {
		assert.False(t, ctrl.mu.TryLock(), "a critical section already holds the mask")
	})
	assert.True(t, ctrl.mu.TryLock())
	ctrl.mu.Unlock()
}

func TestNoneIsANoop(t *testing.T) {
	var m Mask = None{}
	ran := false
	Critical(m, func() { ran = true })
	assert.True(t, ran)
}

func TestTimerFires(t *testing.T) {
	c := NewController()
	fired := make(chan struct{}, 16)
	tm := NewTimer(c, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	tm.Start(time.Millisecond)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timer never fired")
	}
	tm.Stop()
	tm.Stop()

	n := tm.Count()
	assert.GreaterOrEqual(t, n, int64(1))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, n, tm.Count(), "timer kept firing after Stop")
}
