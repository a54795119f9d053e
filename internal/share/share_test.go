package share

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"cotask/internal/irq"
)

func TestShareLastWriteWins(t *testing.T) {
	s := NewShare[int16]("heading", WithMask(irq.None{}))

	assert.Equal(t, int16(0), s.Get(false), "fresh share reads as zero")

	s.Put(10, false)
	s.Put(20, false)
	assert.Equal(t, int16(20), s.Get(false))
	assert.Equal(t, int16(20), s.Get(false), "reads do not consume")
}

func TestShareFromInterrupt(t *testing.T) {
	ctrl := irq.NewController()
	s := NewShare[float32]("speed", WithMask(ctrl))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			v := float32(i)
			ctrl.Raise(func() { s.Put(v, true) })
		}
	}()

	last := float32(0)
	for last < 1000 {
		v := s.Get(false)
		assert.GreaterOrEqual(t, v, last, "values only move forward")
		last = v
	}
	wg.Wait()
}

func TestShareUnprotectedSkipsMask(t *testing.T) {
	m := &countingMask{}
	s := NewShare[int32]("raw", WithMask(m), ThreadProtect(false))

	s.Put(5, false)
	assert.Equal(t, int32(5), s.Get(false))
	assert.Zero(t, m.disabled)
}

func TestShareInterruptContextSkipsMask(t *testing.T) {
	m := &countingMask{}
	s := NewShare[int32]("flag", WithMask(m))

	s.Put(1, true)
	_ = s.Get(true)
	assert.Zero(t, m.disabled)

	s.Put(2, false)
	_ = s.Get(false)
	assert.Equal(t, 2, m.disabled)
	assert.Equal(t, 2, m.restored)
}

func TestShareString(t *testing.T) {
	s := NewShare[uint8]("motor_on", WithMask(irq.None{}))
	assert.Equal(t, "motor_on     Share<uint8>", s.String())
}

func TestPropertyShareHoldsLastPut(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewShare[int64]("p", WithMask(irq.None{}))
		vals := rapid.SliceOfN(rapid.Int64(), 1, 50).Draw(rt, "vals")
		for _, v := range vals {
			s.Put(v, rapid.Bool().Draw(rt, "isr"))
		}
		if got := s.Get(false); got != vals[len(vals)-1] {
			rt.Fatalf("Get() = %d, want %d", got, vals[len(vals)-1])
		}
	})
}

type countingMask struct {
	disabled int
	restored int
}

func (m *countingMask) Disable() irq.State { m.disabled++; return 0 }
func (m *countingMask) Restore(irq.State)  { m.restored++ }
