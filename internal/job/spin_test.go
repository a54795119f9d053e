package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotask/internal/clock"
	"cotask/internal/sched"
)

// steppingClock advances by step on every reading.
type steppingClock struct {
	now  clock.Ticks
	step uint32
}

func (c *steppingClock) Now() clock.Ticks {
	c.now = c.now.Add(c.step)
	return c.now
}

func TestSpinBurnsRequestedTime(t *testing.T) {
	clk := &steppingClock{step: 10}
	task := sched.NewTask("load", Spin(100, 4), sched.WithClock(clk))
	task.Go()

	before := clk.now
	require.True(t, task.Schedule())
	assert.GreaterOrEqual(t, clock.Diff(clk.now, before), int32(100))
}

func TestSpinReturnsState(t *testing.T) {
	clk := clock.NewManual(0)
	r := Spin(0, 9)
	assert.Equal(t, sched.State(9), r.Step(&sched.Context{Clock: clk}))
}

func TestCountWraps(t *testing.T) {
	n := 0
	r := Count(&n, 3)
	ctx := &sched.Context{}

	var got []sched.State
	for i := 0; i < 4; i++ {
		got = append(got, r.Step(ctx))
	}
	assert.Equal(t, []sched.State{1, 2, 0, 1}, got)
	assert.Equal(t, 4, n)
}
