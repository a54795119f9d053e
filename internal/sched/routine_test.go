package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotask/internal/clock"
)

func TestCoroutineResumesAtYield(t *testing.T) {
	co := Coroutine(func(ctx *Context, yield func(State) bool) {
		if !yield(1) {
			return
		}
		for i := 0; i < 3; i++ {
			if !yield(2) {
				return
			}
		}
		yield(3)
	})

	ctx := &Context{}
	var got []State
	for i := 0; i < 5; i++ {
		got = append(got, co.Step(ctx))
	}
	assert.Equal(t, []State{1, 2, 2, 2, 3}, got)
	assert.False(t, co.Done())

	assert.Equal(t, State(3), co.Step(ctx), "finished body keeps its last state")
	assert.True(t, co.Done())
	assert.Equal(t, State(3), co.Step(ctx))
}

func TestCoroutineClose(t *testing.T) {
	steps := 0
	exited := false
	co := Coroutine(func(ctx *Context, yield func(State) bool) {
		defer func() { exited = true }()
		for {
			steps++
			if !yield(State(steps)) {
				return
			}
		}
	})

	ctx := &Context{}
	co.Step(ctx)
	co.Step(ctx)
	co.Close()

	assert.True(t, co.Done())
	assert.True(t, exited, "Close unwinds the body")
	assert.Equal(t, State(2), co.Step(ctx))
	assert.Equal(t, 2, steps)
}

func TestCoroutineAsTaskSeesContext(t *testing.T) {
	clk := clock.NewManual(0)
	var names []string
	co := Coroutine(func(ctx *Context, yield func(State) bool) {
		for {
			names = append(names, ctx.Task.Name())
			ctx.Task.Go()
			if !yield(NoState) {
				return
			}
		}
	})
	task := NewTask("wheel", co, WithClock(clk))
	task.Go()

	for i := 0; i < 3; i++ {
		require.True(t, task.Schedule())
	}
	assert.Equal(t, []string{"wheel", "wheel", "wheel"}, names)
	co.Close()
}
