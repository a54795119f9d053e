package clock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDiffAcrossWraparound(t *testing.T) {
	before := Ticks(math.MaxUint32 - 9)
	after := before.Add(25)

	assert.Equal(t, Ticks(15), after)
	assert.Equal(t, int32(25), Diff(after, before))
	assert.Equal(t, int32(-25), Diff(before, after))
}

func TestManualAdvance(t *testing.T) {
	m := NewManual(100)
	assert.Equal(t, Ticks(100), m.Now())

	m.Advance(50)
	assert.Equal(t, Ticks(150), m.Now())

	m.Set(7)
	assert.Equal(t, Ticks(7), m.Now())
}

func TestMonotonicDoesNotGoBackwards(t *testing.T) {
	m := NewMonotonic()
	a := m.Now()
	b := m.Now()
	assert.GreaterOrEqual(t, Diff(b, a), int32(0))
}

func TestPropertyDiffInvertsAdd(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := Ticks(rapid.Uint32().Draw(rt, "start"))
		d := rapid.Uint32Range(0, math.MaxInt32).Draw(rt, "d")

		if got := Diff(start.Add(d), start); got != int32(d) {
			rt.Fatalf("Diff(start+%d, start) = %d", d, got)
		}
	})
}
