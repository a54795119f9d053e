package share

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotask/internal/irq"
)

func TestRegistryDefaultNamesAndOrder(t *testing.T) {
	reg := NewRegistry()

	a := NewShare[int32]("", WithMask(irq.None{}))
	q, err := NewQueue[float32]("", 4, WithMask(irq.None{}))
	require.NoError(t, err)
	b := NewShare[uint8]("", WithMask(irq.None{}))

	require.NoError(t, reg.Add(a))
	require.NoError(t, reg.Add(q))
	require.NoError(t, reg.Add(b))

	assert.Equal(t, "Share0", a.Name())
	assert.Equal(t, "Queue0", q.Name())
	assert.Equal(t, "Share1", b.Name())
	assert.Equal(t, 3, reg.Len())

	assert.Equal(t,
		"Share0       Share<int32>\n"+
			"Queue0       Queue<float> Max Full 0/4\n"+
			"Share1       Share<uint8>",
		reg.String())

	bufs := reg.Buffers()
	require.Len(t, bufs, 1)
	assert.Equal(t, "Queue0", bufs[0].Name())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(NewShare[int8]("x", WithMask(irq.None{}))))

	err := reg.Add(NewShare[int16]("x", WithMask(irq.None{})))
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryDuplicateDefaultNameLeavesItemUnnamed(t *testing.T) {
	reg := NewRegistry()
	taken, err := NewQueue[int16]("Queue0", 2, WithMask(irq.None{}))
	require.NoError(t, err)
	require.NoError(t, reg.Add(taken))

	q, err := NewQueue[int16]("", 2, WithMask(irq.None{}))
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Add(q), ErrDuplicateName)
	assert.Empty(t, q.Name())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	s := NewShare[float64]("yaw", WithMask(irq.None{}))
	require.NoError(t, reg.Add(s))

	it, ok := reg.Get("yaw")
	require.True(t, ok)
	typed, err := ShareOf[float64](it)
	require.NoError(t, err)
	assert.Same(t, s, typed)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}
