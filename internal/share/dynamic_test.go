package share

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotask/internal/irq"
)

func TestMakeQueueByCode(t *testing.T) {
	b, err := MakeQueue(Int16, "samples", 8, WithMask(irq.None{}))
	require.NoError(t, err)
	assert.Equal(t, Int16, b.Code())
	assert.Equal(t, 8, b.Cap())

	q, err := QueueOf[int16](b)
	require.NoError(t, err)
	q.Put(-3, false)
	assert.Equal(t, 1, b.Len())

	_, err = QueueOf[float32](b)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMakeQueueErrors(t *testing.T) {
	b, err := MakeQueue(TypeCode('z'), "bad", 4)
	assert.ErrorIs(t, err, ErrTypeCode)
	assert.Nil(t, b)

	b, err = MakeQueue(Float64, "bad", 0)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Nil(t, b, "a failed constructor must not leak a typed nil")
}

func TestMakeShareByCode(t *testing.T) {
	it, err := MakeShare(Float32, "effort", WithMask(irq.None{}))
	require.NoError(t, err)

	s, err := ShareOf[float32](it)
	require.NoError(t, err)
	s.Put(0.5, false)
	assert.Equal(t, float32(0.5), s.Get(false))

	_, err = ShareOf[int32](it)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = MakeShare(TypeCode('x'), "bad")
	assert.ErrorIs(t, err, ErrTypeCode)
}

func TestTypeCodes(t *testing.T) {
	assert.Equal(t, Int8, CodeOf[int8]())
	assert.Equal(t, Uint64, CodeOf[uint64]())
	assert.Equal(t, Float32, CodeOf[float32]())
	assert.Equal(t, Float64, CodeOf[float64]())

	type effort float32
	assert.Equal(t, Float32, CodeOf[effort]())

	assert.Equal(t, "double", Float64.String())
	assert.Equal(t, "unknown", TypeCode('x').String())

	c, err := ParseTypeCode("H")
	require.NoError(t, err)
	assert.Equal(t, Uint16, c)

	_, err = ParseTypeCode("hh")
	assert.ErrorIs(t, err, ErrTypeCode)
	_, err = ParseTypeCode("x")
	assert.ErrorIs(t, err, ErrTypeCode)
}
