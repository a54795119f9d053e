package share

import "fmt"

// Item is anything a Registry can list.
type Item interface {
	Name() string
	Code() TypeCode
	String() string

	kind() string
	setName(string)
}

// Buffer is the type-erased view of a Queue.
type Buffer interface {
	Item
	Len() int
	Cap() int
	HighWater() int
	Dropped() uint64
	Clear()
}

var (
	_ Buffer = (*Queue[float32])(nil)
	_ Item   = (*Share[int32])(nil)
)

// MakeQueue builds a queue whose element type is chosen at run time by code,
// typically read from configuration. Use QueueOf to get the typed queue back.
func MakeQueue(code TypeCode, name string, capacity int, opts ...Option) (Buffer, error) {
	switch code {
	case Int8:
		return makeQueue[int8](name, capacity, opts)
	case Uint8:
		return makeQueue[uint8](name, capacity, opts)
	case Int16:
		return makeQueue[int16](name, capacity, opts)
	case Uint16:
		return makeQueue[uint16](name, capacity, opts)
	case Int:
		return makeQueue[int](name, capacity, opts)
	case Uint:
		return makeQueue[uint](name, capacity, opts)
	case Int32:
		return makeQueue[int32](name, capacity, opts)
	case Uint32:
		return makeQueue[uint32](name, capacity, opts)
	case Int64:
		return makeQueue[int64](name, capacity, opts)
	case Uint64:
		return makeQueue[uint64](name, capacity, opts)
	case Float32:
		return makeQueue[float32](name, capacity, opts)
	case Float64:
		return makeQueue[float64](name, capacity, opts)
	default:
		return nil, fmt.Errorf("queue %q: %w %q", name, ErrTypeCode, string(rune(code)))
	}
}

func makeQueue[T Scalar](name string, capacity int, opts []Option) (Buffer, error) {
	q, err := NewQueue[T](name, capacity, opts...)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MakeShare builds a share whose element type is chosen at run time by code.
func MakeShare(code TypeCode, name string, opts ...Option) (Item, error) {
	switch code {
	case Int8:
		return NewShare[int8](name, opts...), nil
	case Uint8:
		return NewShare[uint8](name, opts...), nil
	case Int16:
		return NewShare[int16](name, opts...), nil
	case Uint16:
		return NewShare[uint16](name, opts...), nil
	case Int:
		return NewShare[int](name, opts...), nil
	case Uint:
		return NewShare[uint](name, opts...), nil
	case Int32:
		return NewShare[int32](name, opts...), nil
	case Uint32:
		return NewShare[uint32](name, opts...), nil
	case Int64:
		return NewShare[int64](name, opts...), nil
	case Uint64:
		return NewShare[uint64](name, opts...), nil
	case Float32:
		return NewShare[float32](name, opts...), nil
	case Float64:
		return NewShare[float64](name, opts...), nil
	default:
		return nil, fmt.Errorf("share %q: %w %q", name, ErrTypeCode, string(rune(code)))
	}
}

// QueueOf recovers the typed queue behind b.
func QueueOf[T Scalar](b Buffer) (*Queue[T], error) {
	q, ok := b.(*Queue[T])
	if !ok {
		return nil, fmt.Errorf("queue %q: %w: holds %s, want %s", b.Name(), ErrTypeMismatch, b.Code(), CodeOf[T]())
	}
	return q, nil
}

// ShareOf recovers the typed share behind it.
func ShareOf[T Scalar](it Item) (*Share[T], error) {
	s, ok := it.(*Share[T])
	if !ok {
		return nil, fmt.Errorf("share %q: %w: holds %s, want %s", it.Name(), ErrTypeMismatch, it.Code(), CodeOf[T]())
	}
	return s, nil
}
