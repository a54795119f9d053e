// Package share holds the data channels tasks and interrupt handlers talk
// through: Share, a single last-write-wins slot, and Queue, a fixed-capacity
// ring buffer.
//
// Both guard their state with an irq.Mask. Callers running inside an
// interrupt handler pass isr=true, which skips the mask: interrupts are
// already serialized there and masking again is neither needed nor safe.
package share

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrCapacity      = errors.New("queue capacity must be positive")
	ErrAlloc         = errors.New("queue buffer exceeds allocation budget")
	ErrTypeCode      = errors.New("unknown type code")
	ErrTypeMismatch  = errors.New("element type mismatch")
	ErrDuplicateName = errors.New("duplicate share name")
)

// Scalar is the set of element types a Share or Queue can hold.
type Scalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int | ~uint |
		~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// TypeCode names an element type with the single-letter codes used by
// packed numeric arrays.
type TypeCode byte

const (
	Int8    TypeCode = 'b'
	Uint8   TypeCode = 'B'
	Int16   TypeCode = 'h'
	Uint16  TypeCode = 'H'
	Int     TypeCode = 'i'
	Uint    TypeCode = 'I'
	Int32   TypeCode = 'l'
	Uint32  TypeCode = 'L'
	Int64   TypeCode = 'q'
	Uint64  TypeCode = 'Q'
	Float32 TypeCode = 'f'
	Float64 TypeCode = 'd'
)

func (c TypeCode) String() string {
	switch c {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the known codes.
func (c TypeCode) Valid() bool {
	return c.String() != "unknown"
}

// ParseTypeCode converts a config string such as "h" or "f" into a TypeCode.
func ParseTypeCode(s string) (TypeCode, error) {
	if len(s) != 1 || !TypeCode(s[0]).Valid() {
		return 0, fmt.Errorf("%w %q", ErrTypeCode, s)
	}
	return TypeCode(s[0]), nil
}

// CodeOf returns the TypeCode of T, looking through named types to the
// underlying kind.
func CodeOf[T Scalar]() TypeCode {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return Int8
	case reflect.Uint8:
		return Uint8
	case reflect.Int16:
		return Int16
	case reflect.Uint16:
		return Uint16
	case reflect.Int:
		return Int
	case reflect.Uint:
		return Uint
	case reflect.Int32:
		return Int32
	case reflect.Uint32:
		return Uint32
	case reflect.Int64:
		return Int64
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	default:
		return Float64
	}
}

func sizeOf[T Scalar]() int {
	return int(reflect.TypeFor[T]().Size())
}
