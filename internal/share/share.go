package share

import (
	"fmt"

	"cotask/internal/irq"
)

// Share holds the most recent value written to it. There is no empty state:
// a fresh Share reads as the zero value, and readers may see one value many
// times or miss values written between two reads.
type Share[T Scalar] struct {
	name    string
	code    TypeCode
	protect bool
	mask    irq.Mask
	val     T
}

// NewShare creates a Share. Thread protection is on unless an option turns
// it off.
func NewShare[T Scalar](name string, opts ...Option) *Share[T] {
	s := resolve(true, opts)
	return &Share[T]{
		name:    name,
		code:    CodeOf[T](),
		protect: s.protect,
		mask:    s.mask,
	}
}

// Put overwrites the stored value. Pass isr=true from interrupt handlers and
// from inside another critical section on the same mask; with isr=false a
// protected Put there masks again, which deadlocks on the host Controller.
func (s *Share[T]) Put(v T, isr bool) {
	if s.protect && !isr {
		irq.Critical(s.mask, func() { s.val = v })
		return
	}
	s.val = v
}

// Get returns the stored value. The isr rule is the same as for Put.
func (s *Share[T]) Get(isr bool) T {
	if s.protect && !isr {
		var v T
		irq.Critical(s.mask, func() { v = s.val })
		return v
	}
	return s.val
}

func (s *Share[T]) Name() string   { return s.name }
func (s *Share[T]) Code() TypeCode { return s.code }

func (s *Share[T]) kind() string        { return "Share" }
func (s *Share[T]) setName(name string) { s.name = name }

func (s *Share[T]) String() string {
	return fmt.Sprintf("%-12s Share<%s>", s.name, s.code)
}
