package share

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"cotask/internal/irq"
)

// Queue is a fixed-capacity FIFO ring of scalar values.
//
// Put and Get busy-wait when the queue is full or empty. Called from a task
// routine that is the only thing able to change that condition, they stall
// the whole cooperative system: such routines should use TryPut/TryGet and
// re-check on their next activation instead.
type Queue[T Scalar] struct {
	name      string
	code      TypeCode
	protect   bool
	overwrite bool
	mask      irq.Mask

	buf []T
	rd  int
	wr  int

	n       atomic.Int64
	hw      atomic.Int64
	dropped atomic.Uint64
}

// NewQueue creates a queue holding up to capacity values. It fails with
// ErrCapacity for a non-positive capacity and ErrAlloc when the buffer would
// exceed the allocation budget.
func NewQueue[T Scalar](name string, capacity int, opts ...Option) (*Queue[T], error) {
	s := resolve(false, opts)
	if capacity <= 0 {
		return nil, fmt.Errorf("queue %q: %w (got %d)", name, ErrCapacity, capacity)
	}
	if size := sizeOf[T](); capacity > s.budget/size {
		return nil, fmt.Errorf("queue %q: %w: %d x %d bytes > %d", name, ErrAlloc, capacity, size, s.budget)
	}
	return &Queue[T]{
		name:      name,
		code:      CodeOf[T](),
		protect:   s.protect,
		overwrite: s.overwrite,
		mask:      s.mask,
		buf:       make([]T, capacity),
	}, nil
}

func (q *Queue[T]) guard(isr bool, fn func()) {
	if q.protect && !isr {
		irq.Critical(q.mask, fn)
		return
	}
	fn()
}

// Put appends v. When the queue is full it overwrites the oldest value if
// overwrite is on; otherwise an interrupt handler's value is dropped and any
// other caller spins until space frees up.
//
// Pass isr=true from interrupt handlers and from inside another critical
// section on the same mask. A protected queue called there with isr=false
// masks again, which deadlocks on the host Controller. The same holds for
// every other method taking isr.
func (q *Queue[T]) Put(v T, isr bool) {
	for !q.TryPut(v, isr) {
		if isr {
			q.dropped.Add(1)
			return
		}
		runtime.Gosched()
	}
}

// TryPut appends v if there is room, or overwrites the oldest value when
// overwrite is on. It reports whether v was stored.
func (q *Queue[T]) TryPut(v T, isr bool) bool {
	ok := false
	q.guard(isr, func() { ok = q.push(v) })
	return ok
}

func (q *Queue[T]) push(v T) bool {
	size := len(q.buf)
	n := int(q.n.Load())
	if n >= size {
		if !q.overwrite {
			return false
		}
		// Full: the slot at wr is the oldest value, so the reader moves past it.
		q.rd++
		if q.rd >= size {
			q.rd = 0
		}
	}

	q.buf[q.wr] = v
	q.wr++
	if q.wr >= size {
		q.wr = 0
	}
	n++
	if n > size {
		n = size
	}
	q.n.Store(int64(n))
	if int64(n) > q.hw.Load() {
		q.hw.Store(int64(n))
	}
	return true
}

// Get removes and returns the oldest value, spinning until one is available.
func (q *Queue[T]) Get(isr bool) T {
	for {
		if v, ok := q.TryGet(isr); ok {
			return v
		}
		runtime.Gosched()
	}
}

// TryGet removes and returns the oldest value if there is one.
func (q *Queue[T]) TryGet(isr bool) (T, bool) {
	var (
		v  T
		ok bool
	)
	q.guard(isr, func() { v, ok = q.pop() })
	return v, ok
}

func (q *Queue[T]) pop() (T, bool) {
	var zero T
	n := q.n.Load()
	if n <= 0 {
		return zero, false
	}
	v := q.buf[q.rd]
	q.rd++
	if q.rd >= len(q.buf) {
		q.rd = 0
	}
	n--
	if n < 0 {
		n = 0
	}
	q.n.Store(n)
	return v, true
}

// Any reports whether at least one value is waiting.
func (q *Queue[T]) Any() bool { return q.n.Load() > 0 }

// Empty reports whether no value is waiting.
func (q *Queue[T]) Empty() bool { return q.n.Load() <= 0 }

// Full reports whether the queue is at capacity.
func (q *Queue[T]) Full() bool { return q.n.Load() >= int64(len(q.buf)) }

// Len returns the current occupancy.
func (q *Queue[T]) Len() int { return int(q.n.Load()) }

// Cap returns the capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// HighWater returns the largest occupancy seen since creation or the last
// ResetHighWater.
func (q *Queue[T]) HighWater() int { return int(q.hw.Load()) }

// Dropped returns how many interrupt-context puts were discarded because the
// queue was full.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

// Clear empties the queue without reallocating. The high-water mark is kept.
func (q *Queue[T]) Clear() {
	q.guard(false, func() {
		q.rd = 0
		q.wr = 0
		q.n.Store(0)
	})
}

// ResetHighWater sets the high-water mark back to the current occupancy.
func (q *Queue[T]) ResetHighWater() {
	q.guard(false, func() { q.hw.Store(q.n.Load()) })
}

func (q *Queue[T]) Name() string   { return q.name }
func (q *Queue[T]) Code() TypeCode { return q.code }

func (q *Queue[T]) kind() string        { return "Queue" }
func (q *Queue[T]) setName(name string) { q.name = name }

func (q *Queue[T]) String() string {
	return fmt.Sprintf("%-12s Queue<%s> Max Full %d/%d", q.name, q.code, q.HighWater(), q.Cap())
}
