package share

import "cotask/internal/irq"

// DefaultBudget is the largest queue buffer, in bytes, a constructor will
// allocate unless WithBudget says otherwise.
const DefaultBudget = 16 << 10

type settings struct {
	mask      irq.Mask
	protect   bool
	overwrite bool
	budget    int
}

// Option configures a Share or Queue at construction.
type Option func(*settings)

// WithMask sets the interrupt mask used for critical sections. The default is
// irq.Platform().
func WithMask(m irq.Mask) Option {
	return func(s *settings) { s.mask = m }
}

// ThreadProtect turns critical sections on or off. Shares default to on,
// queues to off.
func ThreadProtect(on bool) Option {
	return func(s *settings) { s.protect = on }
}

// Overwrite lets a full queue replace its oldest element instead of waiting.
func Overwrite(on bool) Option {
	return func(s *settings) { s.overwrite = on }
}

// WithBudget caps the queue buffer size in bytes.
func WithBudget(bytes int) Option {
	return func(s *settings) { s.budget = bytes }
}

func resolve(protect bool, opts []Option) settings {
	s := settings{protect: protect, budget: DefaultBudget}
	for _, opt := range opts {
		opt(&s)
	}
	if s.mask == nil {
		s.mask = irq.Platform()
	}
	return s
}
