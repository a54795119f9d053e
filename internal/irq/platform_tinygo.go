//go:build tinygo

package irq

import "runtime/interrupt"

// Hardware masks interrupts on the microcontroller.
type Hardware struct{}

func (Hardware) Disable() State {
	return State(interrupt.Disable())
}

func (Hardware) Restore(st State) {
	interrupt.Restore(interrupt.State(st))
}

// Platform returns the hardware interrupt mask.
func Platform() Mask {
	return Hardware{}
}
