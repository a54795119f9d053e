//go:build !tinygo

package irq

var host = NewController()

// Platform returns the mask for the current target. On the host that is a
// single process-wide Controller, mirroring the one interrupt controller a
// chip has.
func Platform() Mask {
	return host
}

// HostController returns the controller behind Platform so simulated
// interrupt sources can raise interrupts on it.
func HostController() *Controller {
	return host
}
