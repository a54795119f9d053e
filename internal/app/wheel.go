package app

import (
	"math"

	"cotask/internal/clock"
)

// Encoder geometry of the drive wheels.
const (
	countsPerRev = 1440
	wheelRadius  = 36.0 // mm
	mmPerCount   = 2 * math.Pi * wheelRadius / countsPerRev
)

// maxStep bounds the integration step of the wheel model, in seconds.
const maxStep = 0.001

// Wheel simulates one motor driving an encoder wheel. Its speed follows the
// commanded effort with a first-order lag. The wheel is only touched from
// the dispatch loop.
type Wheel struct {
	clk  clock.Clock
	gain float64
	tau  float64

	enabled  bool
	effort   float64
	velocity float64 // mm/s, true speed
	position float64 // mm

	last     clock.Ticks
	lastPos  float64
	measured float64 // mm/s, as the encoder saw it at the last Update
}

// NewWheel creates a stopped, disabled wheel.
func NewWheel(clk clock.Clock, gain, tau float64) *Wheel {
	return &Wheel{clk: clk, gain: gain, tau: tau, last: clk.Now()}
}

func (w *Wheel) Enable()       { w.enabled = true }
func (w *Wheel) Disable()      { w.enabled = false }
func (w *Wheel) Enabled() bool { return w.enabled }

// SetEffort sets the motor effort in percent, clamped to [-100, 100].
func (w *Wheel) SetEffort(percent float64) {
	w.effort = math.Max(-100, math.Min(100, percent))
}

// Effort returns the commanded effort.
func (w *Wheel) Effort() float64 { return w.effort }

// Update advances the model to the current time and samples the encoder.
func (w *Wheel) Update() {
	now := w.clk.Now()
	elapsed := clock.Diff(now, w.last)
	if elapsed <= 0 {
		return
	}
	w.last = now
	dt := float64(elapsed) / 1e6

	target := 0.0
	if w.enabled {
		target = w.gain * w.effort
	}
	steps := math.Ceil(dt / maxStep)
	h := dt / steps
	k := math.Min(1, h/w.tau)
	for i := 0; i < int(steps); i++ {
		w.velocity += (target - w.velocity) * k
		w.position += w.velocity * h
	}

	// The encoder only resolves whole counts.
	pos := float64(w.Counts()) * mmPerCount
	w.measured = (pos - w.lastPos) / dt
	w.lastPos = pos
}

// Counts returns the encoder count.
func (w *Wheel) Counts() int32 {
	return int32(math.Round(w.position / mmPerCount))
}

// Position returns the travelled distance in mm.
func (w *Wheel) Position() float64 { return w.position }

// Velocity returns the speed measured over the last Update interval in mm/s.
func (w *Wheel) Velocity() float64 { return w.measured }
