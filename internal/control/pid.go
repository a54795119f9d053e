// Package control holds the feedback laws tasks run each period.
package control

import (
	"errors"
	"math"
)

// ErrStep is returned for a non-positive update interval.
var ErrStep = errors.New("pid: update interval must be positive")

// PID is a textbook proportional-integral-derivative controller evaluated at
// a fixed interval.
type PID struct {
	Kp, Ki, Kd float64

	setpoint float64
	dt       float64 // seconds between updates
	min, max float64

	integral float64
	prevErr  float64
}

// Option configures a PID.
type Option func(*PID)

// WithLimits clamps the output to [lo, hi].
func WithLimits(lo, hi float64) Option {
	return func(p *PID) {
		p.min, p.max = lo, hi
	}
}

// NewPID creates a controller updated every dt seconds.
func NewPID(kp, ki, kd, setpoint, dt float64, opts ...Option) (*PID, error) {
	if dt <= 0 {
		return nil, ErrStep
	}
	p := &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		setpoint: setpoint,
		dt:       dt,
		min:      math.Inf(-1),
		max:      math.Inf(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Update feeds one measurement and returns the clamped control output.
func (p *PID) Update(measured float64) float64 {
	e := p.setpoint - measured
	p.integral += e * p.dt
	derivative := (e - p.prevErr) / p.dt
	p.prevErr = e

	out := p.Kp*e + p.Ki*p.integral + p.Kd*derivative
	return math.Max(p.min, math.Min(p.max, out))
}

// Setpoint returns the target value.
func (p *PID) Setpoint() float64 { return p.setpoint }

// SetSetpoint changes the target value.
func (p *PID) SetSetpoint(sp float64) { p.setpoint = sp }

// Reset clears the integral and derivative history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}
