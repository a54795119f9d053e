package app

import (
	"fmt"

	"cotask/internal/control"
	"cotask/internal/logging"
	"cotask/internal/sched"
	"cotask/internal/share"
)

// States the control task reports to its trace.
const (
	StateInit sched.State = iota + 1
	StateFollow
	StateTurn
	StateStopped
)

// States the button task reports.
const (
	StateMotorsOn sched.State = iota + 1
	StateMotorsOff
)

// Share names.
const (
	shareEnable    = "enable"
	sharePosLeft   = "pos_left"
	sharePosRight  = "pos_right"
	shareVelLeft   = "vel_left"
	shareVelRight  = "vel_right"
	shareEffLeft   = "effort_left"
	shareEffRight  = "effort_right"
	queueTelemetry = "telemetry"
)

// side bundles what one wheel's control loop touches.
type side struct {
	wheel  *Wheel
	pid    *control.PID
	pos    *share.Share[int32]
	vel    *share.Share[float32]
	effort *share.Share[float32]
}

// encoderRoutine samples both wheels and publishes position and speed.
func encoderRoutine(sides ...*side) sched.RoutineFunc {
	return func(*sched.Context) sched.State {
		for _, s := range sides {
			s.wheel.Update()
			s.pos.Put(s.wheel.Counts(), false)
			s.vel.Put(float32(s.wheel.Velocity()), false)
		}
		return sched.NoState
	}
}

// driver is the control task: a state machine that drives straight, turns on
// the spot, and repeats, holding while the motors are disabled.
type driver struct {
	left, right *side
	enable      *share.Share[uint8]
	sink        sink
	setpoint    float64
	follow      int
	turn        int
	overflow    int
}

func (d *driver) body(ctx *sched.Context, yield func(sched.State) bool) {
	d.halt()
	ctx.Log.Debug("control loop started", logging.F("setpoint", d.setpoint))
	if !yield(StateInit) {
		return
	}
	for {
		if !d.drive(d.follow, StateFollow, 1, 1, yield) {
			return
		}
		if !d.drive(d.turn, StateTurn, 0.5, -0.5, yield) {
			return
		}
	}
}

// drive runs steps enabled control periods with the wheel setpoints scaled
// by l and r. Disabled periods do not count. It returns false once the
// coroutine is closed.
func (d *driver) drive(steps int, st sched.State, l, r float64, yield func(sched.State) bool) bool {
	d.left.pid.SetSetpoint(l * d.setpoint)
	d.right.pid.SetSetpoint(r * d.setpoint)

	for i := 0; i < steps; {
		if d.enable.Get(false) == 0 {
			d.halt()
			if !yield(StateStopped) {
				return false
			}
			continue
		}
		d.track()
		i++
		if !yield(st) {
			return false
		}
	}
	return true
}

func (d *driver) track() {
	for _, s := range []*side{d.left, d.right} {
		s.wheel.Enable()
		u := s.pid.Update(float64(s.vel.Get(false)))
		s.wheel.SetEffort(u)
		s.effort.Put(float32(u), false)
	}
	errLeft := d.left.pid.Setpoint() - float64(d.left.vel.Get(false))
	if !d.sink.put(errLeft) {
		d.overflow++
	}
}

func (d *driver) halt() {
	for _, s := range []*side{d.left, d.right} {
		s.wheel.Disable()
		s.wheel.SetEffort(0)
		s.effort.Put(0, false)
		s.pid.Reset()
	}
}

// buttonRoutine handles a press latched by the interrupt: it flips the
// enable share, which the control task polls.
func buttonRoutine(ctx *sched.Context) sched.State {
	it, ok := ctx.Shares.Get(shareEnable)
	if !ok {
		ctx.Log.Error("button pressed but no enable share", logging.F("share", shareEnable))
		return sched.NoState
	}
	enable, err := share.ShareOf[uint8](it)
	if err != nil {
		ctx.Log.Error("button pressed but enable share unusable", logging.F("error", err))
		return sched.NoState
	}

	on := enable.Get(false) == 0
	if on {
		enable.Put(1, false)
		ctx.Log.Info("motors enabled by button press")
		return StateMotorsOn
	}
	enable.Put(0, false)
	ctx.Log.Info("motors disabled by button press")
	return StateMotorsOff
}

// recorder is the telemetry task: it drains the queue without blocking and
// keeps running totals.
type recorder struct {
	sink  sink
	count int
	sum   float64
	last  float64
}

func (r *recorder) Step(*sched.Context) sched.State {
	drained := 0
	for {
		v, ok := r.sink.get()
		if !ok {
			break
		}
		r.count++
		r.sum += v
		r.last = v
		drained++
	}
	if drained > 0 {
		return 1
	}
	return sched.NoState
}

func (r *recorder) String() string {
	mean := 0.0
	if r.count > 0 {
		mean = r.sum / float64(r.count)
	}
	return fmt.Sprintf("Telemetry: %d samples, mean error % .3f mm/s, last % .3f mm/s", r.count, mean, r.last)
}

// sink moves float64 samples through a queue whose element type is only
// known at run time.
type sink struct {
	put func(v float64) bool
	get func() (float64, bool)
}

func sinkOf[T share.Scalar](buf share.Buffer) (sink, error) {
	q, err := share.QueueOf[T](buf)
	if err != nil {
		return sink{}, err
	}
	return sink{
		put: func(v float64) bool { return q.TryPut(T(v), false) },
		get: func() (float64, bool) {
			v, ok := q.TryGet(false)
			return float64(v), ok
		},
	}, nil
}

func newSink(buf share.Buffer) (sink, error) {
	switch buf.Code() {
	case share.Int8:
		return sinkOf[int8](buf)
	case share.Uint8:
		return sinkOf[uint8](buf)
	case share.Int16:
		return sinkOf[int16](buf)
	case share.Uint16:
		return sinkOf[uint16](buf)
	case share.Int:
		return sinkOf[int](buf)
	case share.Uint:
		return sinkOf[uint](buf)
	case share.Int32:
		return sinkOf[int32](buf)
	case share.Uint32:
		return sinkOf[uint32](buf)
	case share.Int64:
		return sinkOf[int64](buf)
	case share.Uint64:
		return sinkOf[uint64](buf)
	case share.Float32:
		return sinkOf[float32](buf)
	case share.Float64:
		return sinkOf[float64](buf)
	default:
		return sink{}, fmt.Errorf("telemetry queue: %w %s", share.ErrTypeCode, buf.Code())
	}
}
