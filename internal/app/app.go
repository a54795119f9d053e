// Package app runs the two-wheel drive controller on the host: a simulated
// drivetrain, the tasks that sense and control it, and a timer standing in
// for the user button interrupt.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cotask/internal/clock"
	"cotask/internal/control"
	"cotask/internal/irq"
	"cotask/internal/job"
	"cotask/internal/logging"
	"cotask/internal/sched"
	"cotask/internal/share"
)

// App owns the task list, the shares and the simulated hardware.
type App struct {
	cfg    Config
	log    logging.Logger
	clk    clock.Clock
	ctrl   *irq.Controller
	policy sched.Policy

	shares *share.Registry
	list   *sched.TaskList

	left, right *Wheel
	driver      *driver
	control     *sched.CoRoutine
	telemetry   *recorder
	button      *sched.Task
	press       *irq.Timer
}

// Option configures an App.
type Option func(*App)

// WithClock sets the timebase of every task and the drivetrain.
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clk = c }
}

// WithController sets the interrupt controller the shares mask and the
// button timer raises on. The default is irq.HostController().
func WithController(c *irq.Controller) Option {
	return func(a *App) { a.ctrl = c }
}

// New builds the shares and tasks described by cfg. An unknown policy or
// queue type is an error; out-of-range numbers are clamped as Load does.
func New(cfg Config, log logging.Logger, opts ...Option) (*App, error) {
	a := &App{log: log}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logging.NewNoOpLogger()
	}
	if a.clk == nil {
		a.clk = clock.System()
	}
	if a.ctrl == nil {
		a.ctrl = irq.HostController()
	}

	policy, err := sched.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	a.policy = policy
	if _, err := share.ParseTypeCode(cfg.TelemetryQueue.Type); err != nil {
		return nil, fmt.Errorf("telemetry queue: %w", err)
	}
	cfg.clamp()
	a.cfg = cfg

	if err := a.build(); err != nil {
		return nil, err
	}
	a.log.Info("application ready",
		logging.F("tasks", a.list.Len()),
		logging.F("shares", a.shares.Len()),
		logging.F("policy", a.policy))
	return a, nil
}

func (a *App) build() error {
	a.shares = share.NewRegistry()
	a.list = sched.NewTaskList()
	mask := share.WithMask(a.ctrl)

	enable := share.NewShare[uint8](shareEnable, mask)
	enable.Put(1, false)
	if err := a.shares.Add(enable); err != nil {
		return err
	}

	dt := a.cfg.Control.Period().Seconds()
	if dt <= 0 {
		dt = 0.01
	}
	a.left = NewWheel(a.clk, a.cfg.Wheel.Gain, a.cfg.Wheel.Tau)
	a.right = NewWheel(a.clk, a.cfg.Wheel.Gain, a.cfg.Wheel.Tau)

	left, err := a.side(a.left, dt, sharePosLeft, shareVelLeft, shareEffLeft)
	if err != nil {
		return err
	}
	right, err := a.side(a.right, dt, sharePosRight, shareVelRight, shareEffRight)
	if err != nil {
		return err
	}

	code, err := share.ParseTypeCode(a.cfg.TelemetryQueue.Type)
	if err != nil {
		return fmt.Errorf("telemetry queue: %w", err)
	}
	buf, err := share.MakeQueue(code, queueTelemetry, a.cfg.TelemetryQueue.Capacity,
		mask, share.ThreadProtect(true), share.Overwrite(a.cfg.TelemetryQueue.Overwrite))
	if err != nil {
		return err
	}
	if err := a.shares.Add(buf); err != nil {
		return err
	}
	out, err := newSink(buf)
	if err != nil {
		return err
	}

	a.driver = &driver{
		left:     left,
		right:    right,
		enable:   enable,
		sink:     out,
		setpoint: a.cfg.Gains.Setpoint,
		follow:   a.cfg.Course.FollowSteps,
		turn:     a.cfg.Course.TurnSteps,
	}
	a.control = sched.Coroutine(a.driver.body)
	a.telemetry = &recorder{sink: out}
	a.button = a.task("Button", a.cfg.Button, sched.RoutineFunc(buttonRoutine))

	a.list.Append(a.button)
	a.list.Append(a.task("Control", a.cfg.Control, a.control))
	a.list.Append(a.task("Encoder", a.cfg.Encoder, encoderRoutine(left, right)))
	a.list.Append(a.task("Telemetry", a.cfg.Telemetry, a.telemetry))
	a.list.Append(a.task("Load", a.cfg.Load, job.Spin(uint32(a.cfg.LoadBusyUS), sched.NoState)))
	return nil
}

func (a *App) side(w *Wheel, dt float64, pos, vel, eff string) (*side, error) {
	g := a.cfg.Gains
	pid, err := control.NewPID(g.Kp, g.Ki, g.Kd, g.Setpoint, dt, control.WithLimits(-g.Limit, g.Limit))
	if err != nil {
		return nil, err
	}
	mask := share.WithMask(a.ctrl)
	s := &side{
		wheel:  w,
		pid:    pid,
		pos:    share.NewShare[int32](pos, mask),
		vel:    share.NewShare[float32](vel, mask),
		effort: share.NewShare[float32](eff, mask),
	}
	for _, it := range []share.Item{s.pos, s.vel, s.effort} {
		if err := a.shares.Add(it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (a *App) task(name string, tc TaskConfig, r sched.Routine) *sched.Task {
	return sched.NewTask(name, r,
		sched.WithPriority(tc.Priority),
		sched.WithPeriod(sched.PeriodOf(tc.Period())),
		sched.WithProfile(tc.Profile),
		sched.WithTrace(tc.Trace),
		sched.WithTraceLimit(a.cfg.TraceLimit),
		sched.WithClock(a.clk),
		sched.WithShares(a.shares),
		sched.WithLogger(a.log),
	)
}

// Tasks returns the task list.
func (a *App) Tasks() *sched.TaskList { return a.list }

// Shares returns the registry of every share and queue.
func (a *App) Shares() *share.Registry { return a.shares }

// Policy returns the configured dispatch policy.
func (a *App) Policy() sched.Policy { return a.policy }

// Press simulates one button interrupt.
func (a *App) Press() {
	a.ctrl.Raise(a.button.Go)
}

// Run starts the button timer and dispatches tasks until ctx ends.
// Cancellation is the normal way out and is not reported as an error.
func (a *App) Run(ctx context.Context) error {
	if ms := a.cfg.ButtonIntervalMS; ms > 0 {
		a.press = irq.NewTimer(a.ctrl, a.button.Go)
		a.press.Start(time.Duration(ms) * time.Millisecond)
		defer a.press.Stop()
	}
	defer a.control.Close()

	a.log.Info("dispatching", logging.F("policy", a.policy))
	err := a.list.Run(ctx, a.policy)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Report renders the task table, the traces of traced tasks, the share
// listing and a telemetry summary.
func (a *App) Report() string {
	var b strings.Builder
	b.WriteString(a.list.String())
	b.WriteString("\n")
	for _, t := range a.list.Tasks() {
		if t.Tracing() || len(t.TraceLog()) > 0 {
			b.WriteString(t.Trace())
			b.WriteString("\n")
		}
	}
	b.WriteString(a.shares.String())
	b.WriteString("\n")
	b.WriteString(a.telemetry.String())
	if a.driver.overflow > 0 {
		fmt.Fprintf(&b, " (%d not queued)", a.driver.overflow)
	}
	b.WriteString("\n")
	return b.String()
}
