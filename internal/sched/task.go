package sched

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cotask/internal/clock"
	"cotask/internal/logging"
	"cotask/internal/share"
)

// Period is a re-activation interval in microseconds.
type Period uint32

// NoPeriod marks a task that only runs when something calls Go.
const NoPeriod Period = 0

// MaxPeriod is the longest period a deadline comparison can handle, about
// 35.8 minutes. Longer periods are capped to it.
const MaxPeriod Period = math.MaxInt32

// PeriodOf converts a duration to a Period. Negative durations give NoPeriod
// and anything beyond MaxPeriod gives MaxPeriod.
func PeriodOf(d time.Duration) Period {
	us := d.Microseconds()
	switch {
	case us <= 0:
		return NoPeriod
	case us > int64(MaxPeriod):
		return MaxPeriod
	}
	return Period(us)
}

func capPeriod(p Period) Period {
	return min(p, MaxPeriod)
}

// DefaultTraceLimit is how many trace entries a task keeps before tracing
// gives up.
const DefaultTraceLimit = 1024

// warmupRuns is how many initial steps profiling leaves out of the duration
// statistics. First steps pay one-off setup costs.
const warmupRuns = 2

// TraceEntry is one state transition in a task's trace.
type TraceEntry struct {
	Elapsed uint32 // µs since the previous entry
	State   State
}

// Stats is a snapshot of a task's profile counters. Times are microseconds.
type Stats struct {
	Name     string
	Priority int
	Period   Period
	Attempts uint64
	Runs     uint64
	Samples  uint64 // runs folded into DurSum/DurMax
	DurSum   uint64
	DurMax   uint32
	Lates    uint64
	LateSum  uint64
	LateMax  uint32
}

// AvgDuration returns the mean step duration in µs.
func (s Stats) AvgDuration() float64 {
	if s.Samples == 0 {
		return 0
	}
	return float64(s.DurSum) / float64(s.Samples)
}

// AvgLate returns the mean lateness in µs over the activations that were late.
func (s Stats) AvgLate() float64 {
	if s.Lates == 0 {
		return 0
	}
	return float64(s.LateSum) / float64(s.Lates)
}

// Task is one cooperative routine plus its scheduling metadata.
type Task struct {
	name     string
	priority int
	routine  Routine
	ctx      Context
	clk      clock.Clock
	log      logging.Logger
	obs      Observer

	// period and nextRun belong to the dispatch loop.
	period  Period
	nextRun clock.Ticks
	goFlag  atomic.Bool

	mu       sync.Mutex // guards profile and trace state for readers off the loop
	profile  bool
	attempts uint64
	runs     uint64
	samples  uint64
	durSum   uint64
	durMax   uint32
	lates    uint64
	lateSum  uint64
	lateMax  uint32

	trace      bool
	traced     bool
	traceLimit int
	traceLog   []TraceEntry
	prevState  State
	prevTime   clock.Ticks
}

// TaskOption configures a Task at construction.
type TaskOption func(*Task)

// WithPriority sets the priority. Higher numbers run first.
func WithPriority(p int) TaskOption {
	return func(t *Task) { t.priority = p }
}

// WithPeriod makes the task periodic. Periods beyond MaxPeriod are capped.
func WithPeriod(p Period) TaskOption {
	return func(t *Task) { t.period = p }
}

// WithProfile turns run-time and lateness profiling on or off.
func WithProfile(on bool) TaskOption {
	return func(t *Task) { t.profile = on }
}

// WithTrace turns state tracing on or off.
func WithTrace(on bool) TaskOption {
	return func(t *Task) { t.trace = on }
}

// WithTraceLimit caps the trace log length.
func WithTraceLimit(n int) TaskOption {
	return func(t *Task) { t.traceLimit = n }
}

// WithClock sets the timebase. The default is clock.System().
func WithClock(c clock.Clock) TaskOption {
	return func(t *Task) { t.clk = c }
}

// WithShares hands the routine a registry through its Context.
func WithShares(reg *share.Registry) TaskOption {
	return func(t *Task) { t.ctx.Shares = reg }
}

// WithLogger sets the logger passed to the routine and used by the task.
func WithLogger(l logging.Logger) TaskOption {
	return func(t *Task) { t.log = l }
}

// NewTask wraps r. A periodic task's first deadline is one period from now.
func NewTask(name string, r Routine, opts ...TaskOption) *Task {
	if name == "" {
		name = "NoName"
	}
	t := &Task{
		name:       name,
		routine:    r,
		traceLimit: DefaultTraceLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.clk == nil {
		t.clk = clock.System()
	}
	if t.log == nil {
		t.log = logging.NewNoOpLogger()
	}
	if t.traceLimit < 0 {
		t.traceLimit = 0
	}
	t.period = capPeriod(t.period)

	now := t.clk.Now()
	if t.period != NoPeriod {
		t.nextRun = now.Add(uint32(t.period))
	}
	t.prevTime = now
	t.traced = t.trace

	t.ctx.Task = t
	t.ctx.Clock = t.clk
	t.ctx.Log = t.log
	return t
}

func (t *Task) Name() string     { return t.name }
func (t *Task) Priority() int    { return t.priority }
func (t *Task) Period() Period   { return t.period }
func (t *Task) Routine() Routine { return t.routine }

// NextRun returns the current deadline of a periodic task.
func (t *Task) NextRun() clock.Ticks { return t.nextRun }

// Ready reports whether the task should run now. For a periodic task whose
// deadline has passed it also arms the task and moves the deadline one period
// on from the previous deadline. A task that fell several periods behind
// still gets a single activation per late deadline it observes, and catches
// up over the following calls.
func (t *Task) Ready() bool {
	if t.period != NoPeriod {
		late := clock.Diff(t.clk.Now(), t.nextRun)
		if late > 0 {
			t.goFlag.Store(true)
			t.nextRun = t.nextRun.Add(uint32(t.period))

			if t.profile {
				t.mu.Lock()
				t.lates++
				t.lateSum += uint64(late)
				if uint32(late) > t.lateMax {
					t.lateMax = uint32(late)
				}
				t.mu.Unlock()
			}
			t.emit(Event{Kind: EventReady, Late: late})
		}
	}
	return t.goFlag.Load()
}

// Schedule runs one step of the routine if the task is ready and reports
// whether it did.
func (t *Task) Schedule() bool {
	t.mu.Lock()
	t.attempts++
	t.mu.Unlock()

	if !t.Ready() {
		return false
	}
	t.goFlag.Store(false)

	start := t.clk.Now()
	st := t.routine.Step(&t.ctx)
	end := t.clk.Now()
	dur := clock.Diff(end, start)
	if dur < 0 {
		dur = 0
	}

	t.mu.Lock()
	t.runs++
	if t.profile && t.runs > warmupRuns {
		t.samples++
		t.durSum += uint64(dur)
		if uint32(dur) > t.durMax {
			t.durMax = uint32(dur)
		}
	}
	var changed, disabled bool
	if t.trace {
		changed, disabled = t.record(st, end)
	}
	t.mu.Unlock()

	if disabled {
		// Reclaim what the abandoned growth left behind.
		runtime.GC()
		t.log.Warn("trace log full, tracing disabled",
			logging.F("task", t.name), logging.F("entries", t.traceLimit))
		t.emit(Event{Kind: EventTraceDisabled, State: st})
	}
	t.emit(Event{Kind: EventRun, State: st, Duration: dur})
	if changed {
		t.emit(Event{Kind: EventStateChange, State: st})
	}
	return true
}

// record appends a trace entry when the state changed. Hitting the limit is
// treated like running out of memory: tracing stops for good and the entries
// gathered so far are kept. Must hold t.mu.
func (t *Task) record(st State, now clock.Ticks) (changed, disabled bool) {
	if st == t.prevState {
		return false, false
	}
	if len(t.traceLog) >= t.traceLimit {
		t.trace = false
		return false, true
	}
	t.traceLog = append(t.traceLog, TraceEntry{
		Elapsed: uint32(now - t.prevTime),
		State:   st,
	})
	t.prevState = st
	t.prevTime = now
	return true, false
}

// SetPeriod changes the interval, capped at MaxPeriod. NoPeriod leaves the
// task to be triggered only by Go. A task that had no period gets its first
// deadline one period from now.
func (t *Task) SetPeriod(p Period) {
	p = capPeriod(p)
	if p != NoPeriod && t.period == NoPeriod {
		t.nextRun = t.clk.Now().Add(uint32(p))
	}
	t.mu.Lock()
	t.period = p
	t.mu.Unlock()
}

// Go makes the task ready regardless of timing. Safe to call from an
// interrupt handler.
func (t *Task) Go() {
	t.goFlag.Store(true)
}

// ResetProfile zeroes the profile counters.
func (t *Task) ResetProfile() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts, t.runs, t.samples = 0, 0, 0
	t.durSum, t.durMax = 0, 0
	t.lates, t.lateSum, t.lateMax = 0, 0, 0
}

// Stats returns a snapshot of the profile counters.
func (t *Task) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Name:     t.name,
		Priority: t.priority,
		Period:   t.period,
		Attempts: t.attempts,
		Runs:     t.runs,
		Samples:  t.samples,
		DurSum:   t.durSum,
		DurMax:   t.durMax,
		Lates:    t.lates,
		LateSum:  t.lateSum,
		LateMax:  t.lateMax,
	}
}

// TraceLog returns a copy of the recorded transitions.
func (t *Task) TraceLog() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TraceEntry(nil), t.traceLog...)
}

// Tracing reports whether the task is still recording its trace.
func (t *Task) Tracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trace
}

// Trace renders the timeline of state transitions: cumulative seconds, then
// old and new state.
func (t *Task) Trace() string {
	var b strings.Builder
	b.WriteString("Task " + t.name + ":")
	if !t.traced {
		b.WriteString(" not traced")
		return b.String()
	}
	b.WriteString("\n")

	last := NoState
	total := 0.0
	for _, e := range t.TraceLog() {
		total += float64(e.Elapsed) / 1e6
		fmt.Fprintf(&b, "% 12.6f: % 2d -> %d\n", total, last, e.State)
		last = e.State
	}
	return b.String()
}

// String renders one fixed-width row of the task table. Times are in ms.
func (t *Task) String() string {
	s := t.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "%-16s% 4d", s.Name, s.Priority)
	if s.Period != NoPeriod {
		fmt.Fprintf(&b, "% 10.1f", float64(s.Period)/1000)
	} else {
		b.WriteString("         -")
	}
	fmt.Fprintf(&b, "% 8d", s.Runs)

	if t.profile && s.Runs > 0 {
		fmt.Fprintf(&b, "% 10.3f% 10.3f", s.AvgDuration()/1000, float64(s.DurMax)/1000)
		if s.Period != NoPeriod {
			fmt.Fprintf(&b, "% 10.3f% 10.3f", s.AvgLate()/1000, float64(s.LateMax)/1000)
		}
	}
	return b.String()
}

func (t *Task) emit(ev Event) {
	if t.obs == nil {
		return
	}
	ev.At = t.clk.Now()
	ev.Task = t.name
	ev.Priority = t.priority
	t.obs.Observe(ev)
}
