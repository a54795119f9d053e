// internal/sched/tasklist.go

package sched

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// Policy selects how TaskList.Dispatch picks tasks.
type Policy int

const (
	// PolicyPriority runs at most one task per call, strictly by priority.
	PolicyPriority Policy = iota
	// PolicyRoundRobin gives every task one chance per call.
	PolicyRoundRobin
)

func (p Policy) String() string {
	switch p {
	case PolicyPriority:
		return "priority"
	case PolicyRoundRobin:
		return "round_robin"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a config name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "priority", "pri", "":
		return PolicyPriority, nil
	case "round_robin", "round-robin", "rr":
		return PolicyRoundRobin, nil
	default:
		return 0, fmt.Errorf("unknown dispatch policy %q", s)
	}
}

// group is the set of tasks sharing one priority.
type group struct {
	priority int
	cursor   int // next task Priority() tries
	tasks    []*Task
}

// TaskList holds every task of the program, grouped by priority.
type TaskList struct {
	groups *redblacktree.Tree // priority -> *group, highest priority first
	count  int
	obs    Observer
}

// NewTaskList creates an empty list.
func NewTaskList() *TaskList {
	return &TaskList{
		groups: redblacktree.NewWith(descending),
	}
}

// descending orders priorities from highest to lowest.
func descending(a, b any) int {
	return utils.IntComparator(b, a)
}

// Append adds t to the group for its priority, creating the group if needed.
// Tasks of equal priority keep the order they were appended in.
//
// Append is not synchronized with dispatch. Call it before the loop starts,
// or from inside a running task.
func (l *TaskList) Append(t *Task) {
	var g *group
	if v, found := l.groups.Get(t.priority); found {
		g = v.(*group)
	} else {
		g = &group{priority: t.priority}
		l.groups.Put(t.priority, g)
	}
	g.tasks = append(g.tasks, t)
	l.count++

	if l.obs != nil {
		t.obs = l.obs
	}
}

// SetObserver routes the events of every task, present and future, to obs.
func (l *TaskList) SetObserver(obs Observer) {
	l.obs = obs
	l.each(func(t *Task) { t.obs = obs })
}

// RoundRobin calls Schedule once on every task, highest priority first and
// in append order within a priority. Each task decides for itself whether it
// is ready. It returns how many tasks ran.
func (l *TaskList) RoundRobin() int {
	ran := 0
	l.each(func(t *Task) {
		if t.Schedule() {
			ran++
		}
	})
	return ran
}

// Priority runs at most one task. It scans priorities from highest to
// lowest; within a priority it tries each task once, starting where the
// previous scan of that priority left off. The cursor moves on after every
// try, successful or not, so equally ready tasks of one priority take turns.
// The call returns as soon as a task runs.
//
// This is strict priority: while any higher-priority task is ready on every
// call, lower priorities never run.
func (l *TaskList) Priority() bool {
	it := l.groups.Iterator()
	for it.Next() {
		g := it.Value().(*group)
		n := len(g.tasks)
		for tries := 0; tries < n; tries++ {
			ran := g.tasks[g.cursor].Schedule()
			g.cursor++
			if g.cursor >= n {
				g.cursor = 0
			}
			if ran {
				return true
			}
		}
	}
	return false
}

// Dispatch makes one pass with the given policy and reports whether any task
// ran.
func (l *TaskList) Dispatch(p Policy) bool {
	if p == PolicyRoundRobin {
		return l.RoundRobin() > 0
	}
	return l.Priority()
}

// Run dispatches with policy p until ctx is cancelled, then returns
// ctx.Err(). Between passes it yields the processor so interrupt sources
// simulated by goroutines get to run.
func (l *TaskList) Run(ctx context.Context, p Policy) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Dispatch(p)
		runtime.Gosched()
	}
}

// Len returns the number of tasks.
func (l *TaskList) Len() int { return l.count }

// Tasks returns every task in dispatch order.
func (l *TaskList) Tasks() []*Task {
	out := make([]*Task, 0, l.count)
	l.each(func(t *Task) { out = append(out, t) })
	return out
}

// Priorities returns the priority levels present, highest first.
func (l *TaskList) Priorities() []int {
	out := make([]int, 0, l.groups.Size())
	for _, k := range l.groups.Keys() {
		out = append(out, k.(int))
	}
	return out
}

func (l *TaskList) each(fn func(*Task)) {
	it := l.groups.Iterator()
	for it.Next() {
		for _, t := range it.Value().(*group).tasks {
			fn(t)
		}
	}
}

// String renders the task table, grouped by priority.
func (l *TaskList) String() string {
	var b strings.Builder
	b.WriteString("TASK             PRI    PERIOD    RUNS   AVG DUR   MAX DUR  AVG LATE  MAX LATE\n")
	l.each(func(t *Task) {
		b.WriteString(t.String())
		b.WriteString("\n")
	})
	return b.String()
}
