// Package metrics exports task profiles and queue fill levels to Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"cotask/internal/sched"
	"cotask/internal/share"
)

// Exporter mirrors scheduler and queue statistics into Prometheus collectors.
type Exporter struct {
	taskRuns        *prom.GaugeVec
	taskDurationAvg *prom.GaugeVec
	taskDurationMax *prom.GaugeVec
	taskLateAvg     *prom.GaugeVec
	taskLateMax     *prom.GaugeVec
	queueOccupancy  *prom.GaugeVec
	queueHighWater  *prom.GaugeVec
	queueDropped    *prom.GaugeVec
}

// NewExporter creates the collectors and registers them with reg, reusing
// any that are already registered there.
func NewExporter(namespace string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = "cotask"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	gauge := func(name, help string, label string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{label})
	}

	e := &Exporter{
		taskRuns:        gauge("task_runs", "Steps the task has run.", "task"),
		taskDurationAvg: gauge("task_duration_avg_microseconds", "Mean step duration after warm-up.", "task"),
		taskDurationMax: gauge("task_duration_max_microseconds", "Longest step duration after warm-up.", "task"),
		taskLateAvg:     gauge("task_late_avg_microseconds", "Mean lateness of periodic activations.", "task"),
		taskLateMax:     gauge("task_late_max_microseconds", "Largest lateness of periodic activations.", "task"),
		queueOccupancy:  gauge("queue_occupancy", "Values currently waiting in the queue.", "queue"),
		queueHighWater:  gauge("queue_high_water", "Largest occupancy the queue has reached.", "queue"),
		queueDropped:    gauge("queue_dropped", "Interrupt-context puts discarded on a full queue.", "queue"),
	}

	for _, vec := range []**prom.GaugeVec{
		&e.taskRuns, &e.taskDurationAvg, &e.taskDurationMax, &e.taskLateAvg,
		&e.taskLateMax, &e.queueOccupancy, &e.queueHighWater, &e.queueDropped,
	} {
		got, err := register(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = got
	}
	return e, nil
}

func register(reg prom.Registerer, vec *prom.GaugeVec) (*prom.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prom.GaugeVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return vec, nil
}

// Collect refreshes every gauge from list and reg. Either may be nil.
func (e *Exporter) Collect(list *sched.TaskList, reg *share.Registry) {
	if e == nil {
		return
	}
	if list != nil {
		for _, t := range list.Tasks() {
			s := t.Stats()
			e.taskRuns.WithLabelValues(s.Name).Set(float64(s.Runs))
			e.taskDurationAvg.WithLabelValues(s.Name).Set(s.AvgDuration())
			e.taskDurationMax.WithLabelValues(s.Name).Set(float64(s.DurMax))
			e.taskLateAvg.WithLabelValues(s.Name).Set(s.AvgLate())
			e.taskLateMax.WithLabelValues(s.Name).Set(float64(s.LateMax))
		}
	}
	if reg != nil {
		for _, b := range reg.Buffers() {
			e.queueOccupancy.WithLabelValues(b.Name()).Set(float64(b.Len()))
			e.queueHighWater.WithLabelValues(b.Name()).Set(float64(b.HighWater()))
			e.queueDropped.WithLabelValues(b.Name()).Set(float64(b.Dropped()))
		}
	}
}

// Poll calls Collect every interval until ctx ends. It runs beside the
// dispatch loop, never on it.
func (e *Exporter) Poll(ctx context.Context, interval time.Duration, list *sched.TaskList, reg *share.Registry) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.Collect(list, reg)
	for {
		select {
		case <-ctx.Done():
			e.Collect(list, reg)
			return
		case <-ticker.C:
			e.Collect(list, reg)
		}
	}
}
