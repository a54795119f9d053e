package sched

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// CSVRecorder writes every event it observes as one CSV row.
type CSVRecorder struct {
	w      *csv.Writer
	closer io.Closer
	err    error
}

// NewCSVRecorder writes the header row to w and returns the recorder.
func NewCSVRecorder(w io.Writer) *CSVRecorder {
	r := &CSVRecorder{w: csv.NewWriter(w)}
	r.write([]string{"ticks", "event", "task", "priority", "state", "late_us", "duration_us"})
	return r
}

// OpenCSV creates the file at path and records into it.
func OpenCSV(path string) (*CSVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := NewCSVRecorder(f)
	r.closer = f
	return r, nil
}

func (r *CSVRecorder) Observe(ev Event) {
	r.write([]string{
		strconv.FormatUint(uint64(ev.At), 10),
		ev.Kind.String(),
		ev.Task,
		strconv.Itoa(ev.Priority),
		strconv.Itoa(int(ev.State)),
		strconv.FormatInt(int64(ev.Late), 10),
		strconv.FormatInt(int64(ev.Duration), 10),
	})
}

func (r *CSVRecorder) write(rec []string) {
	if r.err != nil {
		return
	}
	if err := r.w.Write(rec); err != nil {
		r.err = err
		return
	}
	r.w.Flush()
	r.err = r.w.Error()
}

// Err returns the first write error, if any. Recording stops after it.
func (r *CSVRecorder) Err() error {
	return r.err
}

// Close flushes and, for recorders made by OpenCSV, closes the file.
func (r *CSVRecorder) Close() error {
	r.w.Flush()
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = err
		}
	}
	if r.err == nil {
		r.err = r.w.Error()
	}
	return r.err
}
