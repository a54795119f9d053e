package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger(&buf, LevelDebug)

	l.Warn("trace disabled", F("task", "PID Control"), F("entries", 1024))

	assert.Contains(t, buf.String(), "[WARN] trace disabled {task: PID Control, entries: 1024}")
}

func TestDefaultLoggerFiltersBelowMin(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger(&buf, LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), "[ERROR] shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
