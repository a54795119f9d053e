// Package logging is the small structured logger the scheduler and the
// application write through.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Logger is a leveled logger with key/value fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F creates a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown names mean LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger writes through the standard log package.
type DefaultLogger struct {
	l   *log.Logger
	min Level
}

// NewDefaultLogger creates a logger writing to w at or above min.
func NewDefaultLogger(w io.Writer, min Level) *DefaultLogger {
	return &DefaultLogger{
		l:   log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		min: min,
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Field) { d.log(LevelDebug, msg, fields...) }
func (d *DefaultLogger) Info(msg string, fields ...Field)  { d.log(LevelInfo, msg, fields...) }
func (d *DefaultLogger) Warn(msg string, fields ...Field)  { d.log(LevelWarn, msg, fields...) }
func (d *DefaultLogger) Error(msg string, fields ...Field) { d.log(LevelError, msg, fields...) }

func (d *DefaultLogger) log(level Level, msg string, fields ...Field) {
	if level < d.min {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if len(fields) > 0 {
		b.WriteString(" {")
		for i, f := range fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", f.Key, f.Value)
		}
		b.WriteString("}")
	}
	d.l.Println(b.String())
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}
