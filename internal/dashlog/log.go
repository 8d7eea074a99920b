// Package dashlog is a thin leveled-logging wrapper over log/slog,
// giving every component the same Debug/Info/Warn/Error call shape the
// original implementation's tracing macros occupy.
package dashlog

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps *slog.Logger with a fixed component name attached to
// every record.
type Logger struct {
	inner *slog.Logger
}

// New builds a Logger writing text-format records to w at the given
// level, tagged with component.
func New(w io.Writer, component string, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(handler).With("component", component)}
}

// Default builds a Logger writing to stderr at Info level.
func Default(component string) *Logger {
	return New(os.Stderr, component, slog.LevelInfo)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.inner.Error(msg, args...) }

// With returns a Logger that attaches args to every subsequent record,
// mirroring slog.Logger.With.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}
