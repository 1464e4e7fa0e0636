// Package logging provides ports.Logger implementations: a ConsoleLogger for
// terminal output, a LogrLogger that forwards to a go-logr sink, a
// MemoryLogger for tests, and a NopLogger.
package logging

import (
	"context"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// NopLogger discards every entry.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger creates a NopLogger.
func NewNopLogger() *NopLogger {
	return &NopLogger{level: ports.LevelInfo}
}

// Debug does nothing.
func (l *NopLogger) Debug(context.Context, string, ...ports.Field) {}

// Info does nothing.
func (l *NopLogger) Info(context.Context, string, ...ports.Field) {}

// Warn does nothing.
func (l *NopLogger) Warn(context.Context, string, ...ports.Field) {}

// Error does nothing.
func (l *NopLogger) Error(context.Context, string, ...ports.Field) {}

// With returns the receiver.
func (l *NopLogger) With(...ports.Field) ports.Logger {
	return l
}

// Level returns the configured level.
func (l *NopLogger) Level() ports.Level {
	return l.level
}

// SetLevel sets the level.
func (l *NopLogger) SetLevel(level ports.Level) {
	l.level = level
}

var _ ports.Logger = (*NopLogger)(nil)
