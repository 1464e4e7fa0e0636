package logging

import (
	"context"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// MultiLogger writes every entry to each of its loggers.
type MultiLogger struct {
	loggers []ports.Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...ports.Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Debug logs to every logger.
func (m *MultiLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Debug(ctx, msg, fields...)
	}
}

// Info logs to every logger.
func (m *MultiLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Info(ctx, msg, fields...)
	}
}

// Warn logs to every logger.
func (m *MultiLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Warn(ctx, msg, fields...)
	}
}

// Error logs to every logger.
func (m *MultiLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Error(ctx, msg, fields...)
	}
}

// With returns a MultiLogger whose loggers all carry fields.
func (m *MultiLogger) With(fields ...ports.Field) ports.Logger {
	children := make([]ports.Logger, len(m.loggers))
	for i, l := range m.loggers {
		children[i] = l.With(fields...)
	}
	return &MultiLogger{loggers: children}
}

// Level returns the most verbose level of the loggers.
func (m *MultiLogger) Level() ports.Level {
	level := ports.LevelError
	for _, l := range m.loggers {
		if l.Level() < level {
			level = l.Level()
		}
	}
	return level
}

// SetLevel sets the level of every logger.
func (m *MultiLogger) SetLevel(level ports.Level) {
	for _, l := range m.loggers {
		l.SetLevel(level)
	}
}

var _ ports.Logger = (*MultiLogger)(nil)
