package logging

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// LogrLogger forwards entries to a logr.Logger. Debug maps to V(1);
// warnings are info entries tagged with level=WARN since logr has no
// warning level.
type LogrLogger struct {
	mu    *sync.Mutex
	sink  logr.Logger
	level ports.Level
}

// NewLogrLogger wraps sink.
func NewLogrLogger(sink logr.Logger, level ports.Level) *LogrLogger {
	return &LogrLogger{mu: &sync.Mutex{}, sink: sink, level: level}
}

// NewFileLogger returns a LogrLogger writing funcr-formatted lines to w.
// JSON output is used when jsonFormat is set.
func NewFileLogger(w io.Writer, level ports.Level, jsonFormat bool) *LogrLogger {
	var writeMu sync.Mutex
	opts := funcr.Options{
		LogTimestamp:    true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		Verbosity:       1,
	}

	var sink logr.Logger
	if jsonFormat {
		sink = funcr.NewJSON(func(obj string) {
			writeMu.Lock()
			defer writeMu.Unlock()
			_, _ = fmt.Fprintln(w, obj)
		}, opts)
	} else {
		sink = funcr.New(func(prefix, args string) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if prefix != "" {
				_, _ = fmt.Fprintln(w, prefix, args)
				return
			}
			_, _ = fmt.Fprintln(w, args)
		}, opts)
	}
	return NewLogrLogger(sink, level)
}

// Debug logs at verbosity 1.
func (l *LogrLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	if !l.enabled(ports.LevelDebug) {
		return
	}
	l.sink.V(1).Info(msg, keysAndValues(fields)...)
}

// Info logs at verbosity 0.
func (l *LogrLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	if !l.enabled(ports.LevelInfo) {
		return
	}
	l.sink.Info(msg, keysAndValues(fields)...)
}

// Warn logs an info entry tagged level=WARN.
func (l *LogrLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	if !l.enabled(ports.LevelWarn) {
		return
	}
	kv := append([]interface{}{"level", ports.LevelWarn.String()}, keysAndValues(fields)...)
	l.sink.Info(msg, kv...)
}

// Error logs through logr's error path.
func (l *LogrLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	if !l.enabled(ports.LevelError) {
		return
	}
	l.sink.Error(nil, msg, keysAndValues(fields)...)
}

// With returns a logger whose sink carries fields.
func (l *LogrLogger) With(fields ...ports.Field) ports.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &LogrLogger{
		mu:    &sync.Mutex{},
		sink:  l.sink.WithValues(keysAndValues(fields)...),
		level: l.level,
	}
}

// Level returns the minimum level.
func (l *LogrLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the minimum level.
func (l *LogrLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Logr exposes the underlying sink.
func (l *LogrLogger) Logr() logr.Logger {
	return l.sink
}

func (l *LogrLogger) enabled(level ports.Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func keysAndValues(fields []ports.Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

var _ ports.Logger = (*LogrLogger)(nil)
