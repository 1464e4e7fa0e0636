package logging

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// Entry is one record captured by a MemoryLogger.
type Entry struct {
	Level   ports.Level
	Message string
	Fields  map[string]interface{}
}

// MemoryLogger keeps entries in memory. Children created with With share
// the same entry list.
type MemoryLogger struct {
	store  *entryStore
	fields []ports.Field
	level  ports.Level
}

type entryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates a MemoryLogger that records every level.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{store: &entryStore{}, level: ports.LevelDebug}
}

// Debug records a debug entry.
func (l *MemoryLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelDebug, msg, fields)
}

// Info records an info entry.
func (l *MemoryLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelInfo, msg, fields)
}

// Warn records a warning entry.
func (l *MemoryLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelWarn, msg, fields)
}

// Error records an error entry.
func (l *MemoryLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelError, msg, fields)
}

// With returns a child that adds fields to every entry.
func (l *MemoryLogger) With(fields ...ports.Field) ports.Logger {
	return &MemoryLogger{store: l.store, fields: mergeFields(l.fields, fields), level: l.level}
}

// Level returns the minimum level.
func (l *MemoryLogger) Level() ports.Level { return l.level }

// SetLevel sets the minimum level.
func (l *MemoryLogger) SetLevel(level ports.Level) { l.level = level }

// Entries returns a snapshot of the recorded entries.
func (l *MemoryLogger) Entries() []Entry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]Entry(nil), l.store.entries...)
}

// Contains reports whether any entry message contains substr.
func (l *MemoryLogger) Contains(substr string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func (l *MemoryLogger) record(level ports.Level, msg string, fields []ports.Field) {
	if level < l.level {
		return
	}
	all := mergeFields(l.fields, fields)
	values := make(map[string]interface{}, len(all))
	for _, f := range all {
		values[f.Key] = f.Value
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, Entry{Level: level, Message: msg, Fields: values})
}

var _ ports.Logger = (*MemoryLogger)(nil)
