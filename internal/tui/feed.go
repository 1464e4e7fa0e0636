package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

// feedBuffer is the number of lines held before new lines are dropped.
const feedBuffer = 256

// Feed is a ports.Logger that forwards entries to the wizard screen. It
// never blocks the task: lines are dropped while the screen is behind.
type Feed struct {
	shared *feedState
	fields []ports.Field
}

type feedState struct {
	mu      sync.Mutex
	lines   chan ui.LogLineMsg
	level   ports.Level
	closed  bool
	dropped int
}

// NewFeed creates a Feed that forwards Info and above.
func NewFeed() *Feed {
	return &Feed{shared: &feedState{
		lines: make(chan ui.LogLineMsg, feedBuffer),
		level: ports.LevelInfo,
	}}
}

// Lines returns the channel the screen reads from.
func (f *Feed) Lines() <-chan ui.LogLineMsg {
	return f.shared.lines
}

// Dropped returns how many lines were lost to a full buffer.
func (f *Feed) Dropped() int {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	return f.shared.dropped
}

// Close ends the feed. Later entries are discarded.
func (f *Feed) Close() {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	if !f.shared.closed {
		f.shared.closed = true
		close(f.shared.lines)
	}
}

// Debug forwards a debug entry.
func (f *Feed) Debug(_ context.Context, msg string, fields ...ports.Field) {
	f.emit(ports.LevelDebug, msg, fields)
}

// Info forwards an info entry.
func (f *Feed) Info(_ context.Context, msg string, fields ...ports.Field) {
	f.emit(ports.LevelInfo, msg, fields)
}

// Warn forwards a warning.
func (f *Feed) Warn(_ context.Context, msg string, fields ...ports.Field) {
	f.emit(ports.LevelWarn, msg, fields)
}

// Error forwards an error.
func (f *Feed) Error(_ context.Context, msg string, fields ...ports.Field) {
	f.emit(ports.LevelError, msg, fields)
}

// With returns a Feed that adds fields to every line.
func (f *Feed) With(fields ...ports.Field) ports.Logger {
	return &Feed{shared: f.shared, fields: append(append([]ports.Field(nil), f.fields...), fields...)}
}

// Level returns the minimum forwarded level.
func (f *Feed) Level() ports.Level {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	return f.shared.level
}

// SetLevel sets the minimum forwarded level.
func (f *Feed) SetLevel(level ports.Level) {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	f.shared.level = level
}

func (f *Feed) emit(level ports.Level, msg string, fields []ports.Field) {
	f.shared.mu.Lock()
	defer f.shared.mu.Unlock()
	if f.shared.closed || level < f.shared.level {
		return
	}

	line := ui.LogLineMsg{Level: level.String(), Text: render(msg, fields)}
	select {
	case f.shared.lines <- line:
	default:
		f.shared.dropped++
	}
}

// render appends the entry fields except the task and session tags, which
// the screen already shows.
func render(msg string, fields []ports.Field) string {
	var b strings.Builder
	b.WriteString(msg)
	for _, field := range fields {
		if field.Key == "task" || field.Key == "session" || field.Value == nil {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", field.Key, field.Value)
	}
	return b.String()
}

var _ ports.Logger = (*Feed)(nil)
