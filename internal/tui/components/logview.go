package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

// LogView shows the most recent task output lines.
type LogView struct {
	lines    []string
	max      int
	viewport viewport.Model
	styles   ui.Styles
}

// NewLogView creates a log pane of the given size.
func NewLogView(width, height int) LogView {
	return LogView{
		max:      ui.MaxLogLines,
		viewport: viewport.New(width, height),
		styles:   ui.DefaultStyles(),
	}
}

// Append adds a line and scrolls to it. The oldest lines are dropped once
// the pane holds more than its maximum.
func (l LogView) Append(level, text string) LogView {
	line := text
	switch level {
	case "WARN":
		line = l.styles.Warning.Render(text)
	case "ERROR":
		line = l.styles.Error.Render(text)
	}
	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = append([]string(nil), l.lines[len(l.lines)-l.max:]...)
	}
	l.viewport.SetContent(strings.Join(l.lines, "\n"))
	l.viewport.GotoBottom()
	return l
}

// Clear removes every line.
func (l LogView) Clear() LogView {
	l.lines = nil
	l.viewport.SetContent("")
	return l
}

// Len returns the number of stored lines.
func (l LogView) Len() int {
	return len(l.lines)
}

// SetSize resizes the pane.
func (l LogView) SetSize(width, height int) LogView {
	l.viewport.Width = width
	l.viewport.Height = height
	return l
}

// Update handles scrolling.
func (l LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	var cmd tea.Cmd
	l.viewport, cmd = l.viewport.Update(msg)
	return l, cmd
}

// View renders the pane, or nothing when it is empty.
func (l LogView) View() string {
	if len(l.lines) == 0 {
		return ""
	}
	return l.styles.Panel.Render(l.styles.PanelTitle.Render("Output") + "\n" + l.viewport.View())
}
