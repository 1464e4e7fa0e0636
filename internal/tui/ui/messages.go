package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
)

// ExecutionDoneMsg carries the result of a task execution back to the
// control goroutine.
type ExecutionDoneMsg struct {
	Result wizard.Result
}

// LogLineMsg is one line of task output.
type LogLineMsg struct {
	Level string
	Text  string
}

// FeedClosedMsg is sent when the log feed has no more lines.
type FeedClosedMsg struct{}

// ErrorMsg represents an error that occurred during processing.
type ErrorMsg struct {
	Err error
}

func (e ErrorMsg) Error() string {
	return e.Err.Error()
}

// WaitForExecution returns a command that blocks until exec reports.
func WaitForExecution(exec *wizard.Execution) tea.Cmd {
	return func() tea.Msg {
		return ExecutionDoneMsg{Result: <-exec.Done()}
	}
}

// WaitForLine returns a command that blocks until lines delivers a line.
func WaitForLine(lines <-chan LogLineMsg) tea.Cmd {
	if lines == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return FeedClosedMsg{}
		}
		return line
	}
}

// NewErrorMsg creates a new error message.
func NewErrorMsg(err error) tea.Msg {
	return ErrorMsg{Err: err}
}
