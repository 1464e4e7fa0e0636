// Package summary implements the last page of every setup: a list of the
// document's tasks with their completion state.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

// Type is the registry identifier.
const Type = "summary"

// Task reports what the setup did.
type Task struct {
	task.Base `yaml:",inline"`
}

// New creates the summary task.
func New() *Task {
	return &Task{Base: task.NewBase(Type, "")}
}

// Title returns the page title.
func (t *Task) Title() string {
	return "Summary"
}

// Entry is one line of the summary.
type Entry struct {
	TypeID    string
	Title     string
	Completed bool
}

// Entries lists every task of the owning document.
func (t *Task) Entries() []Entry {
	doc := t.Document()
	if doc == nil {
		return nil
	}
	tasks := doc.Tasks()
	out := make([]Entry, 0, len(tasks))
	for _, item := range tasks {
		out = append(out, Entry{
			TypeID:    item.TypeID(),
			Title:     task.Title(item),
			Completed: item.AlreadyExecuted(),
		})
	}
	return out
}

// Describe renders the entries as text.
func (t *Task) Describe() string {
	entries := t.Entries()
	if len(entries) == 0 {
		return "There was nothing to set up."
	}

	var b strings.Builder
	for _, e := range entries {
		mark := "[ ]"
		if e.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, e.Title)
	}
	done, total := t.Counts()
	fmt.Fprintf(&b, "\n%d of %d steps completed.", done, total)
	return b.String()
}

// Counts returns how many document tasks are completed, and how many there are.
func (t *Task) Counts() (done, total int) {
	entries := t.Entries()
	for _, e := range entries {
		if e.Completed {
			done++
		}
	}
	return done, len(entries)
}

// Controller shows the summary page. Its status label counts the completed
// tasks instead of describing the summary step itself.
type Controller struct {
	*task.FormController
}

// NewController creates an unbound summary controller.
func NewController() *Controller {
	return &Controller{FormController: task.NewFormController()}
}

// RefreshStatus reports the document's progress.
func (c *Controller) RefreshStatus() task.Status {
	status := c.FormController.RefreshStatus()
	if t, ok := c.Task().(*Task); ok {
		done, total := t.Counts()
		status.Label = fmt.Sprintf("%d of %d tasks completed", done, total)
	}
	return status
}

// Execute does nothing.
func (t *Task) Execute(context.Context) error {
	return nil
}

// Register adds the summary type to reg.
func Register(reg *task.Registry) error {
	return reg.Register(task.Registration{
		Type:       Type,
		Title:      "Summary",
		New:        func(task.Env) task.Task { return New() },
		Controller: func(task.Env) task.Controller { return NewController() },
	})
}

var (
	_ task.Task       = (*Task)(nil)
	_ task.Describer  = (*Task)(nil)
	_ task.Controller = (*Controller)(nil)
)
