// Package welcome implements the first page of every setup.
package welcome

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

// Type is the registry identifier.
const Type = "welcome"

// Task greets the user. It has no fields and nothing to execute.
type Task struct {
	task.Base `yaml:",inline"`
}

// New creates the welcome task.
func New() *Task {
	return &Task{Base: task.NewBase(Type, "")}
}

// Title returns the page title.
func (t *Task) Title() string {
	return "Welcome"
}

// Describe introduces the setup document.
func (t *Task) Describe() string {
	name := "your workstation"
	count := 0
	if doc := t.Document(); doc != nil {
		if doc.Name() != "" {
			name = doc.Name()
		}
		count = len(doc.Tasks())
	}
	return fmt.Sprintf("This wizard sets up %s in %d steps. Completed steps are remembered, so you can stop at any time and resume later.", name, count)
}

// Execute does nothing.
func (t *Task) Execute(context.Context) error {
	return nil
}

// Register adds the welcome type to reg.
func Register(reg *task.Registry) error {
	return reg.Register(task.Registration{
		Type:  Type,
		Title: "Welcome",
		New:   func(task.Env) task.Task { return New() },
	})
}

var (
	_ task.Task      = (*Task)(nil)
	_ task.Describer = (*Task)(nil)
)
