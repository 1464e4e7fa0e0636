// Package hostname implements the set-hostname task.
package hostname

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/validation"
)

// Type is the registry identifier.
const Type = "set-hostname"

// Pattern is the accepted form of a machine name.
const Pattern = "[a-z][a-z0-9-]*"

// CommandTimeout bounds the hostnamectl call.
const CommandTimeout = 5 * time.Second

// Task renames the machine with hostnamectl. Completion is also recorded
// in the preference store, since the new name outlives the document.
type Task struct {
	task.Base `yaml:",inline"`
	Name      string `yaml:"name,omitempty"`

	env     task.Env
	timeout time.Duration
}

// New creates a set-hostname task bound to env.
func New(env task.Env) *Task {
	return &Task{Base: task.NewBase(Type, ""), env: env, timeout: CommandTimeout}
}

// AlreadyExecuted checks the document flag and the preference store.
func (t *Task) AlreadyExecuted() bool {
	return t.Executed || t.env.Remembered(t)
}

// Fields returns the name field. The current machine name is offered as
// a placeholder.
func (t *Task) Fields() []*task.Field {
	placeholder := ""
	if t.env.Hostname != nil {
		if current, err := t.env.Hostname(); err == nil {
			placeholder = current
		}
	}
	return []*task.Field{{
		Key:         "name",
		Label:       "Host name",
		Help:        "Lower-case letters, digits and hyphens.",
		Placeholder: placeholder,
		Value:       t.Name,
		Required:    true,
		Pattern:     Pattern,
		Check:       validation.ValidateMachineName,
	}}
}

// Apply stores the edited name.
func (t *Task) Apply(values map[string]string) {
	if v, ok := values["name"]; ok {
		t.Name = v
	}
}

// Validate checks the name before it reaches hostnamectl.
func (t *Task) Validate() error {
	return validation.ValidateMachineName(t.Name)
}

// Execute sets the host name.
func (t *Task) Execute(ctx context.Context) error {
	if t.env.Remembered(t) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.env.Run(ctx, "hostnamectl", "set-hostname", t.Name); err != nil {
		return err
	}
	task.LoggerFrom(ctx, t.env.Logger).Info(ctx, fmt.Sprintf("host name set to %q", t.Name), ports.F("hostname", t.Name))
	return nil
}

// Success persists the document first and records the preference marker
// only once completion is durable.
func (t *Task) Success() error {
	if err := t.Base.Success(); err != nil {
		return err
	}
	return t.env.Remember(t)
}

// Register adds the set-hostname type to reg.
func Register(reg *task.Registry) error {
	return reg.Register(task.Registration{
		Type:  Type,
		Title: "Set host name",
		New:   func(env task.Env) task.Task { return New(env) },
	})
}

var (
	_ task.FormTask  = (*Task)(nil)
	_ task.Validator = (*Task)(nil)
)
