// Package task defines the unit of work the wizard walks through: the Task
// capability, the document attributes every task shares, the registry that
// maps type names to constructors, and the controller surface a host uses
// to edit a task's fields.
package task

import "context"

// Document is the owner of a task. Tasks keep a reference to it so they can
// persist their own completion.
type Document interface {
	Persister
	// Name is the display name of the setup document.
	Name() string
	// Tasks returns the tasks in document order.
	Tasks() []Task
}

// Persister writes the whole owning document to durable storage.
type Persister interface {
	Persist() error
}

// Task is one idempotent unit of provisioning work.
type Task interface {
	// Type is the stable name shared by every instance of one implementation.
	Type() string
	// ID disambiguates instances of the same type. Singletons return Type().
	ID() string
	// TypeID is the permanent identity of the instance across restarts.
	TypeID() string
	// AlreadyExecuted reports whether the task completed in an earlier run.
	AlreadyExecuted() bool
	// Init binds the task to its owning document after loading.
	Init(doc Document)
	// Execute performs the work. It runs off the control goroutine and must
	// honour ctx cancellation.
	Execute(ctx context.Context) error
	// Success marks the task completed and persists the owning document.
	Success() error
	// View names the rendering surface for the task. Opaque to the engine.
	View() string
	// Resource locates help text for the rendering surface. Opaque to the engine.
	Resource() string
}

// Validator is implemented by tasks that can check their own state before
// Execute runs.
type Validator interface {
	Validate() error
}

// FormTask is implemented by tasks whose attributes are editable in a form.
type FormTask interface {
	Task
	// Fields returns fresh form fields populated from the task.
	Fields() []*Field
	// Apply copies edited values back onto the task.
	Apply(values map[string]string)
}

// MakeTypeID builds the identity string for a task: the bare type for a
// singleton, otherwise "type[id]".
func MakeTypeID(taskType, id string) string {
	if id == "" || id == taskType {
		return taskType
	}
	return taskType + "[" + id + "]"
}

// PreferenceKey returns the key a task uses in the user preference store.
func PreferenceKey(t Task) string {
	return t.Type() + "-" + t.ID()
}

// Equal reports whether a and b denote the same task instance.
func Equal(a, b Task) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.TypeID() == b.TypeID()
}

// IsSingleton reports whether t is the only instance of its type.
func IsSingleton(t Task) bool {
	return t.ID() == t.Type()
}

// Describer is implemented by tasks that show explanatory text above their
// form, such as the welcome and summary pages.
type Describer interface {
	Describe() string
}

// Titler is implemented by tasks with a display name other than their type.
type Titler interface {
	Title() string
}
