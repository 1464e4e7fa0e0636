package task

import "fmt"

// Base carries the attributes every task element has in the setup document.
// Implementations embed it with `yaml:",inline"`.
type Base struct {
	TaskType string `yaml:"type"`
	TaskID   string `yaml:"id,omitempty"`
	Executed bool   `yaml:"executed,omitempty"`

	doc Document
}

// NewBase creates a Base for an instance task. An empty id makes a singleton.
func NewBase(taskType, id string) Base {
	return Base{TaskType: taskType, TaskID: id}
}

// Type returns the task type name.
func (b *Base) Type() string {
	return b.TaskType
}

// ID returns the instance id, or the type for singletons.
func (b *Base) ID() string {
	if b.TaskID == "" {
		return b.TaskType
	}
	return b.TaskID
}

// TypeID returns the task identity.
func (b *Base) TypeID() string {
	return MakeTypeID(b.TaskType, b.TaskID)
}

// AlreadyExecuted reports the persisted executed flag.
func (b *Base) AlreadyExecuted() bool {
	return b.Executed
}

// Init binds the owning document.
func (b *Base) Init(doc Document) {
	b.doc = doc
}

// Document returns the owning document, nil before Init.
func (b *Base) Document() Document {
	return b.doc
}

// View defaults to the task type.
func (b *Base) View() string {
	return b.TaskType
}

// Resource defaults to "<type>.help".
func (b *Base) Resource() string {
	return b.TaskType + ".help"
}

// Success flips the executed flag and persists the owning document. The
// flag is rolled back when persisting fails.
func (b *Base) Success() error {
	if b.doc == nil {
		return fmt.Errorf("%s: %w", b.TypeID(), ErrNotInitialized)
	}
	b.Executed = true
	if err := b.doc.Persist(); err != nil {
		b.Executed = false
		return fmt.Errorf("persisting %s: %w", b.TypeID(), err)
	}
	return nil
}
