package task

import (
	"fmt"
	"regexp"
	"strings"
)

// Controller binds one task to a rendering surface. The host edits the
// values of Fields and asks the controller to validate and save them.
type Controller interface {
	// Init binds the controller to t and loads its fields.
	Init(t Task) error
	// Task returns the bound task.
	Task() Task
	// Fields returns the editable fields in display order.
	Fields() []*Field
	// ValidationErrors returns user-correctable problems; empty means valid.
	ValidationErrors() []string
	// Save copies field values onto the task.
	Save()
	// RefreshStatus reports the task's completion state for display.
	RefreshStatus() Status
}

// Status is the display state of a task.
type Status struct {
	Completed bool
	Label     string
}

// Field is one editable value of a task form.
type Field struct {
	Key         string
	Label       string
	Help        string
	Placeholder string
	Value       string
	Required    bool
	// Pattern must match the whole value when the value is not empty.
	Pattern string
	// Choices restricts the value to one of the listed options.
	Choices []string
	// Secret values are masked and never persisted.
	Secret bool
	// List values hold one entry per line.
	List bool
	// Check runs after the declarative rules pass.
	Check func(value string) error
}

// Validate returns the problems with the current value.
func (f *Field) Validate() []string {
	value := strings.TrimSpace(f.Value)
	label := f.Label
	if label == "" {
		label = f.Key
	}

	if value == "" {
		if f.Required {
			return []string{fmt.Sprintf("%s is required", label)}
		}
		return nil
	}

	var errs []string
	if f.Pattern != "" {
		re, err := regexp.Compile("^(?:" + f.Pattern + ")$")
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s has an invalid pattern: %v", label, err))
		} else if !re.MatchString(value) {
			errs = append(errs, fmt.Sprintf("%s must match %s", label, f.Pattern))
		}
	}
	if len(f.Choices) > 0 && !contains(f.Choices, value) {
		errs = append(errs, fmt.Sprintf("%s must be one of: %s", label, strings.Join(f.Choices, ", ")))
	}
	if len(errs) == 0 && f.Check != nil {
		if err := f.Check(value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", label, err))
		}
	}
	return errs
}

// Lines splits a list value into its non-empty trimmed entries.
func (f *Field) Lines() []string {
	return SplitList(f.Value)
}

// SplitList splits a newline or comma separated value.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == '\n' || r == ',' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// FormController is the default Controller. It drives any FormTask and
// presents other tasks as read-only pages without fields.
type FormController struct {
	task   Task
	fields []*Field
}

// NewFormController creates an unbound FormController.
func NewFormController() *FormController {
	return &FormController{}
}

// Init binds t.
func (c *FormController) Init(t Task) error {
	if t == nil {
		return fmt.Errorf("controller: nil task")
	}
	c.task = t
	c.fields = nil
	if ft, ok := t.(FormTask); ok {
		c.fields = ft.Fields()
	}
	return nil
}

// Task returns the bound task.
func (c *FormController) Task() Task {
	return c.task
}

// Fields returns the form fields.
func (c *FormController) Fields() []*Field {
	return c.fields
}

// Field returns the field named key, or nil.
func (c *FormController) Field(key string) *Field {
	for _, f := range c.fields {
		if f.Key == key {
			return f
		}
	}
	return nil
}

// ValidationErrors validates every field.
func (c *FormController) ValidationErrors() []string {
	var errs []string
	for _, f := range c.fields {
		errs = append(errs, f.Validate()...)
	}
	return errs
}

// Save copies field values onto a FormTask.
func (c *FormController) Save() {
	ft, ok := c.task.(FormTask)
	if !ok {
		return
	}
	ft.Apply(Values(c.fields))
}

// RefreshStatus reports the completion state of the bound task.
func (c *FormController) RefreshStatus() Status {
	if c.task != nil && c.task.AlreadyExecuted() {
		return Status{Completed: true, Label: "completed"}
	}
	return Status{Label: "pending"}
}

// Values collects field values by key, trimmed.
func Values(fields []*Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.List {
			out[f.Key] = strings.Join(f.Lines(), "\n")
			continue
		}
		out[f.Key] = strings.TrimSpace(f.Value)
	}
	return out
}

var _ Controller = (*FormController)(nil)
