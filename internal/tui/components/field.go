package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

// FieldKind selects the widget used for a task field.
type FieldKind int

// Field kinds.
const (
	KindText FieldKind = iota
	KindSecret
	KindList
	KindChoice
)

// KindOf returns the widget kind for f.
func KindOf(f *task.Field) FieldKind {
	switch {
	case len(f.Choices) > 0:
		return KindChoice
	case f.List:
		return KindList
	case f.Secret:
		return KindSecret
	default:
		return KindText
	}
}

// Field edits one task field. Changes reach the task field on Commit.
type Field struct {
	field   *task.Field
	kind    FieldKind
	input   textinput.Model
	area    textarea.Model
	choice   int
	focused  bool
	readOnly bool
	keys    ui.KeyMap
	styles  ui.Styles
}

// NewField creates the widget for f.
func NewField(f *task.Field) Field {
	c := Field{
		field:  f,
		kind:   KindOf(f),
		keys:   ui.DefaultKeyMap(),
		styles: ui.DefaultStyles(),
	}

	switch c.kind {
	case KindChoice:
		for i, choice := range f.Choices {
			if choice == f.Value {
				c.choice = i
			}
		}
	case KindList:
		c.area = textarea.New()
		c.area.ShowLineNumbers = false
		c.area.Placeholder = f.Placeholder
		c.area.SetWidth(ui.DefaultInputWidth)
		c.area.SetHeight(4)
		c.area.SetValue(f.Value)
		c.area.Blur()
	default:
		c.input = textinput.New()
		c.input.Prompt = "> "
		c.input.Placeholder = f.Placeholder
		c.input.SetValue(f.Value)
		if c.kind == KindSecret {
			c.input.EchoMode = textinput.EchoPassword
			c.input.EchoCharacter = '•'
		}
	}
	return c
}

// ReadOnly returns a copy of the field that shows its value but takes no
// focus or input.
func (c Field) ReadOnly() Field {
	c = c.Blur()
	c.readOnly = true
	return c
}

// IsReadOnly reports whether the field refuses edits.
func (c Field) IsReadOnly() bool {
	return c.readOnly
}

// Key returns the task field key.
func (c Field) Key() string {
	return c.field.Key
}

// Kind returns the widget kind.
func (c Field) Kind() FieldKind {
	return c.kind
}

// Focused reports whether the field has focus.
func (c Field) Focused() bool {
	return c.focused
}

// Value returns the edited value.
func (c Field) Value() string {
	switch c.kind {
	case KindChoice:
		if len(c.field.Choices) == 0 {
			return ""
		}
		return c.field.Choices[c.choice]
	case KindList:
		return c.area.Value()
	default:
		return c.input.Value()
	}
}

// Commit copies the edited value onto the task field. Read-only fields
// leave it alone.
func (c Field) Commit() {
	if c.readOnly {
		return
	}
	c.field.Value = c.Value()
}

// Focus gives the field keyboard focus.
func (c Field) Focus() (Field, tea.Cmd) {
	if c.readOnly {
		return c, nil
	}
	c.focused = true
	switch c.kind {
	case KindList:
		return c, c.area.Focus()
	case KindChoice:
		return c, nil
	default:
		return c, c.input.Focus()
	}
}

// Blur removes keyboard focus.
func (c Field) Blur() Field {
	c.focused = false
	switch c.kind {
	case KindList:
		c.area.Blur()
	case KindText, KindSecret:
		c.input.Blur()
	}
	return c
}

// Update handles input for the focused field.
func (c Field) Update(msg tea.Msg) (Field, tea.Cmd) {
	if !c.focused {
		return c, nil
	}

	var cmd tea.Cmd
	switch c.kind {
	case KindChoice:
		if k, ok := msg.(tea.KeyMsg); ok {
			n := len(c.field.Choices)
			switch {
			case key.Matches(k, c.keys.ChoiceLeft):
				c.choice = (c.choice + n - 1) % n
			case key.Matches(k, c.keys.ChoiceRight), k.String() == " ":
				c.choice = (c.choice + 1) % n
			}
		}
	case KindList:
		c.area, cmd = c.area.Update(msg)
	default:
		c.input, cmd = c.input.Update(msg)
	}
	return c, cmd
}

// View renders the label, widget and help line.
func (c Field) View() string {
	label := c.field.Label
	if label == "" {
		label = c.field.Key
	}
	if c.field.Required {
		label += " *"
	}

	var b strings.Builder
	if c.focused {
		b.WriteString(c.styles.LabelFocused.Render(label))
	} else {
		b.WriteString(c.styles.Label.Render(label))
	}
	b.WriteString("\n")

	if c.readOnly {
		b.WriteString(c.styles.Paragraph.Render(c.display()))
		return b.String()
	}

	switch c.kind {
	case KindChoice:
		options := make([]string, len(c.field.Choices))
		for i, choice := range c.field.Choices {
			if i == c.choice {
				options[i] = c.styles.ChoiceActive.Render(choice)
			} else {
				options[i] = c.styles.Choice.Render(choice)
			}
		}
		b.WriteString(strings.Join(options, " "))
	case KindList:
		b.WriteString(c.area.View())
	default:
		b.WriteString(c.input.View())
	}

	if c.field.Help != "" {
		b.WriteString("\n")
		b.WriteString(c.styles.FieldHelp.Render(c.field.Help))
	}
	return b.String()
}

// display is the value as shown by a read-only field.
func (c Field) display() string {
	value := c.Value()
	switch {
	case value == "":
		return "(empty)"
	case c.kind == KindSecret:
		return strings.Repeat("•", 8)
	default:
		return value
	}
}
