package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap contains the key bindings of the wizard screen.
type KeyMap struct {
	// Step navigation
	Next     key.Binding
	Previous key.Binding

	// Field navigation
	NextField key.Binding
	PrevField key.Binding

	// Choice fields
	ChoiceLeft  key.Binding
	ChoiceRight key.Binding

	// Execution
	Cancel key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("ctrl+n", "pgdown"),
			key.WithHelp("ctrl+n", "next step"),
		),
		Previous: key.NewBinding(
			key.WithKeys("ctrl+p", "pgup"),
			key.WithHelp("ctrl+p", "previous step"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down", "enter"),
			key.WithHelp("tab/enter", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		ChoiceLeft: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		ChoiceRight: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel task"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Previous, k.NextField, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Previous},
		{k.NextField, k.PrevField, k.ChoiceLeft, k.ChoiceRight},
		{k.Cancel, k.Help, k.Quit},
	}
}

// IsNext returns true if the key message leaves the current step.
func (k KeyMap) IsNext(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Next)
}

// IsPrevious returns true if the key message moves back one step.
func (k KeyMap) IsPrevious(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Previous)
}
