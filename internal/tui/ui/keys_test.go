package ui_test

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/devsetup/internal/tui/ui"
)

func TestDefaultKeyMap(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	assert.NotEmpty(t, km.Next.Keys())
	assert.NotEmpty(t, km.Previous.Keys())
	assert.NotEmpty(t, km.NextField.Keys())
	assert.NotEmpty(t, km.Cancel.Keys())
	assert.NotEmpty(t, km.Quit.Keys())
	assert.Len(t, km.ShortHelp(), 4)
	assert.Len(t, km.FullHelp(), 3)
}

func TestKeyMap_Steps(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	tests := []struct {
		name     string
		msg      tea.KeyMsg
		next     bool
		previous bool
	}{
		{"ctrl+n", tea.KeyMsg{Type: tea.KeyCtrlN}, true, false},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, true, false},
		{"ctrl+p", tea.KeyMsg{Type: tea.KeyCtrlP}, false, true},
		{"page up", tea.KeyMsg{Type: tea.KeyPgUp}, false, true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, false, false},
		{"letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.next, km.IsNext(tt.msg))
			assert.Equal(t, tt.previous, km.IsPrevious(tt.msg))
		})
	}
}

func TestKeyMap_Fields(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.NextField))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyShiftTab}, km.PrevField))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, km.Cancel))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
}
