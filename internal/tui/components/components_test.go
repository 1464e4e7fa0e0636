package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

func TestProgress(t *testing.T) {
	t.Parallel()

	p := NewProgress(4).SetCurrent(2).SetMessage("set-hostname[x]")
	assert.Equal(t, 2, p.Current())
	assert.Equal(t, 4, p.Total())
	assert.InDelta(t, 0.5, p.Percent(), 0.001)
	assert.Contains(t, p.View(), "2 / 4")
	assert.Contains(t, p.View(), "set-hostname[x]")

	assert.Equal(t, 4, p.SetCurrent(9).Current())
	assert.Equal(t, 0, p.SetCurrent(-1).Current())
	assert.Equal(t, 0.0, NewProgress(0).Percent())
	assert.Equal(t, 0, NewProgress(-3).Total())
}

func TestProgress_BarWidth(t *testing.T) {
	t.Parallel()

	view := NewProgress(2).SetCurrent(1).WithWidth(12).View()
	assert.Equal(t, 5, strings.Count(view, "█"))
	assert.Equal(t, 5, strings.Count(view, "░"))
}

func TestSpinner(t *testing.T) {
	t.Parallel()

	s := NewSpinner().SetMessage("running")
	assert.Equal(t, "running", s.Message())
	assert.Contains(t, s.View(), "running")
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindText, KindOf(&task.Field{}))
	assert.Equal(t, KindSecret, KindOf(&task.Field{Secret: true}))
	assert.Equal(t, KindList, KindOf(&task.Field{List: true}))
	assert.Equal(t, KindChoice, KindOf(&task.Field{Choices: []string{"a"}, List: true}))
}

func TestField_Text(t *testing.T) {
	t.Parallel()

	tf := &task.Field{Key: "name", Label: "Host name", Value: "dev", Required: true, Help: "lower case"}
	f := NewField(tf)
	assert.Equal(t, "name", f.Key())
	assert.False(t, f.Focused())

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "dev", f.Value(), "unfocused fields ignore input")

	f, _ = f.Focus()
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("box")})
	assert.Equal(t, "devbox", f.Value())
	assert.Equal(t, "dev", tf.Value, "the task field changes on commit only")

	f.Commit()
	assert.Equal(t, "devbox", tf.Value)

	view := f.View()
	assert.Contains(t, view, "Host name *")
	assert.Contains(t, view, "lower case")

	f = f.Blur()
	assert.False(t, f.Focused())
}

func TestField_ReadOnly(t *testing.T) {
	t.Parallel()

	tf := &task.Field{Key: "name", Label: "Host name", Value: "dev"}
	f := NewField(tf).ReadOnly()
	assert.True(t, f.IsReadOnly())

	f, cmd := f.Focus()
	assert.Nil(t, cmd)
	assert.False(t, f.Focused())

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("box")})
	assert.Equal(t, "dev", f.Value())

	tf.Value = "changed"
	f.Commit()
	assert.Equal(t, "changed", tf.Value, "commit leaves the task field alone")
	assert.Contains(t, f.View(), "dev")

	secret := NewField(&task.Field{Key: "password", Secret: true, Value: "hunter2"}).ReadOnly()
	assert.NotContains(t, secret.View(), "hunter2")
}

func TestField_Secret(t *testing.T) {
	t.Parallel()

	f := NewField(&task.Field{Key: "password", Secret: true})
	f, _ = f.Focus()
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s3cret")})
	assert.Equal(t, "s3cret", f.Value())
	assert.NotContains(t, f.View(), "s3cret")
}

func TestField_Choice(t *testing.T) {
	t.Parallel()

	tf := &task.Field{Key: "provider", Choices: []string{"bitbucket", "github"}, Value: "github"}
	f := NewField(tf)
	assert.Equal(t, "github", f.Value())

	f, _ = f.Focus()
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "bitbucket", f.Value(), "choices wrap around")
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "github", f.Value())

	f.Commit()
	assert.Equal(t, "github", tf.Value)
	assert.Contains(t, f.View(), "bitbucket")
}

func TestField_List(t *testing.T) {
	t.Parallel()

	tf := &task.Field{Key: "repositories", List: true, Value: "a.git\nb.git"}
	f := NewField(tf)
	require.Equal(t, KindList, f.Kind())
	assert.Equal(t, "a.git\nb.git", f.Value())
}

func TestLogView(t *testing.T) {
	t.Parallel()

	l := NewLogView(40, 3)
	assert.Empty(t, l.View())

	l = l.Append("INFO", "Cloning into 'service'...")
	l = l.Append("WARN", "slow network")
	assert.Equal(t, 2, l.Len())
	assert.Contains(t, l.View(), "Output")

	l.max = 3
	for i := 0; i < 5; i++ {
		l = l.Append("INFO", "line")
	}
	assert.Equal(t, 3, l.Len())

	l = l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.View())
}
