package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/devsetup/internal/adapters/filesystem"
	"github.com/felixgeelhaar/devsetup/internal/domain/config"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/domain/wizard"
	"github.com/felixgeelhaar/devsetup/internal/tasks/summary"
	"github.com/felixgeelhaar/devsetup/internal/tasks/welcome"
)

// noteTask has one required field and fails when told to.
type noteTask struct {
	task.Base `yaml:",inline"`
	Text      string `yaml:"text,omitempty"`
}

func (n *noteTask) Title() string { return "Note" }

func (n *noteTask) Execute(context.Context) error {
	if n.Text == "fail" {
		return errors.New("note refused")
	}
	return nil
}

func (n *noteTask) Fields() []*task.Field {
	return []*task.Field{{Key: "text", Label: "Note text", Required: true, Pattern: "[a-z]+", Value: n.Text}}
}

func (n *noteTask) Apply(values map[string]string) {
	n.Text = values["text"]
}

const noteDocument = `name: Laptop
tasks:
  - type: note
`

func newTestWizard(t *testing.T) (*wizard.Wizard, string) {
	t.Helper()

	registry := task.NewRegistry(task.Env{})
	require.NoError(t, welcome.Register(registry))
	require.NoError(t, summary.Register(registry))
	require.NoError(t, registry.Register(task.Registration{Type: "note", New: func(task.Env) task.Task {
		return &noteTask{Base: task.NewBase("note", "")}
	}}))

	path := filepath.Join(t.TempDir(), "setup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(noteDocument), 0o644))

	cfg, err := config.Load(context.Background(), config.NewFileSource(path, filesystem.NewRealFileSystem()), registry)
	require.NoError(t, err)

	w, err := wizard.New(cfg, registry)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w, path
}
