// Package gitsetup implements the git tasks: writing the user's git
// configuration, registering an SSH key with a git host, and cloning
// repositories.
package gitsetup

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/validation"
)

// ConfigType is the registry identifier of the git config task.
const ConfigType = "create-git-config"

// PushDefault values accepted by git's push.default setting.
var PushDefault = []string{"nothing", "current", "upstream", "simple", "matching"}

// ConfigTask writes ~/.gitconfig with the user identity and push mode. It
// counts as executed once the file exists.
type ConfigTask struct {
	task.Base   `yaml:",inline"`
	Name        string `yaml:"name,omitempty"`
	Email       string `yaml:"email,omitempty"`
	PushDefault string `yaml:"push-default,omitempty"`

	env task.Env
}

// NewConfigTask creates a create-git-config task bound to env.
func NewConfigTask(env task.Env) *ConfigTask {
	return &ConfigTask{Base: task.NewBase(ConfigType, ""), env: env}
}

// Path returns the file the task writes.
func (t *ConfigTask) Path() string {
	return filepath.Join(t.env.Home, ".gitconfig")
}

// AlreadyExecuted checks the document flag and the configuration file.
func (t *ConfigTask) AlreadyExecuted() bool {
	if t.Executed {
		return true
	}
	return t.env.FS != nil && t.env.FS.Exists(t.Path())
}

// Fields returns the identity and push mode fields.
func (t *ConfigTask) Fields() []*task.Field {
	push := t.PushDefault
	if push == "" {
		push = "simple"
	}
	return []*task.Field{
		{Key: "name", Label: "Full name", Value: t.Name, Required: true, Check: validation.ValidateGitConfigValue},
		{Key: "email", Label: "Email", Value: t.Email, Required: true, Check: validation.ValidateEmail},
		{Key: "push-default", Label: "Push default", Value: push, Required: true, Choices: PushDefault},
	}
}

// Apply stores the edited values.
func (t *ConfigTask) Apply(values map[string]string) {
	if v, ok := values["name"]; ok {
		t.Name = v
	}
	if v, ok := values["email"]; ok {
		t.Email = v
	}
	if v, ok := values["push-default"]; ok {
		t.PushDefault = v
	}
}

// Validate checks the values before they are written.
func (t *ConfigTask) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := validation.ValidateGitConfigValue(t.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := validation.ValidateEmail(t.Email); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	for _, p := range PushDefault {
		if p == t.PushDefault {
			return nil
		}
	}
	return fmt.Errorf("push-default %q is not one of %v", t.PushDefault, PushDefault)
}

// Render returns the configuration file content.
func (t *ConfigTask) Render() ([]byte, error) {
	file := ini.Empty()
	user := file.Section("user")
	user.Key("name").SetValue(t.Name)
	user.Key("email").SetValue(t.Email)
	file.Section("push").Key("default").SetValue(t.PushDefault)

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("rendering git config: %w", err)
	}
	return buf.Bytes(), nil
}

// Execute writes the configuration file unless it already exists.
func (t *ConfigTask) Execute(ctx context.Context) error {
	if t.env.FS == nil {
		return fmt.Errorf("%s: no file system configured", t.TypeID())
	}
	path := t.Path()
	log := task.LoggerFrom(ctx, t.env.Logger)
	if t.env.FS.Exists(path) {
		log.Info(ctx, "git config already exists", ports.F("path", path))
		return nil
	}

	data, err := t.Render()
	if err != nil {
		return err
	}
	if err := t.env.FS.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing git config %s: %w", path, err)
	}
	log.Info(ctx, "created git config", ports.F("path", path))
	return nil
}

var (
	_ task.FormTask  = (*ConfigTask)(nil)
	_ task.Validator = (*ConfigTask)(nil)
)
