package gitsetup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
	"github.com/felixgeelhaar/devsetup/internal/validation"
)

// CloneType is the registry identifier of the clone task.
const CloneType = "git-clone"

// DefaultTargetDir is used when the document names no target directory.
const DefaultTargetDir = "~/git"

// CloneTimeout bounds each git clone.
const CloneTimeout = 120 * time.Second

// CloneTask clones a list of repositories into one directory.
type CloneTask struct {
	task.Base    `yaml:",inline"`
	TargetDir    string   `yaml:"target-dir,omitempty"`
	Repositories []string `yaml:"repositories,omitempty"`

	env     task.Env
	timeout time.Duration
}

// NewCloneTask creates a git-clone task bound to env.
func NewCloneTask(env task.Env) *CloneTask {
	return &CloneTask{Base: task.NewBase(CloneType, ""), env: env, timeout: CloneTimeout}
}

// AlreadyExecuted checks the document flag and the preference store.
func (t *CloneTask) AlreadyExecuted() bool {
	return t.Executed || t.env.Remembered(t)
}

// Dir returns the expanded target directory.
func (t *CloneTask) Dir() string {
	dir := t.TargetDir
	if dir == "" {
		dir = DefaultTargetDir
	}
	return t.env.ExpandHome(dir)
}

// Fields returns the directory and repository list fields.
func (t *CloneTask) Fields() []*task.Field {
	dir := t.TargetDir
	if dir == "" {
		dir = DefaultTargetDir
	}
	return []*task.Field{
		{Key: "target-dir", Label: "Target directory", Value: dir, Required: true, Check: validation.ValidateGitPath},
		{
			Key:      "repositories",
			Label:    "Repositories",
			Help:     "One clone URL per line.",
			Value:    strings.Join(t.Repositories, "\n"),
			Required: true,
			List:     true,
			Check: func(value string) error {
				return validation.ValidateGitRemoteURLs(task.SplitList(value))
			},
		},
	}
}

// Apply stores the edited values.
func (t *CloneTask) Apply(values map[string]string) {
	if v, ok := values["target-dir"]; ok {
		t.TargetDir = v
	}
	if v, ok := values["repositories"]; ok {
		t.Repositories = task.SplitList(v)
	}
}

// Validate checks the directory and every repository URL.
func (t *CloneTask) Validate() error {
	if err := validation.ValidateGitPath(t.Dir()); err != nil {
		return fmt.Errorf("target-dir: %w", err)
	}
	return validation.ValidateGitRemoteURLs(t.Repositories)
}

// Execute clones every repository in order and stops at the first failure.
// Repositories whose checkout directory already exists are skipped, so a
// retry resumes after the last successful clone.
func (t *CloneTask) Execute(ctx context.Context) error {
	if t.env.Remembered(t) {
		return nil
	}

	dir := t.Dir()
	if t.env.FS != nil {
		if err := t.env.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	log := task.LoggerFrom(ctx, t.env.Logger)
	for _, repo := range t.Repositories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.cloned(dir, repo) {
			log.Info(ctx, "repository already cloned", ports.F("repository", repo), ports.F("dir", dir))
			continue
		}
		log.Info(ctx, "cloning repository", ports.F("repository", repo), ports.F("dir", dir))
		if err := t.clone(ctx, dir, repo); err != nil {
			return err
		}
	}

	log.Info(ctx, "cloned repositories", ports.F("count", len(t.Repositories)))
	return nil
}

func (t *CloneTask) cloned(dir, repo string) bool {
	name := CheckoutName(repo)
	if name == "" || t.env.FS == nil {
		return false
	}
	return t.env.FS.Exists(filepath.Join(dir, name))
}

func (t *CloneTask) clone(ctx context.Context, dir, repo string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if _, err := t.env.Run(ctx, "git", "-C", dir, "clone", "-v", repo); err != nil {
		return fmt.Errorf("cloning %s: %w", repo, err)
	}
	return nil
}

// CheckoutName returns the directory git clone creates for repo: the last
// path element without a trailing ".git".
func CheckoutName(repo string) string {
	name := strings.TrimRight(repo, "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// Success persists the document first and records the preference marker
// only once completion is durable.
func (t *CloneTask) Success() error {
	if err := t.Base.Success(); err != nil {
		return err
	}
	return t.env.Remember(t)
}

// Register adds the git task types to reg.
func Register(reg *task.Registry) error {
	regs := []task.Registration{
		{Type: ConfigType, Title: "Create git config", New: func(env task.Env) task.Task { return NewConfigTask(env) }},
		{Type: SSHType, Title: "Set up git over SSH", New: func(env task.Env) task.Task { return NewSSHTask(env) }},
		{Type: CloneType, Title: "Clone repositories", New: func(env task.Env) task.Task { return NewCloneTask(env) }},
	}
	for _, r := range regs {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ task.FormTask  = (*CloneTask)(nil)
	_ task.Validator = (*CloneTask)(nil)
)
