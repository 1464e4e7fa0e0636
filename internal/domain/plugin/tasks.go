package plugin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/domain/sandbox"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// ManifestTask is a task type declared in a plugin manifest. Field values
// are stored under "values" in the task element; secret fields are kept in
// memory only.
type ManifestTask struct {
	task.Base `yaml:",inline"`
	Values    map[string]string `yaml:"values,omitempty"`

	secrets map[string]string
	plugin  *Plugin
	spec    TaskSpec
	env     task.Env
	modules moduleRunner
}

type moduleRunner interface {
	Run(ctx context.Context, m sandbox.Module) error
}

func newManifestTask(p *Plugin, spec TaskSpec, env task.Env, modules moduleRunner) *ManifestTask {
	return &ManifestTask{
		Base:    task.NewBase(p.TaskIdentifier(spec), ""),
		plugin:  p,
		spec:    spec,
		env:     env,
		modules: modules,
	}
}

// View returns the registry identifier.
func (t *ManifestTask) View() string {
	return t.plugin.TaskIdentifier(t.spec)
}

// Resource returns the manifest description.
func (t *ManifestTask) Resource() string {
	return t.spec.Description
}

// Title returns the manifest title, or the identifier.
func (t *ManifestTask) Title() string {
	if t.spec.Title != "" {
		return t.spec.Title
	}
	return t.Type()
}

// Fields builds the form from the manifest field declarations.
func (t *ManifestTask) Fields() []*task.Field {
	fields := make([]*task.Field, 0, len(t.spec.Fields))
	for _, f := range t.spec.Fields {
		value, ok := t.lookup(f.Key)
		if !ok {
			value = f.Default
		}
		fields = append(fields, &task.Field{
			Key:      f.Key,
			Label:    f.Label,
			Help:     f.Help,
			Value:    value,
			Required: f.Required,
			Pattern:  f.Pattern,
			Choices:  f.Choices,
			Secret:   f.Secret,
		})
	}
	return fields
}

// Apply stores edited values.
func (t *ManifestTask) Apply(values map[string]string) {
	for _, f := range t.spec.Fields {
		v, ok := values[f.Key]
		if !ok {
			continue
		}
		if f.Secret {
			if t.secrets == nil {
				t.secrets = make(map[string]string)
			}
			t.secrets[f.Key] = v
			continue
		}
		if t.Values == nil {
			t.Values = make(map[string]string)
		}
		t.Values[f.Key] = v
	}
}

// Validate checks that the task is bound to its plugin and that required
// values are present.
func (t *ManifestTask) Validate() error {
	if t.plugin == nil {
		return fmt.Errorf("%s is not bound to a plugin", t.Type())
	}
	for _, f := range t.spec.Fields {
		if !f.Required {
			continue
		}
		if v := t.value(f); strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", f.Key)
		}
	}
	return nil
}

// Execute runs the declared command or WASM module.
func (t *ManifestTask) Execute(ctx context.Context) error {
	if timeout := t.spec.TimeoutDuration(); timeout > 0 && !t.spec.IsWASM() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if t.spec.IsWASM() {
		return t.runModule(ctx)
	}
	return t.runCommand(ctx)
}

func (t *ManifestTask) runCommand(ctx context.Context) error {
	values := t.resolved()
	argv := make([]string, len(t.spec.Run))
	for i, arg := range t.spec.Run {
		argv[i] = os.Expand(arg, func(key string) string { return values[key] })
	}

	_, err := t.env.RunMasked(ctx, t.secretValues(), argv[0], argv[1:]...)
	return err
}

// secretValues returns the non-empty values of secret fields.
func (t *ManifestTask) secretValues() []string {
	var out []string
	for _, f := range t.spec.Fields {
		if !f.Secret {
			continue
		}
		if v := t.value(f); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (t *ManifestTask) runModule(ctx context.Context) error {
	if t.modules == nil {
		return fmt.Errorf("%s: %w", t.Type(), sandbox.ErrSandboxUnavailable)
	}

	binary, err := t.plugin.ReadFile(t.spec.WASM)
	if err != nil {
		return fmt.Errorf("loading module %s: %w", t.spec.WASM, err)
	}
	if err := VerifyChecksum(binary, t.spec.Checksum); err != nil {
		return fmt.Errorf("verifying module %s: %w", t.spec.WASM, err)
	}

	values := t.resolved()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	env := make(map[string]string, len(keys)+1)
	for _, k := range keys {
		args = append(args, "--"+k+"="+values[k])
		env[EnvName(k)] = values[k]
	}
	env["DEVSETUP_TASK_ID"] = t.ID()

	log := task.LoggerFrom(ctx, t.env.Logger)
	stdout := &lineWriter{ctx: ctx, log: log.Info}
	stderr := &lineWriter{ctx: ctx, log: log.Warn}
	defer stdout.Flush()
	defer stderr.Flush()

	return t.modules.Run(ctx, sandbox.Module{
		Name:    t.Type(),
		Binary:  binary,
		Args:    args,
		Env:     env,
		Stdout:  stdout,
		Stderr:  stderr,
		Timeout: t.spec.TimeoutDuration(),
	})
}

// resolved merges defaults, stored values and secrets.
func (t *ManifestTask) resolved() map[string]string {
	out := make(map[string]string, len(t.spec.Fields))
	for _, f := range t.spec.Fields {
		out[f.Key] = t.value(f)
	}
	return out
}

func (t *ManifestTask) value(f FieldSpec) string {
	if v, ok := t.lookup(f.Key); ok {
		return v
	}
	return f.Default
}

func (t *ManifestTask) lookup(key string) (string, bool) {
	if v, ok := t.secrets[key]; ok {
		return v, true
	}
	v, ok := t.Values[key]
	return v, ok
}

// EnvName maps a field key to the environment variable a module sees.
func EnvName(key string) string {
	return "DEVSETUP_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// lineWriter forwards complete lines written by a module to a log function.
type lineWriter struct {
	mu  sync.Mutex
	ctx context.Context
	log func(ctx context.Context, msg string, fields ...ports.Field)
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		if s := strings.TrimRight(line, "\r\n"); s != "" {
			w.log(w.ctx, s)
		}
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s := strings.TrimSpace(w.buf.String()); s != "" {
		w.log(w.ctx, s)
	}
	w.buf.Reset()
}

var (
	_ task.FormTask  = (*ManifestTask)(nil)
	_ task.Validator = (*ManifestTask)(nil)
)
