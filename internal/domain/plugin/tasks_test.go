package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/devsetup/internal/adapters/logging"
	"github.com/felixgeelhaar/devsetup/internal/domain/sandbox"
	"github.com/felixgeelhaar/devsetup/internal/domain/task"
	"github.com/felixgeelhaar/devsetup/internal/ports"
)

type recordingModules struct {
	got    sandbox.Module
	stdout string
	err    error
}

func (r *recordingModules) Run(_ context.Context, m sandbox.Module) error {
	r.got = m
	if r.stdout != "" {
		_, _ = m.Stdout.Write([]byte(r.stdout))
	}
	return r.err
}

func commandSpec() TaskSpec {
	return TaskSpec{
		Type:  "group",
		Title: "Join docker group",
		Run:   []string{"usermod", "-aG", "${group}", "$user"},
		Fields: []FieldSpec{
			{Key: "user", Label: "User", Required: true},
			{Key: "group", Default: "docker"},
			{Key: "token", Secret: true},
		},
	}
}

func newTestTask(t *testing.T, spec TaskSpec, runner ports.CommandRunner, modules moduleRunner) (*ManifestTask, *logging.MemoryLogger) {
	t.Helper()
	logger := logging.NewMemoryLogger()
	env := task.Env{Logger: logger, Runner: runner}.WithDefaults()
	p := &Plugin{Manifest: Manifest{Name: "docker", Version: "1.0.0"}, Path: t.TempDir()}
	return newManifestTask(p, spec, env, modules), logger
}

func TestManifestTask_Identity(t *testing.T) {
	t.Parallel()

	mt, _ := newTestTask(t, commandSpec(), nil, nil)
	assert.Equal(t, "docker.group", mt.Type())
	assert.Equal(t, "docker.group", mt.View())
	assert.Equal(t, "Join docker group", mt.Title())

	spec := commandSpec()
	spec.Title = ""
	untitled, _ := newTestTask(t, spec, nil, nil)
	assert.Equal(t, "docker.group", untitled.Title())
}

func TestManifestTask_FieldsAndApply(t *testing.T) {
	t.Parallel()

	mt, _ := newTestTask(t, commandSpec(), nil, nil)

	fields := mt.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "docker", fields[1].Value, "defaults pre-fill the form")
	assert.True(t, fields[2].Secret)

	mt.Apply(map[string]string{"user": "dev", "token": "s3cret", "ignored": "x"})
	assert.Equal(t, map[string]string{"user": "dev"}, mt.Values, "secrets stay out of the document")
	assert.Equal(t, "s3cret", mt.Fields()[2].Value)
}

func TestManifestTask_Validate(t *testing.T) {
	t.Parallel()

	mt, _ := newTestTask(t, commandSpec(), nil, nil)
	assert.EqualError(t, mt.Validate(), "user is required")

	mt.Apply(map[string]string{"user": "dev"})
	assert.NoError(t, mt.Validate())
}

func TestManifestTask_ExecuteCommand(t *testing.T) {
	t.Parallel()

	runner := ports.NewMockCommandRunner()
	runner.AddResult("usermod", []string{"-aG", "docker", "dev"}, ports.CommandResult{Stdout: "done\n"})

	mt, logger := newTestTask(t, commandSpec(), runner, nil)
	mt.Apply(map[string]string{"user": "dev"})

	require.NoError(t, mt.Execute(context.Background()))
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, "usermod -aG docker dev", runner.Calls()[0].String())
	assert.True(t, logger.Contains("done"))
}

func TestManifestTask_ExecuteCommandFailure(t *testing.T) {
	t.Parallel()

	runner := ports.NewMockCommandRunner()
	runner.SetDefault(ports.CommandResult{ExitCode: 6, Stderr: "user 'dev' does not exist\n"})

	mt, _ := newTestTask(t, commandSpec(), runner, nil)
	mt.Apply(map[string]string{"user": "dev"})

	err := mt.Execute(context.Background())
	var cmdErr *task.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 6, cmdErr.ExitCode)
	assert.Equal(t, "usermod exited with code 6: user 'dev' does not exist", err.Error())
}

func TestManifestTask_ExecuteCommandMasksSecrets(t *testing.T) {
	t.Parallel()

	spec := commandSpec()
	spec.Run = []string{"login", "--user=$user", "--token=$token"}
	runner := ports.NewMockCommandRunner()
	runner.SetDefault(ports.CommandResult{ExitCode: 1, Stdout: "trying s3cret\n", Stderr: "token s3cret rejected"})

	mt, logger := newTestTask(t, spec, runner, nil)
	mt.Apply(map[string]string{"user": "dev", "token": "s3cret"})

	err := mt.Execute(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret")
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, "login --user=dev --token=s3cret", runner.Calls()[0].String())

	assert.True(t, logger.Contains("running command"))
	for _, e := range logger.Entries() {
		assert.NotContains(t, e.Message, "s3cret")
		for k, v := range e.Fields {
			assert.NotContains(t, fmt.Sprint(v), "s3cret", "field %s", k)
		}
	}
}

func wasmSpec(t *testing.T, dir string, binary []byte) TaskSpec {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "motd.wasm"), binary, 0o644))
	sum := sha256.Sum256(binary)
	return TaskSpec{
		Type:     "motd",
		WASM:     "motd.wasm",
		Checksum: "sha256:" + hex.EncodeToString(sum[:]),
		Timeout:  "10s",
		Fields:   []FieldSpec{{Key: "message-text", Default: "hello"}},
	}
}

func TestManifestTask_ExecuteModule(t *testing.T) {
	t.Parallel()

	modules := &recordingModules{stdout: "line one\npartial"}
	mt, logger := newTestTask(t, TaskSpec{}, nil, modules)
	mt.spec = wasmSpec(t, mt.plugin.Path, []byte("\x00asm\x01\x00\x00\x00"))
	mt.Base = task.NewBase("docker.motd", "banner")

	require.NoError(t, mt.Execute(context.Background()))

	got := modules.got
	assert.Equal(t, "docker.motd", got.Name)
	assert.Equal(t, []string{"--message-text=hello"}, got.Args)
	assert.Equal(t, "hello", got.Env["DEVSETUP_MESSAGE_TEXT"])
	assert.Equal(t, "banner", got.Env["DEVSETUP_TASK_ID"])
	assert.Equal(t, "10s", got.Timeout.String())
	assert.True(t, logger.Contains("line one"))
	assert.True(t, logger.Contains("partial"), "trailing output is flushed")
}

func TestManifestTask_ExecuteModuleChecksumMismatch(t *testing.T) {
	t.Parallel()

	modules := &recordingModules{}
	mt, _ := newTestTask(t, TaskSpec{}, nil, modules)
	mt.spec = wasmSpec(t, mt.plugin.Path, []byte("\x00asm\x01\x00\x00\x00"))
	require.NoError(t, os.WriteFile(filepath.Join(mt.plugin.Path, "motd.wasm"), []byte("\x00asm tampered"), 0o644))

	err := mt.Execute(context.Background())
	assert.True(t, IsChecksumError(err))
	assert.Empty(t, modules.got.Name, "the module never runs")
}

func TestManifestTask_ExecuteModuleError(t *testing.T) {
	t.Parallel()

	boom := errors.New("trap")
	mt, _ := newTestTask(t, TaskSpec{}, nil, &recordingModules{err: boom})
	mt.spec = wasmSpec(t, mt.plugin.Path, []byte("\x00asm\x01\x00\x00\x00"))

	assert.ErrorIs(t, mt.Execute(context.Background()), boom)
}

func TestManifestTask_NoRuntime(t *testing.T) {
	t.Parallel()

	mt, _ := newTestTask(t, TaskSpec{}, nil, nil)
	mt.spec = TaskSpec{Type: "motd", WASM: "motd.wasm"}

	assert.ErrorIs(t, mt.Execute(context.Background()), sandbox.ErrSandboxUnavailable)
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEVSETUP_USER", EnvName("user"))
	assert.Equal(t, "DEVSETUP_TARGET_DIR", EnvName("target-dir"))
}

func TestLineWriter(t *testing.T) {
	t.Parallel()

	var lines []string
	w := &lineWriter{ctx: context.Background(), log: func(_ context.Context, msg string, _ ...ports.Field) {
		lines = append(lines, msg)
	}}

	_, _ = w.Write([]byte("a\nb"))
	_, _ = w.Write([]byte("c\r\n\n"))
	w.Flush()
	assert.Equal(t, []string{"a", "bc"}, lines)
}
