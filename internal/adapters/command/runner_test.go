package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunner_Success(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello", strings.TrimSpace(result.Stdout))
}

func TestRealRunner_ExitCode(t *testing.T) {
	t.Parallel()

	result, err := NewRealRunner().Run(context.Background(), "sh", "-c", "echo bad >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "bad", strings.TrimSpace(result.Stderr))
}

func TestRealRunner_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := NewRealRunner().Run(context.Background(), "devsetup-no-such-binary")
	assert.Error(t, err)
}

func TestRealRunner_DirAndEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := NewRealRunner().WithDir(dir).WithEnv("DEVSETUP_NAME=box")

	result, err := runner.Run(context.Background(), "sh", "-c", "pwd; echo $DEVSETUP_NAME")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 2)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, lines[0])
	assert.Equal(t, "box", lines[1])
}

func TestRealRunner_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRealRunner().Run(ctx, "sleep", "5")
	assert.ErrorIs(t, err, context.Canceled)
}
