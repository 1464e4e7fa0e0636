package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealFileSystem_WriteFileIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	fs := NewRealFileSystem()

	require.NoError(t, fs.WriteFile(path, []byte("one"), 0o600))
	require.NoError(t, fs.WriteFile(path, []byte("two"), 0o600))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestRealFileSystem_WriteFileMissingDir(t *testing.T) {
	t.Parallel()

	err := NewRealFileSystem().WriteFile(filepath.Join(t.TempDir(), "missing", "f"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestRealFileSystem_AppendFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "known_hosts")
	fs := NewRealFileSystem()

	require.NoError(t, fs.AppendFile(path, []byte("a\n"), 0o644))
	require.NoError(t, fs.AppendFile(path, []byte("b\n"), 0o644))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestRealFileSystem_Queries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := NewRealFileSystem()
	sub := filepath.Join(dir, "a", "b")

	assert.False(t, fs.Exists(sub))
	require.NoError(t, fs.MkdirAll(sub, 0o755))
	assert.True(t, fs.Exists(sub))
	assert.True(t, fs.IsDir(sub))

	file := filepath.Join(dir, "f")
	require.NoError(t, fs.WriteFile(file, nil, 0o644))
	assert.False(t, fs.IsDir(file))

	moved := filepath.Join(dir, "g")
	require.NoError(t, fs.Rename(file, moved))
	assert.False(t, fs.Exists(file))
	require.NoError(t, fs.Remove(moved))
	assert.False(t, fs.Exists(moved))
}
