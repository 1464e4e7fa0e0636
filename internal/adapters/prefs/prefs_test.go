package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestINIStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".devsetup", "prefs.ini")

	store, err := OpenINI(path)
	require.NoError(t, err)
	assert.False(t, store.Bool("set-hostname-x"))

	require.NoError(t, store.SetBool("set-hostname-x", true))
	assert.True(t, store.Bool("set-hostname-x"))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[wizard]")
	assert.Contains(t, string(data), "set-hostname-x")

	reopened, err := OpenINI(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.True(t, reopened.Bool("set-hostname-x"))
	assert.False(t, reopened.Bool("git-clone-x"))
}

func TestINIStore_ClosedRejectsWrites(t *testing.T) {
	t.Parallel()

	store, err := OpenINI(filepath.Join(t.TempDir(), "prefs.ini"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.Error(t, store.SetBool("k", true))
}

func TestINIStore_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.ini")
	require.NoError(t, os.WriteFile(path, []byte("[unterminated\n"), 0o600))

	_, err := OpenINI(path)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.SetBool("a", true))
	assert.True(t, store.Bool("a"))
	assert.False(t, store.Bool("b"))

	store.FailWrites = errors.New("disk full")
	assert.EqualError(t, store.SetBool("b", true), "disk full")
	require.NoError(t, store.Close())
}
