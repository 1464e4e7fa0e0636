// Package testutil provides builders and assertions shared by devsetup tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent of %s", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "failed to write %s", name)
	return path
}
