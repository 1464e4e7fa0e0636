package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// AssertFileMode asserts that path exists with the given permission bits.
func AssertFileMode(t testing.TB, path string, mode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "expected file to exist: %s", path)
	assert.Equal(t, mode, info.Mode().Perm(), "mode of %s", path)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected file to not exist: %s", path)
}

// AssertFileContains asserts that the file at path contains expected.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertYAMLEquals asserts that two YAML documents hold the same data.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var want, got interface{}
	require.NoError(t, yaml.Unmarshal([]byte(expected), &want), "failed to parse expected YAML")
	require.NoError(t, yaml.Unmarshal([]byte(actual), &got), "failed to parse actual YAML")
	assert.Equal(t, want, got, msgAndArgs...)
}
