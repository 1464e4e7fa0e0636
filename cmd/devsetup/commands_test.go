package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/felixgeelhaar/devsetup/internal/domain/config"
	"github.com/felixgeelhaar/devsetup/internal/testutil"
)

// isolate points the global flags at a temporary home for one test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	testutil.NewPlugin("tools", "0.1.0").
		CommandTask("jq", "Install jq", []string{"apt-get", "install", "-y", "jq"}).
		WriteUnit(t, filepath.Join(dir, "plugins"))
	testutil.WriteFile(t, filepath.Join(dir, "plugins"), "junk.zip", "not a zip")

	oldPlugins, oldPrefs := pluginPaths, prefsPath
	pluginPaths = []string{filepath.Join(dir, "plugins")}
	prefsPath = filepath.Join(dir, "prefs.ini")
	t.Cleanup(func() {
		pluginPaths, prefsPath = oldPlugins, oldPrefs
	})
	return dir
}

func TestRunKeygen(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	err := runKeygen(&out, "work", keygenOptions{bits: 1024, dir: dir, comment: "me@laptop"})
	require.NoError(t, err)

	testutil.AssertFileMode(t, filepath.Join(dir, "work.prv"), 0o600)

	pub, err := os.ReadFile(filepath.Join(dir, "work.pub"))
	require.NoError(t, err)
	parsed, comment, _, _, err := ssh.ParseAuthorizedKey(pub)
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa", parsed.Type())
	assert.Equal(t, "me@laptop", comment)
	assert.Contains(t, out.String(), "Fingerprint: SHA256:")

	err = runKeygen(&out, "work", keygenOptions{bits: 1024, dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, runKeygen(&out, "work", keygenOptions{bits: 1024, dir: dir, force: true}))
}

func TestRunKeygen_InvalidName(t *testing.T) {
	for _, name := range []string{"", "..", "a/b", "../up"} {
		err := runKeygen(&bytes.Buffer{}, name, keygenOptions{bits: 1024, dir: t.TempDir()})
		assert.Error(t, err, name)
	}
}

func TestRunDiscover(t *testing.T) {
	isolate(t)
	var out bytes.Buffer

	require.NoError(t, runDiscover(context.Background(), &out))

	text := out.String()
	assert.Contains(t, text, "set-hostname")
	assert.Contains(t, text, "builtin")
	assert.Contains(t, text, "tools.jq")
	assert.Contains(t, text, "Install jq")
	assert.Contains(t, text, "Skipped 1 plugin unit(s):")
	assert.Contains(t, text, "junk.zip")
}

func TestRunPreview(t *testing.T) {
	dir := isolate(t)
	doc := testutil.NewDocument("Tools").
		Task("tools.jq", "").
		Task("set-hostname", "a").
		Task("docker.install", "").
		Write(t, dir, "project-setup.yaml")

	var out bytes.Buffer
	err := runPreview(context.Background(), &out, doc)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeTaskTypeUnknown))

	text := out.String()
	assert.Contains(t, text, "Document: "+doc)
	assert.Regexp(t, `docker\.install\s+missing`, text)
	assert.Regexp(t, `set-hostname\s+available`, text)
	assert.Regexp(t, `tools\.jq\s+available`, text)
}
