package plugin

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dockerManifest = `apiVersion: v1
name: docker
version: 1.0.0
description: Docker engine setup
tasks:
  - type: install
    title: Install Docker
    run: ["sh", "-c", "apt-get install -y docker.io"]
  - type: group
    run: ["usermod", "-aG", "docker", "$user"]
    fields:
      - key: user
        label: User
        required: true
`

func writeUnit(t *testing.T, dir, manifest string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	return dir
}

func writeArchive(t *testing.T, path string, files map[string]string) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func discover(t *testing.T, loader *Loader) *DiscoveryResult {
	t.Helper()
	result, err := loader.Discover(context.Background())
	require.NoError(t, err)
	return result
}

func TestNewLoader(t *testing.T) {
	t.Parallel()

	loader := NewLoader()
	require.NotEmpty(t, loader.SearchPaths)
	assert.Equal(t, "/usr/local/share/devsetup/plugins", loader.SearchPaths[len(loader.SearchPaths)-1])

	loader.WithSearchPaths("/a", "/b").WithWizardVersion("1.0.0")
	assert.Equal(t, []string{"/a", "/b"}, loader.SearchPaths)
	assert.Equal(t, "1.0.0", loader.WizardVersion)
}

func TestLoader_Discover_EmptyDirectory(t *testing.T) {
	t.Parallel()

	result := discover(t, (&Loader{}).WithSearchPaths(t.TempDir()))
	assert.Empty(t, result.Plugins)
	assert.Empty(t, result.Types())
	assert.False(t, result.HasErrors())
}

func TestLoader_Discover_NonExistentPath(t *testing.T) {
	t.Parallel()

	result := discover(t, (&Loader{}).WithSearchPaths(filepath.Join(t.TempDir(), "missing")))
	assert.Empty(t, result.Plugins)
	assert.False(t, result.HasErrors())
}

func TestLoader_Discover_Directories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeUnit(t, filepath.Join(root, "docker"), dockerManifest)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-plugin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0o644))

	result := discover(t, (&Loader{}).WithSearchPaths(root))
	require.Len(t, result.Plugins, 1)
	assert.False(t, result.HasErrors(), "directories without a manifest are skipped silently")

	p := result.Plugins[0]
	assert.Equal(t, "docker@1.0.0", p.ID())
	assert.False(t, p.Archive)
	assert.Equal(t, []string{"docker.group", "docker.install"}, result.Types().Sorted())
}

func TestLoader_Discover_UnitAsSearchPath(t *testing.T) {
	t.Parallel()

	unit := writeUnit(t, filepath.Join(t.TempDir(), "docker"), dockerManifest)

	result := discover(t, (&Loader{}).WithSearchPaths(unit))
	require.Len(t, result.Plugins, 1)
	assert.Equal(t, "docker", result.Plugins[0].Manifest.Name)
}

func TestLoader_Discover_MalformedUnitIsSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeUnit(t, filepath.Join(root, "docker"), dockerManifest)
	writeUnit(t, filepath.Join(root, "broken"), "name: [unclosed")
	writeUnit(t, filepath.Join(root, "invalid"), "apiVersion: v2\nname: x\n")

	result := discover(t, (&Loader{}).WithSearchPaths(root))
	require.Len(t, result.Plugins, 1)
	require.Len(t, result.Errors, 2)

	paths := []string{result.Errors[0].Path, result.Errors[1].Path}
	assert.ElementsMatch(t, []string{filepath.Join(root, "broken"), filepath.Join(root, "invalid")}, paths)
	for _, de := range result.Errors {
		assert.Contains(t, de.Error(), "loading plugin at")
	}
}

func TestLoader_Discover_Archives(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeArchive(t, filepath.Join(root, "docker.zip"), map[string]string{
		ManifestFile: dockerManifest,
		"motd.wasm":  "\x00asm",
	})
	writeArchive(t, filepath.Join(root, "empty.zip"), map[string]string{"README": "nothing here"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "corrupt.zip"), []byte("not a zip"), 0o644))

	result := discover(t, (&Loader{}).WithSearchPaths(root))
	require.Len(t, result.Plugins, 1)
	assert.True(t, result.Plugins[0].Archive)

	require.Len(t, result.Errors, 1, "only the unreadable archive is reported")
	assert.Equal(t, filepath.Join(root, "corrupt.zip"), result.Errors[0].Path)

	data, err := result.Plugins[0].ReadFile("motd.wasm")
	require.NoError(t, err)
	assert.Equal(t, "\x00asm", string(data))

	_, err = result.Plugins[0].ReadFile("missing.wasm")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Discover_VisitsUnitsOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	unit := writeUnit(t, filepath.Join(root, "plugins", "docker"), dockerManifest)
	aliases := filepath.Join(root, "aliases")
	require.NoError(t, os.MkdirAll(aliases, 0o755))
	require.NoError(t, os.Symlink(unit, filepath.Join(aliases, "docker-link")))

	plugins := filepath.Join(root, "plugins")
	result := discover(t, (&Loader{}).WithSearchPaths(plugins, plugins, aliases))

	require.Len(t, result.Plugins, 1)
	assert.False(t, result.HasErrors())
}

func TestLoader_Discover_KeepsNewestVersion(t *testing.T) {
	t.Parallel()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeUnit(t, filepath.Join(root, "old"), strings.Replace(dockerManifest, "1.0.0", "1.2.0", 1))
	writeUnit(t, filepath.Join(root, "new"), strings.Replace(dockerManifest, "1.0.0", "1.10.0", 1))

	result := discover(t, (&Loader{}).WithSearchPaths(root))
	require.Len(t, result.Plugins, 1)
	assert.Equal(t, "1.10.0", result.Plugins[0].Manifest.Version)

	require.Len(t, result.Errors, 1)
	assert.True(t, IsShadowed(result.Errors[0].Err))
	assert.Equal(t, filepath.Join(root, "old"), result.Errors[0].Path)
}

func TestLoader_Discover_CompatibilityGate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeUnit(t, filepath.Join(root, "future"), strings.Replace(dockerManifest, "description:", "minWizardVersion: 2.0.0\ndescription:", 1))

	result := discover(t, (&Loader{}).WithSearchPaths(root).WithWizardVersion("1.4.0"))
	assert.Empty(t, result.Plugins)
	require.Len(t, result.Errors, 1)
	assert.True(t, IsIncompatible(result.Errors[0].Err))

	dev := discover(t, (&Loader{}).WithSearchPaths(root).WithWizardVersion("dev"))
	assert.Len(t, dev.Plugins, 1)
}

func TestLoader_LoadFromPath_SizeLimit(t *testing.T) {
	t.Parallel()

	dir := writeUnit(t, filepath.Join(t.TempDir(), "big"), dockerManifest+"#"+strings.Repeat("x", int(maxManifestSize)))

	_, err := (&Loader{}).LoadFromPath(dir)
	assert.True(t, IsManifestSizeError(err))
}

func TestLoader_LoadFromPath_NoManifest(t *testing.T) {
	t.Parallel()

	_, err := (&Loader{}).LoadFromPath(t.TempDir())
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoader_Discover_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Loader{}).WithSearchPaths(t.TempDir()).Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlugin_ReadFile_RejectsTraversal(t *testing.T) {
	t.Parallel()

	p := &Plugin{Path: t.TempDir()}
	_, err := p.ReadFile("../etc/passwd")
	assert.True(t, IsPathTraversal(err))
}
