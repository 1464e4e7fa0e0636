// Package plugin discovers task implementations shipped outside the binary.
// A plugin is a code unit (a directory or a .zip archive) whose plugin.yaml
// manifest declares task types backed by a command or a WASM module.
package plugin

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"
)

// maxModuleSize bounds a WASM module read from a unit (64MB).
const maxModuleSize int64 = 64 * 1024 * 1024

// Plugin is a loaded code unit.
type Plugin struct {
	Manifest Manifest
	// Path is the canonical location of the unit.
	Path string
	// Archive is true for .zip units.
	Archive  bool
	LoadedAt time.Time
}

// ID returns the plugin's name and version.
func (p *Plugin) ID() string {
	return p.Manifest.Name + "@" + p.Manifest.Version
}

func (p *Plugin) String() string {
	return fmt.Sprintf("%s (%s)", p.ID(), p.Path)
}

// TaskIdentifier returns the registry identifier of a declared task type.
func (p *Plugin) TaskIdentifier(spec TaskSpec) string {
	return Identifier(p.Manifest.Name, spec.Type)
}

// Identifier joins a plugin name and a task type.
func Identifier(pluginName, taskType string) string {
	return pluginName + "." + taskType
}

// ReadFile reads a file shipped in the unit, such as a WASM module.
func (p *Plugin) ReadFile(name string) ([]byte, error) {
	if err := validateModulePath(name); err != nil {
		return nil, err
	}
	if p.Archive {
		return readArchiveFile(p.Path, path.Clean(name), maxModuleSize)
	}

	full := filepath.Join(p.Path, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxModuleSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", name, info.Size(), maxModuleSize)
	}
	return os.ReadFile(full)
}

// readArchiveFile returns the content of name inside the zip at archivePath.
func readArchiveFile(archivePath, name string, limit int64) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	f := findArchiveEntry(&r.Reader, name)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return readArchiveEntry(f, limit)
}

func findArchiveEntry(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if path.Clean(f.Name) == name {
			return f
		}
	}
	return nil
}

func readArchiveEntry(f *zip.File, limit int64) ([]byte, error) {
	if int64(f.UncompressedSize64) > limit {
		return nil, &ManifestSizeError{Size: int64(f.UncompressedSize64), Limit: limit}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}
