package plugin

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/devsetup/internal/domain/task"
)

const (
	// maxManifestSize limits manifest size to prevent memory exhaustion (256KB).
	maxManifestSize int64 = 256 * 1024
)

// Discoverer finds plugins.
type Discoverer interface {
	Discover(ctx context.Context) (*DiscoveryResult, error)
}

// DiscoveryResult holds the usable plugins and a diagnostic per unit that
// could not be used. Plugin order is not meaningful.
type DiscoveryResult struct {
	Plugins []*Plugin
	Errors  []DiscoveryError
}

// HasErrors returns true if any unit produced a diagnostic.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Types returns the set of task identifiers the plugins declare.
func (r *DiscoveryResult) Types() task.TypeSet {
	s := task.NewTypeSet()
	for _, p := range r.Plugins {
		for _, spec := range p.Manifest.Tasks {
			s.Add(p.TaskIdentifier(spec))
		}
	}
	return s
}

// Loader scans search paths for plugin units.
type Loader struct {
	// SearchPaths are directories holding units, or units themselves.
	SearchPaths []string
	// WizardVersion gates manifests that declare minWizardVersion.
	WizardVersion string
}

// DefaultSearchPaths returns the per-user path followed by the system path.
func DefaultSearchPaths() []string {
	paths := []string{"/usr/local/share/devsetup/plugins"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".devsetup", "plugins")}, paths...)
	}
	return paths
}

// NewLoader creates a Loader over the default search paths.
func NewLoader() *Loader {
	return &Loader{SearchPaths: DefaultSearchPaths()}
}

// WithSearchPaths replaces the search paths.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.SearchPaths = paths
	return l
}

// WithWizardVersion sets the version used for compatibility checks.
func (l *Loader) WithWizardVersion(v string) *Loader {
	l.WizardVersion = v
	return l
}

// Discover loads every unit reachable from the search paths. A unit seen
// through more than one path is loaded once. Units that cannot be read or
// parsed are reported in DiscoveryResult.Errors; the scan carries on.
func (l *Loader) Discover(ctx context.Context) (*DiscoveryResult, error) {
	result := &DiscoveryResult{
		Plugins: make([]*Plugin, 0),
		Errors:  make([]DiscoveryError, 0),
	}
	visited := make(map[string]bool)

	for _, searchPath := range l.SearchPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, unit := range l.units(searchPath, result) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			canonical, err := canonicalPath(unit)
			if err != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: unit, Err: err})
				continue
			}
			if visited[canonical] {
				continue
			}
			visited[canonical] = true

			p, err := l.loadUnit(canonical)
			if errors.Is(err, ErrManifestNotFound) {
				continue
			}
			if err != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: unit, Err: err})
				continue
			}
			if err := CheckCompatibility(&p.Manifest, l.WizardVersion); err != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: unit, Err: err})
				continue
			}
			result.Plugins = append(result.Plugins, p)
		}
	}

	result.Plugins = keepNewest(result)
	return result, nil
}

// units lists candidate units under searchPath. A search path that is itself
// a unit is returned as-is.
func (l *Loader) units(searchPath string, result *DiscoveryResult) []string {
	info, err := os.Stat(searchPath)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, DiscoveryError{Path: searchPath, Err: err})
		}
		return nil
	}
	if !info.IsDir() {
		if isArchive(searchPath) {
			return []string{searchPath}
		}
		return nil
	}
	if _, err := os.Stat(filepath.Join(searchPath, ManifestFile)); err == nil {
		return []string{searchPath}
	}

	entries, err := os.ReadDir(searchPath)
	if err != nil {
		result.Errors = append(result.Errors, DiscoveryError{Path: searchPath, Err: err})
		return nil
	}

	units := make([]string, 0, len(entries))
	for _, entry := range entries {
		full := filepath.Join(searchPath, entry.Name())
		if entry.IsDir() || isArchive(entry.Name()) || entry.Type()&os.ModeSymlink != 0 {
			units = append(units, full)
		}
	}
	return units
}

func (l *Loader) loadUnit(unit string) (*Plugin, error) {
	info, err := os.Stat(unit)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return l.LoadFromPath(unit)
	}
	if isArchive(unit) {
		return l.LoadFromArchive(unit)
	}
	return nil, ErrManifestNotFound
}

// LoadFromPath loads a directory unit.
func (l *Loader) LoadFromPath(dir string) (*Plugin, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	info, err := os.Stat(manifestPath)
	if os.IsNotExist(err) {
		return nil, ErrManifestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", ManifestFile, err)
	}
	if info.Size() > maxManifestSize {
		return nil, &ManifestSizeError{Size: info.Size(), Limit: maxManifestSize}
	}

	file, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", ManifestFile, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestFile, err)
	}

	manifest, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	return &Plugin{Manifest: *manifest, Path: dir, LoadedAt: time.Now()}, nil
}

// LoadFromArchive loads a .zip unit with plugin.yaml at its root. An
// archive that cannot be opened is an error for that file only.
func (l *Loader) LoadFromArchive(archivePath string) (*Plugin, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	entry := findArchiveEntry(&r.Reader, ManifestFile)
	if entry == nil {
		return nil, ErrManifestNotFound
	}
	data, err := readArchiveEntry(entry, maxManifestSize)
	if err != nil {
		return nil, err
	}

	manifest, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	return &Plugin{Manifest: *manifest, Path: archivePath, Archive: true, LoadedAt: time.Now()}, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}
	if err := ValidateManifest(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &manifest, nil
}

// keepNewest keeps the highest version of each plugin name and reports the
// others as shadowed.
func keepNewest(result *DiscoveryResult) []*Plugin {
	byName := make(map[string]*Plugin, len(result.Plugins))
	order := make([]string, 0, len(result.Plugins))

	for _, p := range result.Plugins {
		name := p.Manifest.Name
		current, ok := byName[name]
		if !ok {
			byName[name] = p
			order = append(order, name)
			continue
		}

		winner, loser := current, p
		if CompareVersions(p.Manifest.Version, current.Manifest.Version) > 0 {
			winner, loser = p, current
		}
		byName[name] = winner
		result.Errors = append(result.Errors, DiscoveryError{
			Path: loser.Path,
			Err:  &ShadowedError{Plugin: name, Version: loser.Manifest.Version, Winner: winner.Manifest.Version},
		})
	}

	sort.Strings(order)
	out := make([]*Plugin, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks: %w", err)
	}
	return resolved, nil
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

var _ Discoverer = (*Loader)(nil)
