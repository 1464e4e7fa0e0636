package plugin

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// ManifestFile is the name of the manifest at the root of every unit.
const ManifestFile = "plugin.yaml"

// Manifest describes a plugin and the task types it contributes.
type Manifest struct {
	APIVersion       string     `yaml:"apiVersion"`
	Name             string     `yaml:"name"`
	Version          string     `yaml:"version"`
	Description      string     `yaml:"description,omitempty"`
	Author           string     `yaml:"author,omitempty"`
	MinWizardVersion string     `yaml:"minWizardVersion,omitempty"`
	Tasks            []TaskSpec `yaml:"tasks,omitempty"`
}

// TaskSpec declares one task type. Exactly one of Run or WASM is set.
type TaskSpec struct {
	Type        string      `yaml:"type"`
	Title       string      `yaml:"title,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Run         []string    `yaml:"run,omitempty"`
	WASM        string      `yaml:"wasm,omitempty"`
	Checksum    string      `yaml:"checksum,omitempty"`
	Timeout     string      `yaml:"timeout,omitempty"`
	Fields      []FieldSpec `yaml:"fields,omitempty"`
}

// FieldSpec declares one form field of a manifest task.
type FieldSpec struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label,omitempty"`
	Help     string   `yaml:"help,omitempty"`
	Default  string   `yaml:"default,omitempty"`
	Required bool     `yaml:"required,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	Choices  []string `yaml:"choices,omitempty"`
	Secret   bool     `yaml:"secret,omitempty"`
}

// IsWASM reports whether the task runs a WASM module.
func (t TaskSpec) IsWASM() bool {
	return t.WASM != ""
}

// TimeoutDuration parses Timeout; zero when unset.
func (t TaskSpec) TimeoutDuration() time.Duration {
	if t.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0
	}
	return d
}

var (
	taskTypePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	fieldKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// ValidateManifest checks a manifest and returns every problem found.
func ValidateManifest(m *Manifest) error {
	ve := &ValidationError{}

	if m.APIVersion == "" {
		ve.Add("apiVersion is required. Example: apiVersion: v1")
	} else if m.APIVersion != "v1" {
		ve.Addf("unsupported apiVersion: %q (only 'v1' is currently supported)", m.APIVersion)
	}

	if m.Name == "" {
		ve.Add("name is required. Example: name: docker")
	} else if err := validatePluginNameFormat(m.Name); err != nil {
		ve.Add(err.Error())
	}

	if m.Version == "" {
		ve.Add("version is required. Example: version: 1.0.0 (use semantic versioning)")
	} else if err := ValidateSemver(m.Version); err != nil {
		ve.Addf("version %q is not valid semantic versioning. Examples: 1.0.0, 1.2.3-beta.1", m.Version)
	}

	if m.MinWizardVersion != "" {
		if err := ValidateSemver(m.MinWizardVersion); err != nil {
			ve.Addf("minWizardVersion %q is not valid semantic versioning", m.MinWizardVersion)
		}
	}

	seen := make(map[string]bool, len(m.Tasks))
	for i, t := range m.Tasks {
		validateTaskSpec(ve, i, t)
		if seen[t.Type] {
			ve.Addf("tasks[%d].type %q is declared twice", i, t.Type)
		}
		seen[t.Type] = true
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateTaskSpec(ve *ValidationError, i int, t TaskSpec) {
	if !taskTypePattern.MatchString(t.Type) {
		ve.Addf("tasks[%d].type %q must be lower-case letters, digits and hyphens", i, t.Type)
	}

	switch {
	case len(t.Run) > 0 && t.WASM != "":
		ve.Addf("tasks[%d] declares both run and wasm; choose one", i)
	case len(t.Run) == 0 && t.WASM == "":
		ve.Addf("tasks[%d] needs either run (a command) or wasm (a module). Example: run: [\"sh\", \"-c\", \"make install\"]", i)
	}

	if t.WASM != "" {
		if err := validateModulePath(t.WASM); err != nil {
			ve.Addf("tasks[%d].wasm: %v", i, err)
		}
		if t.Checksum == "" {
			ve.Addf("tasks[%d].checksum is required for wasm tasks (sha256 of the module)", i)
		} else if err := validateChecksumFormat(t.Checksum); err != nil {
			ve.Addf("tasks[%d].checksum: %v", i, err)
		}
	}

	if t.Timeout != "" {
		if d, err := time.ParseDuration(t.Timeout); err != nil || d <= 0 {
			ve.Addf("tasks[%d].timeout %q is not a positive duration. Example: 5m", i, t.Timeout)
		}
	}

	keys := make(map[string]bool, len(t.Fields))
	for j, f := range t.Fields {
		if !fieldKeyPattern.MatchString(f.Key) {
			ve.Addf("tasks[%d].fields[%d].key %q must be lower-case letters, digits, '-' or '_'", i, j, f.Key)
		}
		if keys[f.Key] {
			ve.Addf("tasks[%d].fields[%d].key %q is declared twice", i, j, f.Key)
		}
		keys[f.Key] = true
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				ve.Addf("tasks[%d].fields[%d].pattern: %v", i, j, err)
			}
		}
	}
}

// validatePluginNameFormat checks a plugin name. Names become identifier
// prefixes and directory names, so the alphabet is restricted.
func validatePluginNameFormat(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("plugin name %q is too short (minimum 2 characters)", name)
	}
	if len(name) > 64 {
		return fmt.Errorf("plugin name %q is too long (maximum 64 characters)", name)
	}

	first := name[0]
	if !(first >= 'a' && first <= 'z') && !(first >= 'A' && first <= 'Z') {
		return fmt.Errorf("plugin name %q must start with a letter", name)
	}

	for i, c := range name {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !isDigit && c != '-' && c != '_' {
			return fmt.Errorf("plugin name %q contains invalid character %q at position %d (only letters, numbers, hyphens, and underscores allowed)", name, c, i)
		}
	}
	return nil
}

// validateModulePath rejects module paths that leave the unit.
func validateModulePath(p string) error {
	if strings.Contains(p, "\\") || path.IsAbs(p) {
		return &PathTraversalError{Path: p}
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return &PathTraversalError{Path: p}
	}
	return nil
}

// canonicalVersion returns v with the "v" prefix x/mod/semver expects.
func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		return "v" + v[1:]
	}
	return "v" + v
}

// ValidateSemver checks a semantic version, with or without a v prefix.
func ValidateSemver(version string) error {
	if version == "" {
		return fmt.Errorf("version cannot be empty")
	}
	if !semver.IsValid(canonicalVersion(version)) {
		return fmt.Errorf("invalid semantic version: %s", version)
	}
	return nil
}

// CompareVersions compares two semantic versions like strings.Compare.
func CompareVersions(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}

// CheckCompatibility rejects a manifest that requires a newer wizard.
// Development builds ("dev" or any non-semver string) accept every plugin.
func CheckCompatibility(m *Manifest, running string) error {
	if m.MinWizardVersion == "" || !semver.IsValid(canonicalVersion(running)) {
		return nil
	}
	if CompareVersions(running, m.MinWizardVersion) < 0 {
		return &IncompatibleError{Plugin: m.Name, Requires: m.MinWizardVersion, Running: running}
	}
	return nil
}

func validateChecksumFormat(sum string) error {
	sum = strings.TrimPrefix(strings.ToLower(sum), "sha256:")
	if len(sum) != 64 {
		return fmt.Errorf("expected 64 hex characters (SHA256), got %d", len(sum))
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return fmt.Errorf("not hex encoded")
	}
	return nil
}

// VerifyChecksum compares the SHA256 of data with expected. An optional
// "sha256:" prefix is accepted.
func VerifyChecksum(data []byte, expected string) error {
	if err := validateChecksumFormat(expected); err != nil {
		return err
	}
	want := strings.TrimPrefix(strings.ToLower(expected), "sha256:")

	hash := sha256.Sum256(data)
	actual := hex.EncodeToString(hash[:])

	if subtle.ConstantTimeCompare([]byte(actual), []byte(want)) != 1 {
		return &ChecksumError{Expected: want, Actual: actual}
	}
	return nil
}
