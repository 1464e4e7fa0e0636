package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrEmptyPluginName indicates a plugin name was empty.
	ErrEmptyPluginName = errors.New("plugin name cannot be empty")
	// ErrManifestNotFound indicates a unit has no plugin.yaml.
	ErrManifestNotFound = errors.New("plugin.yaml not found")
)

// ValidationError collects multiple manifest problems.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// Add adds an error message.
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// Addf adds a formatted error message.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if any message was added.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// DiscoveryError is a diagnostic for one code unit that could not be used.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("loading plugin at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// PathTraversalError indicates a name that would escape its directory.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal detected in: %s", e.Path)
}

// ChecksumError indicates a module checksum mismatch.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ManifestSizeError indicates a manifest above the size limit.
type ManifestSizeError struct {
	Size  int64
	Limit int64
}

func (e *ManifestSizeError) Error() string {
	return fmt.Sprintf("manifest size %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// IncompatibleError indicates a plugin that needs a newer wizard.
type IncompatibleError struct {
	Plugin   string
	Requires string
	Running  string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("plugin %q requires devsetup %s or newer (running %s)", e.Plugin, e.Requires, e.Running)
}

// ShadowedError reports a plugin unit ignored in favour of a newer version
// of the same plugin.
type ShadowedError struct {
	Plugin  string
	Version string
	Winner  string
}

func (e *ShadowedError) Error() string {
	return fmt.Sprintf("plugin %q %s shadowed by version %s", e.Plugin, e.Version, e.Winner)
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPathTraversal returns true if err is a PathTraversalError.
func IsPathTraversal(err error) bool {
	var target *PathTraversalError
	return errors.As(err, &target)
}

// IsChecksumError returns true if err is a ChecksumError.
func IsChecksumError(err error) bool {
	var target *ChecksumError
	return errors.As(err, &target)
}

// IsManifestSizeError returns true if err is a ManifestSizeError.
func IsManifestSizeError(err error) bool {
	var target *ManifestSizeError
	return errors.As(err, &target)
}

// IsIncompatible returns true if err is an IncompatibleError.
func IsIncompatible(err error) bool {
	var target *IncompatibleError
	return errors.As(err, &target)
}

// IsShadowed returns true if err is a ShadowedError.
func IsShadowed(err error) bool {
	var target *ShadowedError
	return errors.As(err, &target)
}
