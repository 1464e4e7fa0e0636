// Package validation checks values typed into task forms before they reach
// a shell command, a config file or a URL.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput          = errors.New("input cannot be empty")
	ErrPathTraversal       = errors.New("path traversal detected")
	ErrInvalidPath         = errors.New("invalid path")
	ErrCommandInjection    = errors.New("potential command injection detected")
	ErrInvalidHostname     = errors.New("invalid hostname")
	ErrNewlineInjection    = errors.New("newline injection detected")
	ErrInvalidGitConfig    = errors.New("invalid git config value")
	ErrInvalidSSHParameter = errors.New("invalid SSH parameter")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidUsername     = errors.New("invalid user name")
)

var (
	// machineNameRegex is a single RFC 1123 label, as accepted by hostnamectl.
	machineNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

	// sshHostRegex allows host names, IP addresses and ssh_config wildcards.
	sshHostRegex = regexp.MustCompile(`^(\*\.)?[a-zA-Z0-9][a-zA-Z0-9._*-]*$`)

	// controlFreeRegex matches values without control characters.
	controlFreeRegex = regexp.MustCompile(`^[^\x00-\x1f\x7f]*$`)

	// usernameRegex matches account names of hosted git services.
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

// shellMetaChars are characters with special meaning to a POSIX shell.
var shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\", "'", "\""}

// ValidateMachineName validates the name given to this machine.
func ValidateMachineName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: %q is longer than 63 characters", ErrInvalidHostname, name)
	}
	if !machineNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must be lower-case letters, digits and inner hyphens", ErrInvalidHostname, name)
	}
	return nil
}

// ValidateHostname validates a remote host name for SSH configuration.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}

	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}

	if !sshHostRegex.MatchString(hostname) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidHostname, hostname)
	}

	if containsShellMeta(hostname) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, hostname)
	}

	return nil
}

// ValidateGitConfigValue validates a git config value for injection attacks.
func ValidateGitConfigValue(value string) error {
	// Newlines could inject additional config lines.
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: git config value contains newlines", ErrNewlineInjection)
	}

	if !controlFreeRegex.MatchString(value) {
		return fmt.Errorf("%w: contains control characters", ErrInvalidGitConfig)
	}

	return nil
}

// ValidateSSHParameter validates a value written to ~/.ssh/config.
func ValidateSSHParameter(value string) error {
	if value == "" {
		return nil
	}

	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: parameter contains newlines", ErrNewlineInjection)
	}

	if !controlFreeRegex.MatchString(value) {
		return fmt.Errorf("%w: contains control characters", ErrInvalidSSHParameter)
	}

	return nil
}

// ValidateEmail validates a bare email address such as dev@example.com.
func ValidateEmail(value string) error {
	if value == "" {
		return ErrEmptyInput
	}
	if err := ValidateGitConfigValue(value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, value)
	}
	return nil
}

// ValidateUsername validates an account name on a hosted git service.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: name too long", ErrInvalidUsername)
	}
	if !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '.', '_' and '-'", ErrInvalidUsername, name)
	}
	return nil
}

// ValidatePath validates a file path and prevents path traversal attacks.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// containsShellMeta checks if a string contains shell metacharacters.
func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks for common path traversal patterns.
func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}

	// URL-encoded traversal
	lower := strings.ToLower(path)
	return strings.Contains(lower, "%2e%2e")
}
