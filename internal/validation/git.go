package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// gitRemoteURLPatterns are the accepted clone URL forms.
	gitRemoteURLPatterns = []*regexp.Regexp{
		// HTTPS URLs
		regexp.MustCompile(`^https://[a-zA-Z0-9.-]+(:[0-9]+)?/[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// SCP-like SSH: git@host:owner/repo.git
		regexp.MustCompile(`^[a-zA-Z0-9_.-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// SSH URLs
		regexp.MustCompile(`^ssh://[a-zA-Z0-9_@.-]+(:[0-9]+)?/[a-zA-Z0-9_./~-]+(?:\.git)?$`),
		// Local file URLs
		regexp.MustCompile(`^file:///[a-zA-Z0-9_./-]+$`),
		// Absolute local paths
		regexp.MustCompile(`^/[a-zA-Z0-9_./-]+$`),
	}

	// dangerousChars should never appear in git inputs.
	// The null byte is checked separately for a more specific error message.
	dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}
)

// ValidateGitRemoteURL validates a repository URL passed to git clone.
func ValidateGitRemoteURL(url string) error {
	if url == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}

	if len(url) > 2048 {
		return fmt.Errorf("remote URL too long (max 2048 characters)")
	}

	if strings.ContainsRune(url, '\x00') {
		return fmt.Errorf("remote URL contains null byte")
	}

	for _, char := range dangerousChars {
		if strings.Contains(url, char) {
			return fmt.Errorf("remote URL contains invalid character: %q", char)
		}
	}

	// A leading dash would be read as a git option.
	if strings.HasPrefix(url, "-") {
		return fmt.Errorf("remote URL cannot start with '-'")
	}

	for _, pattern := range gitRemoteURLPatterns {
		if pattern.MatchString(url) {
			return nil
		}
	}

	return fmt.Errorf("invalid git remote URL %q: must be an HTTPS or SSH URL, or a local path", url)
}

// ValidateGitRemoteURLs validates one repository URL per line.
func ValidateGitRemoteURLs(list []string) error {
	if len(list) == 0 {
		return fmt.Errorf("at least one repository is required")
	}
	for _, url := range list {
		if err := ValidateGitRemoteURL(url); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGitPath validates a directory used with git -C.
func ValidateGitPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}

	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path contains null byte")
	}

	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains invalid character: %q", char)
		}
	}

	return nil
}
