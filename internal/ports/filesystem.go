package ports

import (
	"os"
	"path/filepath"
	"strings"
)

// FileSystem is the subset of file operations the built-in tasks need.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	AppendFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return ExpandPathWithHome(path, home)
}

// ExpandPathWithHome expands a leading ~ to home.
func ExpandPathWithHome(path, home string) string {
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	default:
		return path
	}
}
