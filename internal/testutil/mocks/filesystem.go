// Package mocks provides in-memory test doubles for the ports.
package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

type file struct {
	data []byte
	perm os.FileMode
}

// FileSystem is a thread-safe in-memory ports.FileSystem. Missing paths
// report errors wrapping os.ErrNotExist, like the real one.
type FileSystem struct {
	mu        sync.RWMutex
	files     map[string]file
	dirs      map[string]bool
	failWrite error
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string]file),
		dirs:  make(map[string]bool),
	}
}

// AddFile stores content at path with mode 0644.
func (fs *FileSystem) AddFile(path, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[filepath.Clean(path)] = file{data: []byte(content), perm: 0o644}
}

// FailWrites makes every later write, append and rename return err. A nil
// err restores normal behaviour.
func (fs *FileSystem) FailWrites(err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failWrite = err
}

// Content returns the stored bytes of path as a string.
func (fs *FileSystem) Content(path string) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	f, ok := fs.files[filepath.Clean(path)]
	return string(f.data), ok
}

// Mode returns the permission bits path was written with.
func (fs *FileSystem) Mode(path string) os.FileMode {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.files[filepath.Clean(path)].perm
}

// ReadFile returns a copy of the stored bytes.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	f, ok := fs.files[filepath.Clean(path)]
	if !ok {
		return nil, notFound("read", path)
	}
	return append([]byte(nil), f.data...), nil
}

// WriteFile replaces path.
func (fs *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failWrite != nil {
		return &os.PathError{Op: "write", Path: path, Err: fs.failWrite}
	}
	fs.files[filepath.Clean(path)] = file{data: append([]byte(nil), data...), perm: perm}
	return nil
}

// AppendFile appends to path, creating it with perm.
func (fs *FileSystem) AppendFile(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failWrite != nil {
		return &os.PathError{Op: "append", Path: path, Err: fs.failWrite}
	}
	key := filepath.Clean(path)
	f, ok := fs.files[key]
	if !ok {
		f.perm = perm
	}
	f.data = append(f.data, data...)
	fs.files[key] = f
	return nil
}

// Exists reports whether path is a file or directory.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	key := filepath.Clean(path)
	_, ok := fs.files[key]
	return ok || fs.dirs[key]
}

// IsDir reports whether path is a directory.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[filepath.Clean(path)]
}

// MkdirAll records path and its parents as directories.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		fs.dirs[p] = true
		if p == filepath.Dir(p) {
			return nil
		}
	}
}

// Rename moves a file.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failWrite != nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.failWrite}
	}
	f, ok := fs.files[filepath.Clean(oldPath)]
	if !ok {
		return notFound("rename", oldPath)
	}
	fs.files[filepath.Clean(newPath)] = f
	delete(fs.files, filepath.Clean(oldPath))
	return nil
}

// Remove deletes a file or directory entry.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := filepath.Clean(path)
	if _, ok := fs.files[key]; !ok && !fs.dirs[key] {
		return notFound("remove", path)
	}
	delete(fs.files, key)
	delete(fs.dirs, key)
	return nil
}

func notFound(op, path string) error {
	return fmt.Errorf("mock filesystem: %w", &os.PathError{Op: op, Path: path, Err: os.ErrNotExist})
}

var _ ports.FileSystem = (*FileSystem)(nil)
