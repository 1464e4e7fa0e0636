package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/devsetup/internal/ports"
)

// DefaultDocument is the document opened when none is named.
const DefaultDocument = "project-setup.yaml"

// maxDocumentSize bounds a fetched document (4MB).
const maxDocumentSize = 4 * 1024 * 1024

// Source is where a document is read from and written back to.
type Source interface {
	// Location names the source for messages.
	Location() string
	// Codec returns the document format.
	Codec() Codec
	// Read returns the current document bytes.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the document. Implementations write atomically.
	Write(data []byte) error
}

// FileSource is a document in a local file.
type FileSource struct {
	Path string
	fs   ports.FileSystem
}

// NewFileSource creates a FileSource over fs.
func NewFileSource(path string, fs ports.FileSystem) *FileSource {
	return &FileSource{Path: path, fs: fs}
}

// Location returns the file path.
func (s *FileSource) Location() string {
	return s.Path
}

// Codec returns the codec matching the file extension.
func (s *FileSource) Codec() Codec {
	return CodecFor(s.Path)
}

// Read reads the file.
func (s *FileSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewConfigNotFoundError(s.Path).WithUnderlying(err)
		}
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return data, nil
}

// Write replaces the file.
func (s *FileSource) Write(data []byte) error {
	return s.fs.WriteFile(s.Path, data, 0o644)
}

// URLSource is a document fetched over HTTP. Writes go to a local mirror
// named after the last element of the URL path; once the mirror exists it
// is read instead of fetching again, so progress survives a restart.
type URLSource struct {
	URL    string
	Mirror string
	client *http.Client
	fs     ports.FileSystem
}

// URLSourceOption configures a URLSource.
type URLSourceOption func(*URLSource)

// WithHTTPClient sets the client used to fetch the document.
func WithHTTPClient(c *http.Client) URLSourceOption {
	return func(s *URLSource) {
		s.client = c
	}
}

// WithMirrorDir places the mirror file in dir instead of the working directory.
func WithMirrorDir(dir string) URLSourceOption {
	return func(s *URLSource) {
		s.Mirror = filepath.Join(dir, filepath.Base(s.Mirror))
	}
}

// NewURLSource creates a URLSource for rawURL.
func NewURLSource(rawURL string, fs ports.FileSystem, opts ...URLSourceOption) (*URLSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewConfigNotFoundError(rawURL).WithUnderlying(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, NewConfigNotFoundError(rawURL).WithUnderlying(fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	mirror := path.Base(u.Path)
	if mirror == "." || mirror == "/" || mirror == "" {
		mirror = DefaultDocument
	}

	s := &URLSource{
		URL:    rawURL,
		Mirror: mirror,
		client: &http.Client{Timeout: 30 * time.Second},
		fs:     fs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Location returns the URL.
func (s *URLSource) Location() string {
	return s.URL
}

// Codec returns the codec matching the mirror file name.
func (s *URLSource) Codec() Codec {
	return CodecFor(s.Mirror)
}

// Read returns the mirror if it exists, otherwise fetches the URL.
func (s *URLSource) Read(ctx context.Context) ([]byte, error) {
	if s.fs.Exists(s.Mirror) {
		return s.fs.ReadFile(s.Mirror)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewConfigNotFoundError(s.URL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d: %s", s.URL, resp.StatusCode, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	if len(data) > maxDocumentSize {
		return nil, NewDocumentTooLargeError(s.URL, maxDocumentSize)
	}
	return data, nil
}

// Write replaces the mirror file.
func (s *URLSource) Write(data []byte) error {
	return s.fs.WriteFile(s.Mirror, data, 0o644)
}

// OpenSource returns a URLSource for http(s) locations and a FileSource
// otherwise. An empty location selects DefaultDocument.
func OpenSource(location string, fs ports.FileSystem, opts ...URLSourceOption) (Source, error) {
	if location == "" {
		location = DefaultDocument
	}
	if IsURL(location) {
		return NewURLSource(location, fs, opts...)
	}
	return NewFileSource(location, fs), nil
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*URLSource)(nil)
)
