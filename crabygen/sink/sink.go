// Package sink provides staging and output destinations for generated
// artifacts. Generation writes everything into a MemorySink first; only a
// fully successful run is committed to the filesystem.
package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/tools/txtar"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// Header is the first line of every generated artifact.
const Header = "// Code generated by craby. DO NOT EDIT.\n"

// ErrExist is returned by a FilesystemSink with Overwrite disabled when the
// target already exists.
var ErrExist = errors.New("file already exists")

// OutputSink receives generated file content.
// Implementations must be safe for concurrent calls.
type OutputSink interface {
	// WriteFile writes content to the specified path.
	// The path is relative; the sink determines the actual location.
	WriteFile(ctx context.Context, path string, content []byte) error
}

var (
	_ OutputSink = (*FilesystemSink)(nil)
	_ OutputSink = (*MemorySink)(nil)
)

// FilesystemSink writes to a directory on the local filesystem.
type FilesystemSink struct {
	// Root is the base directory for all writes.
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode

	// Overwrite controls behavior for existing files.
	// If false, WriteFile fails with ErrExist when the file exists.
	Overwrite bool
}

// NewFilesystemSink creates a FilesystemSink writing to root.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{
		Root:      root,
		Mode:      0644,
		Overwrite: true,
	}
}

// WriteFile writes content to path within the root directory, creating
// parent directories as needed. Writes are atomic (temp file + rename).
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return errors.Wrapf(err, "invalid path %q", path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create directories")
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0644
	}

	tempFile, err := os.CreateTemp(dir, ".craby-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tempPath := tempFile.Name()
	cleanup := func() { _ = os.Remove(tempPath) }

	_, writeErr := tempFile.Write(content)
	closeErr := tempFile.Close()
	if writeErr != nil {
		cleanup()
		return errors.Wrap(writeErr, "write temp file")
	}
	if closeErr != nil {
		cleanup()
		return errors.Wrap(closeErr, "close temp file")
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		cleanup()
		return errors.Wrap(err, "set file mode")
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	if s.Overwrite {
		if err := os.Rename(tempPath, fullPath); err != nil {
			cleanup()
			return errors.Wrap(err, "rename temp file")
		}
		return nil
	}

	// os.Link fails atomically when the target exists.
	if err := os.Link(tempPath, fullPath); err != nil {
		cleanup()
		if errors.Is(err, os.ErrExist) {
			return errors.Wrapf(ErrExist, "%q", path)
		}
		return errors.Wrap(err, "create file")
	}
	_ = os.Remove(tempPath)
	return nil
}

// ReadFile returns the current content of path, or nil if it does not exist.
func (s *FilesystemSink) ReadFile(path string) ([]byte, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (s *FilesystemSink) resolve(path string) (string, error) {
	fullPath := filepath.Join(s.Root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(s.Root)
	if err != nil {
		return "", errors.Wrap(err, "resolve root directory")
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", errors.Wrap(err, "resolve path")
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) && absPath != absRoot {
		return "", errors.Newf("path escapes root directory: %q", path)
	}
	return fullPath, nil
}

// Staged is one artifact held by a MemorySink.
type Staged struct {
	Path    string
	Content []byte

	// CreateOnly marks files written only when absent, such as
	// implementation stubs that users edit by hand.
	CreateOnly bool
}

// MemorySink stores generated files in memory.
// All operations are thread-safe.
type MemorySink struct {
	mu         sync.RWMutex
	files      map[string][]byte
	createOnly map[string]bool
}

// NewMemorySink creates a new MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		files:      make(map[string][]byte),
		createOnly: make(map[string]bool),
	}
}

// WriteFile stages content at path, replacing any earlier content.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) error {
	return s.stage(ctx, path, content, false)
}

// WriteStub stages content that is committed only when path does not
// exist yet.
func (s *MemorySink) WriteStub(ctx context.Context, path string, content []byte) error {
	return s.stage(ctx, path, content, true)
}

func (s *MemorySink) stage(ctx context.Context, path string, content []byte, createOnly bool) error {
	if err := ValidatePath(path); err != nil {
		return errors.Wrapf(err, "invalid path %q", path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	contentCopy := bytes.Clone(content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = contentCopy
	s.createOnly[path] = createOnly
	return nil
}

// Files returns a copy of all staged files.
func (s *MemorySink) Files() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]byte, len(s.files))
	for path, content := range s.files {
		result[path] = bytes.Clone(content)
	}
	return result
}

// Get returns the content of a single file, or nil if not found.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.files[path]
	if !ok {
		return nil
	}
	return bytes.Clone(content)
}

// Staged returns the staged files sorted by path.
func (s *MemorySink) Staged() []Staged {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Staged, 0, len(s.files))
	for path, content := range s.files {
		out = append(out, Staged{Path: path, Content: bytes.Clone(content), CreateOnly: s.createOnly[path]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Archive renders the staged files as a txtar archive, sorted by path.
func (s *MemorySink) Archive() []byte {
	ar := &txtar.Archive{}
	for _, f := range s.Staged() {
		data := f.Content
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		ar.Files = append(ar.Files, txtar.File{Name: f.Path, Data: data})
	}
	return txtar.Format(ar)
}

// Reset clears all staged files.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = make(map[string][]byte)
	s.createOnly = make(map[string]bool)
}

// ValidatePath checks if a path is valid for output.
// Paths must be relative, use / as separator, not contain .. components,
// and be clean.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	if len(path) >= 2 && path[1] == ':' && ((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(path, "..") {
		return errors.New("path traversal not allowed")
	}
	cleaned := filepath.ToSlash(filepath.Clean(path))
	if cleaned != path {
		return errors.Newf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}
