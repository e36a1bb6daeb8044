package blade

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// FilesystemStorage reads template sources from one or more search roots.
// A name resolves to the first existing file across roots and extensions, in
// the order given:
//
//	<root>/
//	  layouts/
//	    app.blade.php     # layouts.app
//	  pages/
//	    home.blade.php    # pages.home
//
// Paths are absolute file paths inside one of the roots.
type FilesystemStorage struct {
	mu         sync.RWMutex
	roots      []string
	extensions []string
	closed     bool
}

// FilesystemStorageDriver is the driver for creating FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a new FilesystemStorage instance.
// The connection string is a comma-separated list of root directories.
func (d *FilesystemStorageDriver) Open(connectionString string) (SourceStorage, error) {
	var roots []string
	for _, root := range strings.Split(connectionString, FilesystemRootSeparator) {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, root)
		}
	}
	return NewFilesystemStorage(roots, nil)
}

// NewFilesystemStorage creates a filesystem storage over existing root
// directories. Extensions default to DefaultExtension.
func NewFilesystemStorage(roots []string, extensions []string) (*FilesystemStorage, error) {
	if len(roots) == 0 {
		return nil, &StorageError{Message: ErrMsgFilesystemNoRoots}
	}
	if len(extensions) == 0 {
		extensions = []string{DefaultExtension}
	}

	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		path, err := filepath.Abs(root)
		if err != nil {
			return nil, &StorageError{Message: ErrMsgFilesystemRootInvalid, Name: root, Cause: err}
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, &StorageError{Message: ErrMsgFilesystemRootInvalid, Name: root, Cause: err}
		}
		if !info.IsDir() {
			return nil, &StorageError{Message: ErrMsgFilesystemRootInvalid, Name: root}
		}
		abs = append(abs, path)
	}

	return &FilesystemStorage{
		roots:      abs,
		extensions: slices.Clone(extensions),
	}, nil
}

// Roots returns the absolute search roots.
func (s *FilesystemStorage) Roots() []string {
	return slices.Clone(s.roots)
}

// Extensions returns the file extensions tried when resolving names.
func (s *FilesystemStorage) Extensions() []string {
	return slices.Clone(s.extensions)
}

// Resolve returns the file path of the first root and extension holding name.
func (s *FilesystemStorage) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized, err := NormalizeTemplateName(s.trimExtension(name))
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewStorageClosedError()
	}
	for _, root := range s.roots {
		for _, ext := range s.extensions {
			candidate := filepath.Join(root, filepath.FromSlash(normalized)+ext)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", NewTemplateNotFoundError(name)
}

// Read returns the file at path. The path must lie inside a search root.
func (s *FilesystemStorage) Read(ctx context.Context, path string) (*TemplateSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	clean := filepath.Clean(path)
	root, ok := s.rootOf(clean)
	if !ok {
		return nil, &StorageError{Message: ErrMsgFilesystemOutsideRoot, Name: path}
	}

	info, err := os.Stat(clean)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, NewTemplateNotFoundError(path)
	}
	if err != nil {
		return nil, &StorageError{Message: ErrMsgFilesystemReadFailed, Name: path, Cause: err}
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgFilesystemReadFailed, Name: path, Cause: err}
	}

	return &TemplateSource{
		Name:    s.nameOf(root, clean),
		Path:    clean,
		Source:  string(data),
		ModTime: info.ModTime(),
	}, nil
}

// List returns the names of all template files under the roots, sorted. A name
// present in several roots is listed once.
func (s *FilesystemStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	seen := make(map[string]bool)
	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !s.hasExtension(path) {
				return nil
			}
			seen[s.nameOf(root, path)] = true
			return nil
		})
		if err != nil {
			return nil, &StorageError{Message: ErrMsgFilesystemReadFailed, Name: root, Cause: err}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Save writes source to the first root using the first extension.
func (s *FilesystemStorage) Save(ctx context.Context, name, source string) (*TemplateSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := NormalizeTemplateName(s.trimExtension(name))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	path := filepath.Join(s.roots[0], filepath.FromSlash(normalized)+s.extensions[0])
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgFilesystemWriteFailed, Name: name, Cause: err}
	}
	if err := os.WriteFile(path, []byte(source), FilesystemFilePermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgFilesystemWriteFailed, Name: name, Cause: err}
	}
	return &TemplateSource{
		Name:    normalized,
		Path:    path,
		Source:  source,
		ModTime: time.Now(),
	}, nil
}

// Delete removes the file name resolves to.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	path, err := s.Resolve(ctx, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTemplateNotFoundError(name)
		}
		return &StorageError{Message: ErrMsgFilesystemWriteFailed, Name: name, Cause: err}
	}
	return nil
}

// Close marks the storage closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// rootOf returns the root containing path
func (s *FilesystemStorage) rootOf(path string) (string, bool) {
	for _, root := range s.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == NameParentSegment || strings.HasPrefix(rel, NameParentSegment+string(filepath.Separator)) {
			continue
		}
		return root, true
	}
	return "", false
}

// nameOf derives the slash-separated template name of a file inside root
func (s *FilesystemStorage) nameOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return s.trimExtension(filepath.ToSlash(rel))
}

func (s *FilesystemStorage) hasExtension(path string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// trimExtension strips a configured extension, so `home.blade.php` names the
// same template as `home`.
func (s *FilesystemStorage) trimExtension(name string) string {
	for _, ext := range s.extensions {
		if trimmed, ok := strings.CutSuffix(name, ext); ok && trimmed != "" {
			return trimmed
		}
	}
	return name
}
