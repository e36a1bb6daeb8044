package blade

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of SourceStorage.
// It is primarily intended for testing and development.
// Paths are the normalized template names.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]*TemplateSource
	closed    bool
}

// MemoryStorageDriver is the driver for creating MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage instance.
// The connection string is ignored for memory storage.
func (d *MemoryStorageDriver) Open(_ string) (SourceStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates a new in-memory template storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string]*TemplateSource),
	}
}

// NewMemoryStorageFrom creates an in-memory storage holding the given
// name -> source pairs.
func NewMemoryStorageFrom(sources map[string]string) (*MemoryStorage, error) {
	s := NewMemoryStorage()
	for name, source := range sources {
		if _, err := s.Save(context.Background(), name, source); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Resolve returns the normalized name when a template exists for it.
func (s *MemoryStorage) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := NormalizeTemplateName(name)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewStorageClosedError()
	}
	if _, ok := s.templates[path]; !ok {
		return "", NewTemplateNotFoundError(name)
	}
	return path, nil
}

// Read returns a copy of the source stored at path.
func (s *MemoryStorage) Read(ctx context.Context, path string) (*TemplateSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	tmpl, ok := s.templates[path]
	if !ok {
		return nil, NewTemplateNotFoundError(path)
	}
	out := *tmpl
	return &out, nil
}

// List returns all template names, sorted.
func (s *MemoryStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Save stores source under name. Saving an existing name bumps its version.
func (s *MemoryStorage) Save(ctx context.Context, name, source string) (*TemplateSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := NormalizeTemplateName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	version := 1
	if prev, ok := s.templates[path]; ok {
		version = prev.Version + 1
	}
	tmpl := &TemplateSource{
		Name:    path,
		Path:    path,
		Source:  source,
		Version: version,
		ModTime: time.Now(),
	}
	s.templates[path] = tmpl
	out := *tmpl
	return &out, nil
}

// Delete removes the template stored under name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := NormalizeTemplateName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	if _, ok := s.templates[path]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, path)
	return nil
}

// Close releases all stored templates.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
