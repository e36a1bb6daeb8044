package blade

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// TemplateSource is the raw text of one template as read from storage.
type TemplateSource struct {
	// Name is the normalized, slash-separated template name.
	Name string

	// Path is the storage-specific location the source was read from.
	Path string

	// Source is the raw template text.
	Source string

	// Version is the revision number for versioned backends, 0 otherwise.
	Version int

	// ModTime is when the source was last modified.
	ModTime time.Time
}

// SourceStorage is the interface for pluggable template source backends.
// Implementations must be safe for concurrent use.
//
// Names are what templates use to refer to each other (`layouts.app`), paths are
// what a backend needs to read a source. Cycle detection keys on paths.
type SourceStorage interface {
	// Resolve maps a dotted or slashed template name to a path.
	// Returns a TemplateNotFound error if no source exists for the name.
	Resolve(ctx context.Context, name string) (string, error)

	// Read returns the source stored at path.
	// Returns a TemplateNotFound error if the path does not exist.
	Read(ctx context.Context, path string) (*TemplateSource, error)

	// List returns the names of all stored templates, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the storage.
	Close() error
}

// WritableStorage is implemented by backends that accept new sources.
type WritableStorage interface {
	SourceStorage

	// Save stores source under name and returns what was written.
	Save(ctx context.Context, name, source string) (*TemplateSource, error)

	// Delete removes the template. Returns TemplateNotFound if it does not exist.
	Delete(ctx context.Context, name string) error
}

// StorageDriver is a factory for creating storage instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a new storage instance with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (SourceStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if the driver is nil or a driver with the same name is already registered.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage using the named driver.
//
// Example:
//
//	storage, err := blade.OpenStorage("memory", "")
//	storage, err := blade.OpenStorage("filesystem", "/srv/views,/srv/vendor/views")
func OpenStorage(driverName, connectionString string) (SourceStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the names of all registered storage drivers, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NormalizeTemplateName converts a dotted or slashed template name into its
// slash-separated form: `layouts.app` and `layouts/app` both become `layouts/app`.
// Empty names, absolute names, backslashes and parent segments are rejected.
func NormalizeTemplateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", NewInvalidTemplateNameError(name, ErrMsgInvalidTemplateName)
	}
	if strings.Contains(trimmed, NameBackslash) {
		return "", NewInvalidTemplateNameError(name, NameBackslash)
	}
	if strings.HasPrefix(trimmed, NameSeparatorSlash) {
		return "", NewInvalidTemplateNameError(name, NameSeparatorSlash)
	}
	if strings.Contains(trimmed, NameParentSegment) {
		return "", NewInvalidTemplateNameError(name, NameParentSegment)
	}

	normalized := strings.ReplaceAll(trimmed, NameSeparatorDot, NameSeparatorSlash)
	for _, part := range strings.Split(normalized, NameSeparatorSlash) {
		if part == "" {
			return "", NewInvalidTemplateNameError(name, ErrMsgInvalidTemplateName)
		}
	}
	return normalized, nil
}
