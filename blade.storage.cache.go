package blade

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CachedStorage wraps any SourceStorage with in-memory caching of name
// resolution and source reads, with configurable TTL and size limits.
type CachedStorage struct {
	storage SourceStorage
	config  CacheConfig
	logger  *zap.Logger

	mu       sync.RWMutex
	resolved map[string]*cacheEntry // name -> path
	sources  map[string]*cacheEntry // path -> source
	closed   bool
}

// cacheTable selects one of the two lookup maps
type cacheTable int

const (
	tableResolved cacheTable = iota
	tableSources
)

// table returns the map for t. Caller must hold the lock.
func (s *CachedStorage) table(t cacheTable) map[string]*cacheEntry {
	if t == tableSources {
		return s.sources
	}
	return s.resolved
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached sources.
	// When exceeded, the least recently used entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	// Default: 30 seconds.
	NegativeCacheTTL time.Duration

	// Logger receives cache debug logs. Default: no-op.
	Logger *zap.Logger
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              CacheDefaultTTL,
		MaxEntries:       CacheDefaultMaxEntries,
		NegativeCacheTTL: CacheDefaultNegativeCacheTTL,
	}
}

// cacheEntry represents one cached lookup.
type cacheEntry struct {
	path       string
	source     *TemplateSource
	notFound   error
	cachedAt   time.Time
	accessedAt atomic.Int64
	key        string
}

func (e *cacheEntry) touch() {
	e.accessedAt.Store(time.Now().UnixNano())
}

// NewCachedStorage wraps a storage with caching.
func NewCachedStorage(storage SourceStorage, config CacheConfig) *CachedStorage {
	if config.TTL == 0 {
		config.TTL = CacheDefaultTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = CacheDefaultMaxEntries
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedStorage{
		storage:  storage,
		config:   config,
		logger:   logger,
		resolved: make(map[string]*cacheEntry),
		sources:  make(map[string]*cacheEntry),
	}
}

// Unwrap returns the wrapped storage.
func (s *CachedStorage) Unwrap() SourceStorage {
	return s.storage
}

// Resolve maps name to a path, using cache when available.
func (s *CachedStorage) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := s.lookup(tableResolved, name)
	if err != nil {
		return "", err
	}
	if entry != nil {
		if entry.notFound != nil {
			return "", entry.notFound
		}
		return entry.path, nil
	}

	path, err := s.storage.Resolve(ctx, name)
	if err != nil {
		return "", s.storeMiss(tableResolved, name, err)
	}
	s.store(tableResolved, name, &cacheEntry{path: path})
	return path, nil
}

// Read returns the source at path, using cache when available.
func (s *CachedStorage) Read(ctx context.Context, path string) (*TemplateSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := s.lookup(tableSources, path)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if entry.notFound != nil {
			return nil, entry.notFound
		}
		out := *entry.source
		return &out, nil
	}

	src, err := s.storage.Read(ctx, path)
	if err != nil {
		return nil, s.storeMiss(tableSources, path, err)
	}
	cached := *src
	s.store(tableSources, path, &cacheEntry{path: path, source: &cached})
	return src, nil
}

// List returns the template names of the wrapped storage (bypasses cache).
func (s *CachedStorage) List(ctx context.Context) ([]string, error) {
	return s.storage.List(ctx)
}

// Close closes the cache and underlying storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.resolved = nil
	s.sources = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate removes key from the cache. key may be a template name or a path;
// resolutions that point at a removed path are dropped too.
func (s *CachedStorage) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	delete(s.resolved, key)
	delete(s.sources, key)
	for name, entry := range s.resolved {
		if entry.path == key {
			delete(s.resolved, name)
		}
	}
}

// InvalidateAll clears the entire cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.resolved = make(map[string]*cacheEntry)
	s.sources = make(map[string]*cacheEntry)
	s.logger.Debug(LogMsgCacheInvalidateAll)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
	Resolutions     int
}

// Stats returns cache statistics for cached sources.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var valid, negative int
	for _, entry := range s.sources {
		if !s.isValid(entry) {
			continue
		}
		if entry.notFound != nil {
			negative++
		} else {
			valid++
		}
	}
	return CacheStats{
		Entries:         len(s.sources),
		ValidEntries:    valid,
		NegativeEntries: negative,
		Resolutions:     len(s.resolved),
	}
}

// lookup returns a valid entry for key, or nil on a miss
func (s *CachedStorage) lookup(t cacheTable, key string) (*cacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	entry, ok := s.table(t)[key]
	if !ok || !s.isValid(entry) {
		s.logger.Debug(LogMsgCacheMiss, zap.String(LogFieldKey, key))
		return nil, nil
	}
	entry.touch()
	s.logger.Debug(LogMsgCacheHit, zap.String(LogFieldKey, key))
	return entry, nil
}

// storeMiss records a not-found result when negative caching is on and
// returns err unchanged.
func (s *CachedStorage) storeMiss(t cacheTable, key string, err error) error {
	if s.config.NegativeCacheTTL > 0 && IsTemplateNotFound(err) {
		s.store(t, key, &cacheEntry{notFound: err})
	}
	return err
}

func (s *CachedStorage) store(t cacheTable, key string, entry *cacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	table := s.table(t)
	if _, exists := table[key]; !exists && len(table) >= s.config.MaxEntries {
		s.evictOldest(table)
	}

	entry.key = key
	entry.cachedAt = time.Now()
	entry.touch()
	table[key] = entry
}

// isValid checks if a cache entry is still valid.
func (s *CachedStorage) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound != nil {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// evictOldest removes the least recently accessed entry.
// Caller must hold write lock.
func (s *CachedStorage) evictOldest(table map[string]*cacheEntry) {
	var oldest *cacheEntry
	for _, entry := range table {
		if oldest == nil || entry.accessedAt.Load() < oldest.accessedAt.Load() {
			oldest = entry
		}
	}
	if oldest != nil {
		delete(table, oldest.key)
		s.logger.Debug(LogMsgCacheEvict, zap.String(LogFieldKey, oldest.key))
	}
}
