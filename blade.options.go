package blade

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Compiler.
type Option func(*compilerConfig)

// DirectiveFunc compiles one occurrence of a custom directive. expression is
// the text between the argument parentheses, empty when the directive has none.
// The returned host code replaces the directive and is never rescanned.
type DirectiveFunc func(expression string) (string, error)

// compilerConfig holds the internal configuration for a Compiler.
type compilerConfig struct {
	tags           *TagConfig
	settings       *Settings
	escapeFunction string
	maxDepth       int
	storage        SourceStorage
	searchRoots    []string
	extensions     []string
	cache          *CacheConfig
	concurrency    int
	directives     []customDirective
	logger         *zap.Logger
}

type customDirective struct {
	name string
	fn   DirectiveFunc
}

// defaultCompilerConfig returns the default compiler configuration.
func defaultCompilerConfig() *compilerConfig {
	return &compilerConfig{
		maxDepth:    0,
		concurrency: DefaultConcurrency,
		logger:      nil,
	}
}

// WithTagConfig sets the echo delimiters.
// Default: {{ }} escaped, {{{ }}} raw
func WithTagConfig(tags TagConfig) Option {
	return func(c *compilerConfig) {
		c.tags = &tags
	}
}

// WithSettings applies a Settings value. Options given after it override the
// values it sets.
func WithSettings(s Settings) Option {
	return func(c *compilerConfig) {
		c.settings = &s
		if s.EscapeFunction != "" {
			c.escapeFunction = s.EscapeFunction
		}
		if s.MaxDepth != 0 {
			c.maxDepth = s.MaxDepth
		}
		if len(s.SearchRoots) > 0 {
			c.searchRoots = s.SearchRoots
		}
		if len(s.Extensions) > 0 {
			c.extensions = s.Extensions
		}
		if s.Concurrency != 0 {
			c.concurrency = s.Concurrency
		}
		if s.Cache != nil {
			cache := s.Cache.CacheConfig()
			c.cache = &cache
		}
	}
}

// WithEscapeFunction sets the host function escaped echoes call.
// Default: "e"
func WithEscapeFunction(name string) Option {
	return func(c *compilerConfig) {
		c.escapeFunction = name
	}
}

// WithMaxDepth bounds extends chains and include nesting.
// Default: 64
func WithMaxDepth(depth int) Option {
	return func(c *compilerConfig) {
		c.maxDepth = depth
	}
}

// WithStorage sets the template source storage. It takes precedence over
// WithSearchRoots.
func WithStorage(storage SourceStorage) Option {
	return func(c *compilerConfig) {
		c.storage = storage
	}
}

// WithSearchRoots creates a FilesystemStorage over the given directories.
func WithSearchRoots(roots ...string) Option {
	return func(c *compilerConfig) {
		c.searchRoots = roots
	}
}

// WithExtensions sets the file extensions tried by WithSearchRoots.
// Default: ".blade.php"
func WithExtensions(extensions ...string) Option {
	return func(c *compilerConfig) {
		c.extensions = extensions
	}
}

// WithCache wraps the storage in a CachedStorage.
func WithCache(config CacheConfig) Option {
	return func(c *compilerConfig) {
		c.cache = &config
	}
}

// WithConcurrency bounds the parallel compilations of CompileAll.
// Default: 4
func WithConcurrency(n int) Option {
	return func(c *compilerConfig) {
		c.concurrency = n
	}
}

// WithDirective registers a custom directive. A custom directive replaces a
// built-in of the same name.
func WithDirective(name string, fn DirectiveFunc) Option {
	return func(c *compilerConfig) {
		c.directives = append(c.directives, customDirective{name: name, fn: fn})
	}
}

// WithLogger sets the logger for the compiler.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *compilerConfig) {
		c.logger = logger
	}
}
