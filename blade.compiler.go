package blade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/itsatony/go-blade/internal"
)

// Compiler turns Blade templates into host-language source. It holds only
// immutable configuration; every call allocates its own compilation state, so
// one Compiler serves concurrent callers.
type Compiler struct {
	pipeline    internal.PipelineConfig
	storage     SourceStorage
	ownsStorage bool
	concurrency int
	logger      *zap.Logger
}

// New creates a Compiler with the given options.
func New(opts ...Option) (*Compiler, error) {
	config := defaultCompilerConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.maxDepth < 0 {
		return nil, NewConfigError(ErrMsgInvalidMaxDepth, nil)
	}
	if config.concurrency < 1 {
		return nil, NewConfigError(ErrMsgInvalidConcurrency, nil)
	}

	tags, err := config.tagConfig()
	if err != nil {
		return nil, err
	}

	registry := internal.DefaultDirectiveRegistry(logger)
	for _, d := range config.directives {
		if err := registry.Register(d.name, adaptDirective(d.fn)); err != nil {
			return nil, translateError(err, "")
		}
	}

	storage, owns, err := config.openStorage()
	if err != nil {
		return nil, err
	}

	pipeline := internal.PipelineConfig{
		Tags:           tags,
		EscapeFunction: config.escapeFunction,
		MaxDepth:       config.maxDepth,
		Directives:     registry,
		Logger:         logger,
	}
	if storage != nil {
		pipeline.Loader = &storageLoader{storage: storage}
	}

	logger.Debug(LogMsgCompilerCreated,
		zap.Int(LogFieldDirectives, len(registry.Names())),
		zap.Int(LogFieldConcurrency, config.concurrency))

	return &Compiler{
		pipeline:    pipeline,
		storage:     storage,
		ownsStorage: owns,
		concurrency: config.concurrency,
		logger:      logger,
	}, nil
}

// MustNew creates a new Compiler and panics if there's an error.
func MustNew(opts ...Option) *Compiler {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (cfg *compilerConfig) tagConfig() (TagConfig, error) {
	switch {
	case cfg.tags != nil:
		// revalidates literals built without NewTagConfig
		return NewTagConfig(cfg.tags.EscapedOpen, cfg.tags.EscapedClose, cfg.tags.RawOpen, cfg.tags.RawClose)
	case cfg.settings != nil:
		return LoadTagConfig(*cfg.settings)
	default:
		return DefaultTagConfig(), nil
	}
}

// openStorage returns the configured storage and whether the compiler created it
func (cfg *compilerConfig) openStorage() (SourceStorage, bool, error) {
	storage := cfg.storage
	owns := false
	if storage == nil && len(cfg.searchRoots) > 0 {
		fs, err := NewFilesystemStorage(cfg.searchRoots, cfg.extensions)
		if err != nil {
			return nil, false, err
		}
		storage, owns = fs, true
	}
	if storage != nil && cfg.cache != nil {
		cache := *cfg.cache
		if cache.Logger == nil {
			cache.Logger = cfg.logger
		}
		storage = NewCachedStorage(storage, cache)
	}
	return storage, owns, nil
}

func adaptDirective(fn DirectiveFunc) internal.DirectiveHandler {
	if fn == nil {
		return nil
	}
	return func(_ *internal.CompilationContext, d internal.Directive) (string, error) {
		out, err := fn(d.Inner())
		if err != nil {
			return "", internal.NewCompileError(internal.ErrorKindDirectiveFailed, internal.ErrMsgDirectiveFailed).
				WithCause(err)
		}
		return out, nil
	}
}

// Storage returns the template source storage, or nil when none is configured.
func (c *Compiler) Storage() SourceStorage {
	return c.storage
}

// TagConfig returns the echo delimiter configuration.
func (c *Compiler) TagConfig() TagConfig {
	return c.pipeline.Tags
}

// Directives returns the names of all registered directives, sorted.
func (c *Compiler) Directives() []string {
	return c.pipeline.Directives.Names()
}

// Close releases the storage the compiler created from search roots.
// Storage passed in with WithStorage stays open.
func (c *Compiler) Close() error {
	if c.ownsStorage && c.storage != nil {
		return c.storage.Close()
	}
	return nil
}

func (c *Compiler) newContext(ctx context.Context, path, displayName string) *internal.CompilationContext {
	return internal.NewCompilationContext(ctx, c.pipeline, uuid.NewString(), path, displayName)
}

// Compile compiles the template stored at rootPath, a storage path as returned
// by Resolve. displayName names the template in errors and logs.
func (c *Compiler) Compile(ctx context.Context, rootPath, displayName string) (string, error) {
	if displayName == "" {
		displayName = rootPath
	}
	if c.storage == nil {
		return "", NewCompileError(ErrorKindLoaderUnavailable, ErrMsgNoStorage, displayName, Position{}, nil)
	}

	cc := c.newContext(ctx, rootPath, displayName)
	return c.run(cc, func() (string, error) {
		return internal.CompileFile(cc)
	})
}

// CompileTemplate resolves a dotted or slashed template name through storage
// and compiles it.
func (c *Compiler) CompileTemplate(ctx context.Context, name string) (string, error) {
	if c.storage == nil {
		return "", NewCompileError(ErrorKindLoaderUnavailable, ErrMsgNoStorage, name, Position{}, nil)
	}
	path, err := c.storage.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	return c.Compile(ctx, path, name)
}

// CompileString compiles in-memory template text. Layouts and includes it
// references are resolved through storage.
func (c *Compiler) CompileString(ctx context.Context, source, displayName string) (string, error) {
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	cc := c.newContext(ctx, "", displayName)
	return c.run(cc, func() (string, error) {
		return internal.CompileSource(cc, source)
	})
}

func (c *Compiler) run(cc *internal.CompilationContext, compile func() (string, error)) (string, error) {
	logger := c.logger.With(zap.String(LogFieldCompileID, cc.ID))
	logger.Debug(LogMsgCompileStart,
		zap.String(LogFieldPath, cc.Path),
		zap.String(LogFieldDisplayName, cc.DisplayName))

	start := time.Now()
	out, err := compile()
	if err != nil {
		logger.Debug(LogMsgCompileFailed,
			zap.String(LogFieldDisplayName, cc.DisplayName),
			zap.Error(err))
		return "", translateError(err, cc.DisplayName)
	}

	logger.Debug(LogMsgCompileEnd,
		zap.String(LogFieldDisplayName, cc.DisplayName),
		zap.Int(LogFieldOutput, len(out)),
		zap.Duration(LogFieldDuration, time.Since(start)))
	return out, nil
}

// CompileAll compiles the named templates in parallel, at most the configured
// concurrency at a time. Without names every template in storage is compiled.
// The first failure cancels the remaining compilations.
func (c *Compiler) CompileAll(ctx context.Context, names ...string) (map[string]string, error) {
	if c.storage == nil {
		return nil, NewCompileError(ErrorKindLoaderUnavailable, ErrMsgNoStorage, "", Position{}, nil)
	}
	if len(names) == 0 {
		listed, err := c.storage.List(ctx)
		if err != nil {
			return nil, err
		}
		names = listed
	}

	c.logger.Debug(LogMsgCompileAllStart,
		zap.Int(LogFieldCount, len(names)),
		zap.Int(LogFieldConcurrency, c.concurrency))

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, name := range names {
		g.Go(func() error {
			out, err := c.CompileTemplate(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug(LogMsgCompileAllEnd, zap.Int(LogFieldCount, len(results)))
	return results, nil
}

// Token is one code or literal region of a template buffer
type Token = internal.Token

// Tokenize splits source into host code and template literal regions.
// Concatenating the token texts reproduces source.
func Tokenize(source string) []Token {
	return internal.TokenizeAll(source)
}

// storageLoader adapts a SourceStorage to the loader the compiler stages use
type storageLoader struct {
	storage SourceStorage
}

func (l *storageLoader) ResolvePath(ctx context.Context, name string) (string, error) {
	return l.storage.Resolve(ctx, name)
}

func (l *storageLoader) LoadSource(ctx context.Context, path string) (string, error) {
	src, err := l.storage.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return src.Source, nil
}
