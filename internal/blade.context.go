package internal

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// TemplateLoader resolves template names to paths and reads template sources.
// The public package adapts its storage backends to this interface.
type TemplateLoader interface {
	// ResolvePath maps a dotted or slashed template name to a source path.
	ResolvePath(ctx context.Context, name string) (string, error)
	// LoadSource returns the raw text stored at path.
	LoadSource(ctx context.Context, path string) (string, error)
}

// PipelineConfig is the immutable configuration shared by every compilation
// started from one compiler.
type PipelineConfig struct {
	Tags           TagConfig
	EscapeFunction string
	MaxDepth       int
	Loader         TemplateLoader
	Directives     *DirectiveRegistry
	Logger         *zap.Logger
}

// nameSequence hands out the numbers used for generated flag variables.
// Includes share the sequence of the compilation that inlines them, because
// the compiled text of both ends up in one host scope.
type nameSequence struct {
	last int
}

func (s *nameSequence) next() int {
	s.last++
	return s.last
}

// forelseFrame tracks one open @forelse
type forelseFrame struct {
	flag      string
	emptySeen bool
}

// CompilationContext owns all mutable state of a single compilation.
// A fresh context is allocated per call, so compilations never share state.
type CompilationContext struct {
	Context     context.Context
	ID          string
	Path        string
	DisplayName string
	Config      PipelineConfig
	Logger      *zap.Logger

	source       string            // buffer whose offsets errors are reported against
	mapping      Buffer            // origins of source when it was assembled
	sources      map[string]string // template sources read by this compilation, by path
	names        *nameSequence
	forelse      []forelseFrame
	extendsPaths []string
	extendsNames []string
	includePaths []string
	includeNames []string
}

// NewCompilationContext creates the context for compiling the template at path
func NewCompilationContext(ctx context.Context, cfg PipelineConfig, id, path, displayName string) *CompilationContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.EscapeFunction == "" {
		cfg.EscapeFunction = DefaultEscapeFunction
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Directives == nil {
		cfg.Directives = DefaultDirectiveRegistry(cfg.Logger)
	}
	if cfg.Tags.EscapedOpen == "" {
		cfg.Tags = DefaultTagConfig()
	}
	if displayName == "" {
		displayName = path
	}

	cc := &CompilationContext{
		Context:     ctx,
		ID:          id,
		Path:        path,
		DisplayName: displayName,
		Config:      cfg,
		Logger:      cfg.Logger.With(zap.String(LogFieldCompileID, id)),
		sources:     make(map[string]string),
		names:       &nameSequence{},
	}
	if path != "" {
		cc.includePaths = []string{path}
		cc.includeNames = []string{displayName}
	}
	return cc
}

// child returns the context for compiling the template name, stored at path,
// that c includes.
func (c *CompilationContext) child(path, name string) *CompilationContext {
	return &CompilationContext{
		Context:      c.Context,
		ID:           c.ID,
		Path:         path,
		DisplayName:  path,
		Config:       c.Config,
		Logger:       c.Logger,
		sources:      make(map[string]string),
		names:        c.names,
		includePaths: append(slices.Clone(c.includePaths), path),
		includeNames: append(slices.Clone(c.includeNames), name),
	}
}

// Tags returns the echo delimiter configuration
func (c *CompilationContext) Tags() TagConfig {
	return c.Config.Tags
}

// EscapeFunction returns the host function escaped echoes call
func (c *CompilationContext) EscapeFunction() string {
	return c.Config.EscapeFunction
}

// pushForelse opens a new @forelse and returns its flag variable
func (c *CompilationContext) pushForelse() string {
	flag := formatForelseFlag(c.names.next())
	c.forelse = append(c.forelse, forelseFrame{flag: flag})
	return flag
}

// currentForelse returns the innermost open @forelse
func (c *CompilationContext) currentForelse() (*forelseFrame, bool) {
	if len(c.forelse) == 0 {
		return nil, false
	}
	return &c.forelse[len(c.forelse)-1], true
}

// popForelse closes the innermost @forelse
func (c *CompilationContext) popForelse() (forelseFrame, bool) {
	if len(c.forelse) == 0 {
		return forelseFrame{}, false
	}
	frame := c.forelse[len(c.forelse)-1]
	c.forelse = c.forelse[:len(c.forelse)-1]
	return frame, true
}

// enterExtends records the template name, stored at path, in the current
// extends chain. It fails when the path was already visited or the chain grew
// past the depth limit. Chains in errors list template names.
func (c *CompilationContext) enterExtends(path, name string) error {
	if slices.Contains(c.extendsPaths, path) {
		return NewCompileError(ErrorKindExtendsCycle, ErrMsgExtendsCycle).
			WithPath(c.displayPath(path)).
			WithChain(append(slices.Clone(c.extendsNames), name))
	}
	if len(c.extendsPaths) >= c.Config.MaxDepth {
		return NewCompileError(ErrorKindDepthExceeded, ErrMsgDepthExceeded).
			WithPath(c.displayPath(path)).
			WithChain(slices.Clone(c.extendsNames))
	}
	c.extendsPaths = append(c.extendsPaths, path)
	c.extendsNames = append(c.extendsNames, name)
	return nil
}

// leaveExtends pops the innermost extends chain entry
func (c *CompilationContext) leaveExtends() {
	if n := len(c.extendsPaths); n > 0 {
		c.extendsPaths = c.extendsPaths[:n-1]
		c.extendsNames = c.extendsNames[:n-1]
	}
}

// sourcePosition traces offset in the buffer being compiled back to the
// template that contributed it.
func (c *CompilationContext) sourcePosition(offset int) (string, Position) {
	if path, at, ok := c.mapping.Locate(offset); ok {
		if source, loaded := c.sources[path]; loaded {
			return path, positionAt(source, at)
		}
	}
	return c.Path, positionAt(c.source, offset)
}

// displayPath names path in errors and logs, preferring the caller's display
// name for the template being compiled.
func (c *CompilationContext) displayPath(path string) string {
	if path == "" || path == c.Path {
		return c.DisplayName
	}
	return path
}

// errorAt creates a compile error located at offset in the buffer being compiled
func (c *CompilationContext) errorAt(kind ErrorKind, msg string, offset int) *CompileError {
	path, pos := c.sourcePosition(offset)
	return NewCompileError(kind, msg).
		WithPath(c.displayPath(path)).
		WithPosition(pos)
}
