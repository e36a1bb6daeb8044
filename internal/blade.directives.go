package internal

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DirectiveHandler generates the host code that replaces one directive occurrence.
type DirectiveHandler func(c *CompilationContext, d Directive) (string, error)

// ErrPassThrough tells the statement compiler to leave the directive text unchanged.
var ErrPassThrough = errors.New("directive passed through")

// DirectiveRegistry maps directive names to handlers. Names without a handler are
// not errors: the statement compiler leaves them in the output as plain text.
type DirectiveRegistry struct {
	mu       sync.RWMutex
	handlers map[string]DirectiveHandler
	logger   *zap.Logger
}

// NewDirectiveRegistry creates an empty registry
func NewDirectiveRegistry(logger *zap.Logger) *DirectiveRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &DirectiveRegistry{
		handlers: make(map[string]DirectiveHandler),
		logger:   logger,
	}
}

// DefaultDirectiveRegistry creates a registry holding the built-in directives
func DefaultDirectiveRegistry(logger *zap.Logger) *DirectiveRegistry {
	r := NewDirectiveRegistry(logger)
	RegisterBuiltinDirectives(r)
	return r
}

// Register adds or replaces the handler for name
func (r *DirectiveRegistry) Register(name string, handler DirectiveHandler) error {
	if name == "" {
		return NewCompileError(ErrorKindInvalidDirective, ErrMsgEmptyDirectiveName)
	}
	for i := 0; i < len(name); i++ {
		if !isWordByte(name[i]) {
			return NewCompileError(ErrorKindInvalidDirective, ErrMsgInvalidDirectiveName).WithDirective(name)
		}
	}
	if handler == nil {
		return NewCompileError(ErrorKindInvalidDirective, ErrMsgNilDirectiveHandler).WithDirective(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		r.logger.Debug(LogMsgDirectiveOverride, zap.String(LogFieldDirective, name))
	}
	r.handlers[name] = handler
	r.logger.Debug(LogMsgDirectiveRegistered, zap.String(LogFieldDirective, name))
	return nil
}

// Lookup returns the handler for name
func (r *DirectiveRegistry) Lookup(name string) (DirectiveHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Has reports whether a handler exists for name
func (r *DirectiveRegistry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered directive names, sorted
func (r *DirectiveRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltinDirectives registers the built-in directive handlers
func RegisterBuiltinDirectives(r *DirectiveRegistry) {
	builtins := map[string]DirectiveHandler{
		DirectiveIf:         withArgs(CodeIfFmt),
		DirectiveElseIf:     withArgs(CodeElseIfFmt),
		DirectiveElse:       constant(CodeElse),
		DirectiveEndIf:      constant(CodeEndIf),
		DirectiveUnless:     withArgs(CodeUnlessFmt),
		DirectiveEndUnless:  constant(CodeEndIf),
		DirectiveFor:        withArgs(CodeForFmt),
		DirectiveEndFor:     constant(CodeEndFor),
		DirectiveForeach:    withArgs(CodeForeachFmt),
		DirectiveEndForeach: constant(CodeEndForeach),
		DirectiveWhile:      withArgs(CodeWhileFmt),
		DirectiveEndWhile:   constant(CodeEndWhile),
		DirectiveForelse:    compileForelse,
		DirectiveEmpty:      compileEmpty,
		DirectiveEndForelse: compileEndForelse,
		DirectiveEndEmpty:   constant(CodeEndIf),
		DirectiveIsset:      withArgs(CodeIssetFmt),
		DirectiveEndIsset:   constant(CodeEndIf),
		DirectiveBreak:      loopControl(CodeBreak, CodeBreakLevelFmt, CodeBreakIfFmt),
		DirectiveContinue:   loopControl(CodeContinue, CodeContinueLvlFmt, CodeContinueIfFmt),
		DirectivePHP:        compilePHPExpression,
		DirectiveEndPHP:     compileStrayEndPHP,
		DirectiveInclude:    compileInclude,
		DirectiveJSON:       withArgs(CodeJSONFmt),
	}
	for _, name := range []string{
		DirectiveExtends, DirectiveSection, DirectiveEndSection, DirectiveShow,
		DirectiveStop, DirectiveOverwrite, DirectiveYield, DirectiveParent,
		DirectivePush, DirectiveEndPush, DirectiveStack,
	} {
		builtins[name] = layoutLeftover
	}
	for name, handler := range builtins {
		// names and handlers above are valid by construction
		_ = r.Register(name, handler)
	}
}

// withArgs formats the argument group, including its parentheses, into format.
// Without arguments the directive is left as text.
func withArgs(format string) DirectiveHandler {
	return func(_ *CompilationContext, d Directive) (string, error) {
		if !d.HasArgs || d.Inner() == "" {
			return "", ErrPassThrough
		}
		return fmt.Sprintf(format, d.Args), nil
	}
}

// constant always emits code, ignoring any arguments
func constant(code string) DirectiveHandler {
	return func(_ *CompilationContext, _ Directive) (string, error) {
		return code, nil
	}
}

// loopControl compiles @break / @continue: bare, with a numeric level, or guarded by a condition
func loopControl(plain, levelFormat, guardFormat string) DirectiveHandler {
	return func(_ *CompilationContext, d Directive) (string, error) {
		inner := d.Inner()
		switch {
		case inner == "":
			return plain, nil
		case isAllDigits(inner):
			return fmt.Sprintf(levelFormat, inner), nil
		default:
			return fmt.Sprintf(guardFormat, d.Args), nil
		}
	}
}

func compileForelse(c *CompilationContext, d Directive) (string, error) {
	if !d.HasArgs || d.Inner() == "" {
		return "", ErrPassThrough
	}
	flag := c.pushForelse()
	return fmt.Sprintf(CodeForelseFmt, flag, d.Args), nil
}

// compileEmpty is the presence check @empty(expr) or, without arguments, the
// fallback branch of the innermost @forelse.
func compileEmpty(c *CompilationContext, d Directive) (string, error) {
	if d.HasArgs && d.Inner() != "" {
		return fmt.Sprintf(CodeEmptyCheckFmt, d.Args), nil
	}
	frame, ok := c.currentForelse()
	if !ok {
		return "", NewCompileError(ErrorKindMisplacedDirective, ErrMsgMisplacedEmpty)
	}
	frame.emptySeen = true
	return fmt.Sprintf(CodeForelseEmptyFmt, frame.flag), nil
}

func compileEndForelse(c *CompilationContext, _ Directive) (string, error) {
	frame, ok := c.popForelse()
	if !ok {
		return "", NewCompileError(ErrorKindMisplacedDirective, ErrMsgMisplacedEndForelse)
	}
	if frame.emptySeen {
		return CodeEndIf, nil
	}
	return CodeEndForeach, nil
}

// compilePHPExpression handles @php(expr). The block form is captured by the
// statement compiler before dispatch.
func compilePHPExpression(_ *CompilationContext, d Directive) (string, error) {
	inner := d.Inner()
	if inner == "" {
		return "", ErrPassThrough
	}
	return fmt.Sprintf(CodePHPExprFmt, inner), nil
}

func compileStrayEndPHP(_ *CompilationContext, _ Directive) (string, error) {
	return "", NewCompileError(ErrorKindMisplacedDirective, ErrMsgMisplacedEndPHP)
}

// compileInclude compiles the named template now and inlines its output.
// An optional second argument is extracted into the host scope first.
func compileInclude(c *CompilationContext, d Directive) (string, error) {
	args := d.Arguments()
	if len(args) == 0 {
		return "", NewCompileError(ErrorKindInvalidArgument, ErrMsgTemplateNameArgument)
	}
	name, ok := Unquote(args[0])
	if !ok || name == "" {
		return "", NewCompileError(ErrorKindInvalidArgument, ErrMsgTemplateNameArgument)
	}
	compiled, err := c.Include(name)
	if err != nil {
		return "", err
	}
	if len(args) > 1 && args[1] != "" {
		return fmt.Sprintf(CodeExtractFmt, args[1]) + compiled, nil
	}
	return compiled, nil
}

// layoutLeftover handles layout directives that assembly did not consume
func layoutLeftover(c *CompilationContext, d Directive) (string, error) {
	c.Logger.Debug(LogMsgDirectiveLayoutNoop, zap.String(LogFieldDirective, d.Name))
	return "", nil
}

func formatForelseFlag(n int) string {
	return fmt.Sprintf(ForelseFlagFmt, n)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
