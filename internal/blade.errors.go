package internal

import "strings"

// CompileError is raised by the compiler stages. The public package translates it
// into a categorized error with position metadata.
type CompileError struct {
	Kind      ErrorKind
	Message   string
	Path      string
	Directive string
	Position  Position
	Chain     []string
	Cause     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Directive != "" {
		sb.WriteString(" (@")
		sb.WriteString(e.Directive)
		sb.WriteString(")")
	}
	if len(e.Chain) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Chain, " -> "))
	}
	if e.Path != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Path)
	}
	if e.Position.Line > 0 {
		sb.WriteString(" at ")
		sb.WriteString(e.Position.String())
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// NewCompileError creates a compile error of the given kind
func NewCompileError(kind ErrorKind, msg string) *CompileError {
	return &CompileError{Kind: kind, Message: msg}
}

// WithPath sets the template path
func (e *CompileError) WithPath(path string) *CompileError {
	e.Path = path
	return e
}

// WithDirective sets the offending directive name
func (e *CompileError) WithDirective(name string) *CompileError {
	e.Directive = name
	return e
}

// WithPosition sets the source position
func (e *CompileError) WithPosition(pos Position) *CompileError {
	e.Position = pos
	return e
}

// WithChain sets the template chain involved in a cycle
func (e *CompileError) WithChain(chain []string) *CompileError {
	e.Chain = append([]string(nil), chain...)
	return e
}

// WithCause sets the wrapped error
func (e *CompileError) WithCause(cause error) *CompileError {
	e.Cause = cause
	return e
}
