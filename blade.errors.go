package blade

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-blade/internal"
)

// ErrorKind classifies compilation failures. It is stored in the error metadata
// under MetaKeyKind.
type ErrorKind string

// Error kinds
const (
	ErrorKindTemplateNotFound    ErrorKind = "TemplateNotFound"
	ErrorKindExtendsCycle        ErrorKind = ErrorKind(internal.ErrorKindExtendsCycle)
	ErrorKindIncludeCycle        ErrorKind = ErrorKind(internal.ErrorKindIncludeCycle)
	ErrorKindUnbalancedArguments ErrorKind = ErrorKind(internal.ErrorKindUnbalancedArguments)
	ErrorKindUnterminatedSection ErrorKind = ErrorKind(internal.ErrorKindUnterminatedSection)
	ErrorKindUnterminatedBlock   ErrorKind = ErrorKind(internal.ErrorKindUnterminatedBlock)
	ErrorKindMisplacedDirective  ErrorKind = ErrorKind(internal.ErrorKindMisplacedDirective)
	ErrorKindInvalidArgument     ErrorKind = ErrorKind(internal.ErrorKindInvalidArgument)
	ErrorKindDepthExceeded       ErrorKind = ErrorKind(internal.ErrorKindDepthExceeded)
	ErrorKindInvalidTagConfig    ErrorKind = ErrorKind(internal.ErrorKindInvalidTagConfig)
	ErrorKindInvalidDirective    ErrorKind = ErrorKind(internal.ErrorKindInvalidDirective)
	ErrorKindLoaderUnavailable   ErrorKind = ErrorKind(internal.ErrorKindLoaderUnavailable)
	ErrorKindDirectiveFailed     ErrorKind = ErrorKind(internal.ErrorKindDirectiveFailed)
	ErrorKindInvalidTemplateName ErrorKind = "InvalidTemplateName"
	ErrorKindInvalidConfig       ErrorKind = "InvalidConfig"
)

// Position represents a location in a template buffer
type Position = internal.Position

// NewTemplateNotFoundError creates an error for a template name or path that
// does not exist in the configured storage.
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplateName, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyKind, string(ErrorKindTemplateNotFound)).
		WithMetadata(MetaKeyTemplateName, name)
}

// NewInvalidTemplateNameError creates an error for names that cannot address a template
func NewInvalidTemplateNameError(name, reason string) error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgInvalidTemplateName).
		WithMetadata(MetaKeyKind, string(ErrorKindInvalidTemplateName)).
		WithMetadata(MetaKeyTemplateName, name).
		WithMetadata(MetaKeyReason, reason)
}

// NewConfigError creates a configuration error
func NewConfigError(msg string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return err.WithMetadata(MetaKeyKind, string(ErrorKindInvalidConfig))
}

// NewCompileError creates a compilation error with position context
func NewCompileError(kind ErrorKind, msg, displayName string, pos Position, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, errorCodeFor(kind), msg)
	} else {
		err = cuserr.NewValidationError(errorCodeFor(kind), msg)
	}
	return withPosition(err.
		WithMetadata(MetaKeyKind, string(kind)).
		WithMetadata(MetaKeyDisplayName, displayName), pos)
}

func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	if pos.Line == 0 {
		return err
	}
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

func errorCodeFor(kind ErrorKind) string {
	switch kind {
	case ErrorKindExtendsCycle, ErrorKindIncludeCycle, ErrorKindDepthExceeded,
		ErrorKindUnterminatedSection:
		return ErrCodeLayout
	case ErrorKindInvalidTagConfig, ErrorKindInvalidDirective, ErrorKindInvalidConfig:
		return ErrCodeConfig
	default:
		return ErrCodeCompile
	}
}

// translateError converts errors raised by the compiler stages into the
// categorized errors of this package. Context errors, storage errors and
// errors that are already categorized pass through unchanged.
func translateError(err error, displayName string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ce *internal.CompileError
	if !errors.As(err, &ce) {
		return err
	}

	var out *cuserr.CustomError
	if ce.Cause != nil {
		out = cuserr.WrapStdError(ce.Cause, errorCodeFor(ErrorKind(ce.Kind)), ce.Error())
	} else {
		out = cuserr.NewValidationError(errorCodeFor(ErrorKind(ce.Kind)), ce.Error())
	}
	out = out.
		WithMetadata(MetaKeyKind, string(ce.Kind)).
		WithMetadata(MetaKeyDisplayName, displayName)
	if ce.Path != "" {
		out = out.WithMetadata(MetaKeyPath, ce.Path)
	}
	if ce.Directive != "" {
		out = out.WithMetadata(MetaKeyDirective, ce.Directive)
	}
	if len(ce.Chain) > 0 {
		out = out.WithMetadata(MetaKeyChain, strings.Join(ce.Chain, ChainSeparator))
	}
	return withPosition(out, ce.Position)
}

// ErrorKindOf returns the kind recorded on a categorized error
func ErrorKindOf(err error) (ErrorKind, bool) {
	var ce *cuserr.CustomError
	if !errors.As(err, &ce) {
		return "", false
	}
	kind, ok := ce.GetMetadata(MetaKeyKind)
	if !ok {
		return "", false
	}
	return ErrorKind(kind), true
}

// ErrorMetadata returns one metadata value of a categorized error
func ErrorMetadata(err error, key string) (string, bool) {
	var ce *cuserr.CustomError
	if !errors.As(err, &ce) {
		return "", false
	}
	return ce.GetMetadata(key)
}

// ErrorPosition returns the line and column recorded on a categorized error
func ErrorPosition(err error) (Position, bool) {
	line, ok := ErrorMetadata(err, MetaKeyLine)
	if !ok {
		return Position{}, false
	}
	column, _ := ErrorMetadata(err, MetaKeyColumn)
	offset, _ := ErrorMetadata(err, MetaKeyOffset)
	var pos Position
	pos.Line, _ = strconv.Atoi(line)
	pos.Column, _ = strconv.Atoi(column)
	pos.Offset, _ = strconv.Atoi(offset)
	return pos, true
}

// ErrorChain returns the template chain recorded on a cycle error
func ErrorChain(err error) []string {
	chain, ok := ErrorMetadata(err, MetaKeyChain)
	if !ok || chain == "" {
		return nil
	}
	return strings.Split(chain, ChainSeparator)
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := ErrorKindOf(err)
	return ok && k == kind
}

// IsTemplateNotFound reports whether err means a template does not exist
func IsTemplateNotFound(err error) bool {
	return isKind(err, ErrorKindTemplateNotFound)
}

// IsExtendsCycle reports whether err is an extends cycle
func IsExtendsCycle(err error) bool {
	return isKind(err, ErrorKindExtendsCycle)
}

// IsIncludeCycle reports whether err is an include cycle
func IsIncludeCycle(err error) bool {
	return isKind(err, ErrorKindIncludeCycle)
}

// IsUnbalancedArguments reports whether err is an unbalanced directive argument group
func IsUnbalancedArguments(err error) bool {
	return isKind(err, ErrorKindUnbalancedArguments)
}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageDriverNotFoundError creates an error for a missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{Message: ErrMsgStorageDriverNotFound, Name: name}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}
