package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var errTestTemplateMissing = errors.New("template missing")

const testExtension = ".blade.php"

// mapLoader serves templates from a map keyed by path
type mapLoader map[string]string

func (l mapLoader) ResolvePath(_ context.Context, name string) (string, error) {
	path := strings.ReplaceAll(name, ".", "/") + testExtension
	if _, ok := l[path]; !ok {
		return "", errTestTemplateMissing
	}
	return path, nil
}

func (l mapLoader) LoadSource(_ context.Context, path string) (string, error) {
	source, ok := l[path]
	if !ok {
		return "", errTestTemplateMissing
	}
	return source, nil
}

func newTestContext(t *testing.T, files map[string]string) *CompilationContext {
	t.Helper()
	cfg := PipelineConfig{Loader: mapLoader(files), Logger: zaptest.NewLogger(t)}
	return NewCompilationContext(context.Background(), cfg, "test", "inline", "inline")
}

func newTestContextWithLogger(files map[string]string, logger *zap.Logger) *CompilationContext {
	cfg := PipelineConfig{Loader: mapLoader(files), Logger: logger}
	return NewCompilationContext(context.Background(), cfg, "test", "inline", "inline")
}

// compileString runs the full pipeline over source
func compileString(t *testing.T, files map[string]string, source string) string {
	t.Helper()
	out, err := CompileSource(newTestContext(t, files), source)
	require.NoError(t, err)
	return out
}

// compileFile runs the full pipeline over a stored template
func compileFile(t *testing.T, files map[string]string, path string) (string, error) {
	t.Helper()
	cfg := PipelineConfig{Loader: mapLoader(files), Logger: zaptest.NewLogger(t)}
	c := NewCompilationContext(context.Background(), cfg, "test", path, path)
	return CompileFile(c)
}

func requireCompileError(t *testing.T, err error, kind ErrorKind) *CompileError {
	t.Helper()
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "expected *CompileError, got %T: %v", err, err)
	require.Equal(t, kind, ce.Kind)
	return ce
}
