package blade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTemplates writes name -> source files below root, creating directories
func writeTemplates(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, source := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	}
}

func TestNewFilesystemStorage(t *testing.T) {
	t.Run("no roots", func(t *testing.T) {
		_, err := NewFilesystemStorage(nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgFilesystemNoRoots)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := NewFilesystemStorage([]string{filepath.Join(t.TempDir(), "nope")}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgFilesystemRootInvalid)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		_, err := NewFilesystemStorage([]string{file}, nil)
		require.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		storage, err := NewFilesystemStorage([]string{t.TempDir()}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{DefaultExtension}, storage.Extensions())
		assert.True(t, filepath.IsAbs(storage.Roots()[0]))
	})
}

func TestFilesystemStorage_Resolve(t *testing.T) {
	primary, fallback := t.TempDir(), t.TempDir()
	writeTemplates(t, primary, map[string]string{
		"pages/home.blade.php": "primary home",
	})
	writeTemplates(t, fallback, map[string]string{
		"pages/home.blade.php":    "fallback home",
		"pages/contact.blade.php": "fallback contact",
		"mail/plain.txt":          "plain text",
	})

	storage, err := NewFilesystemStorage([]string{primary, fallback}, []string{".blade.php", ".txt"})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		expected string
	}{
		{"pages.home", filepath.Join(primary, "pages", "home.blade.php")},
		{"pages/home", filepath.Join(primary, "pages", "home.blade.php")},
		{"pages/home.blade.php", filepath.Join(primary, "pages", "home.blade.php")},
		{"pages.contact", filepath.Join(fallback, "pages", "contact.blade.php")},
		{"mail.plain", filepath.Join(fallback, "mail", "plain.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := storage.Resolve(ctx, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := storage.Resolve(ctx, "pages.gone")
		assert.True(t, IsTemplateNotFound(err))
	})

	t.Run("directory is not a template", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(primary, "dir.blade.php"), 0o755))
		_, err := storage.Resolve(ctx, "dir")
		assert.True(t, IsTemplateNotFound(err))
	})

	t.Run("parent segments rejected", func(t *testing.T) {
		_, err := storage.Resolve(ctx, "../secret")
		kind, _ := ErrorKindOf(err)
		assert.Equal(t, ErrorKindInvalidTemplateName, kind)
	})
}

func TestFilesystemStorage_Read(t *testing.T) {
	root := t.TempDir()
	writeTemplates(t, root, map[string]string{"layouts/app.blade.php": "<html></html>"})
	storage, err := NewFilesystemStorage([]string{root}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := storage.Resolve(ctx, "layouts.app")
	require.NoError(t, err)

	src, err := storage.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "layouts/app", src.Name)
	assert.Equal(t, "<html></html>", src.Source)
	assert.False(t, src.ModTime.IsZero())

	t.Run("outside roots", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "x.blade.php")
		require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
		_, err := storage.Read(ctx, outside)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgFilesystemOutsideRoot)
	})

	t.Run("removed file", func(t *testing.T) {
		_, err := storage.Read(ctx, filepath.Join(root, "gone.blade.php"))
		assert.True(t, IsTemplateNotFound(err))
	})
}

func TestFilesystemStorage_List(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeTemplates(t, first, map[string]string{
		"pages/home.blade.php": "a",
		"notes.md":             "ignored",
	})
	writeTemplates(t, second, map[string]string{
		"pages/home.blade.php":       "shadowed",
		"layouts/app.blade.php":      "b",
		"layouts/nested/x.blade.php": "c",
	})
	storage, err := NewFilesystemStorage([]string{first, second}, nil)
	require.NoError(t, err)

	names, err := storage.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"layouts/app", "layouts/nested/x", "pages/home"}, names)
}

func TestFilesystemStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	storage, err := NewFilesystemStorage([]string{root}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := storage.Save(ctx, "emails.welcome", "Hi {{ $name }}")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "emails", "welcome.blade.php"), saved.Path)

	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "Hi {{ $name }}", string(data))

	require.NoError(t, storage.Delete(ctx, "emails.welcome"))
	_, err = os.Stat(saved.Path)
	assert.True(t, os.IsNotExist(err))

	err = storage.Delete(ctx, "emails.welcome")
	assert.True(t, IsTemplateNotFound(err))
}

func TestFilesystemStorage_Closed(t *testing.T) {
	storage, err := NewFilesystemStorage([]string{t.TempDir()}, nil)
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	_, err = storage.Resolve(context.Background(), "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.List(context.Background())
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}

func TestFilesystemStorage_WithCompiler(t *testing.T) {
	root := t.TempDir()
	writeTemplates(t, root, map[string]string{
		"layouts/app.blade.php": "<main>@yield('content')</main>",
		"pages/home.blade.php":  "@extends('layouts.app')@section('content'){{ $title }}@endsection",
	})

	c, err := New(WithSearchRoots(root))
	require.NoError(t, err)
	defer c.Close()

	out, err := c.CompileTemplate(context.Background(), "pages.home")
	require.NoError(t, err)
	assert.Equal(t, "<main><?php echo e($title); ?></main>", out)

	// the compiler owns storage it created from search roots
	require.NoError(t, c.Close())
	_, err = c.Storage().List(context.Background())
	assert.Error(t, err)
}
