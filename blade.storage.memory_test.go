package blade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_SaveAndRead(t *testing.T) {
	storage := NewMemoryStorage()
	defer storage.Close()
	ctx := context.Background()

	saved, err := storage.Save(ctx, "layouts.app", "<html>@yield('content')</html>")
	require.NoError(t, err)
	assert.Equal(t, "layouts/app", saved.Name)
	assert.Equal(t, "layouts/app", saved.Path)
	assert.Equal(t, 1, saved.Version)
	assert.False(t, saved.ModTime.IsZero())

	path, err := storage.Resolve(ctx, "layouts.app")
	require.NoError(t, err)
	assert.Equal(t, "layouts/app", path)

	src, err := storage.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "<html>@yield('content')</html>", src.Source)

	t.Run("saving again bumps the version", func(t *testing.T) {
		saved, err := storage.Save(ctx, "layouts/app", "<html></html>")
		require.NoError(t, err)
		assert.Equal(t, 2, saved.Version)

		src, err := storage.Read(ctx, "layouts/app")
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", src.Source)
	})

	t.Run("read returns a copy", func(t *testing.T) {
		src, err := storage.Read(ctx, "layouts/app")
		require.NoError(t, err)
		src.Source = "mutated"

		again, err := storage.Read(ctx, "layouts/app")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Source)
	})
}

func TestMemoryStorage_NotFound(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	_, err := storage.Resolve(ctx, "missing")
	assert.True(t, IsTemplateNotFound(err))

	_, err = storage.Read(ctx, "missing")
	assert.True(t, IsTemplateNotFound(err))

	err = storage.Delete(ctx, "missing")
	assert.True(t, IsTemplateNotFound(err))

	_, err = storage.Resolve(ctx, "../escape")
	kind, _ := ErrorKindOf(err)
	assert.Equal(t, ErrorKindInvalidTemplateName, kind)
}

func TestMemoryStorage_ListAndDelete(t *testing.T) {
	storage, err := NewMemoryStorageFrom(map[string]string{
		"pages.home":  "home",
		"layouts.app": "app",
		"pages/about": "about",
	})
	require.NoError(t, err)
	ctx := context.Background()

	names, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"layouts/app", "pages/about", "pages/home"}, names)

	require.NoError(t, storage.Delete(ctx, "pages.about"))
	names, err = storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"layouts/app", "pages/home"}, names)
}

func TestMemoryStorage_InvalidSeed(t *testing.T) {
	_, err := NewMemoryStorageFrom(map[string]string{"/absolute": "x"})
	require.Error(t, err)
}

func TestMemoryStorage_Closed(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	_, err := storage.Save(ctx, "a", "b")
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	_, err = storage.Resolve(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.Read(ctx, "a")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.List(ctx)
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
	_, err = storage.Save(ctx, "a", "b")
	assert.Contains(t, err.Error(), ErrMsgStorageClosed)
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	storage := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.Resolve(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = storage.Save(ctx, "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStorage_ImplementsWritableStorage(t *testing.T) {
	var _ WritableStorage = NewMemoryStorage()
	var _ WritableStorage = &FilesystemStorage{}
	var _ WritableStorage = &PostgresStorage{}
}
