package blade

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSettingsYAML = `
tags:
  escaped_open: "[["
  escaped_close: "]]"
escape_function: htmlspecialchars
max_depth: 16
search_roots:
  - views
  - vendor/views
extensions: [.blade.php, .html]
concurrency: 8
cache:
  ttl: 2m
  max_entries: 50
  negative_ttl: 10s
`

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(testSettingsYAML))
	require.NoError(t, err)

	assert.Equal(t, "[[", s.Tags.EscapedOpen)
	assert.Equal(t, "]]", s.Tags.EscapedClose)
	assert.Empty(t, s.Tags.RawOpen)
	assert.Equal(t, "htmlspecialchars", s.EscapeFunction)
	assert.Equal(t, 16, s.MaxDepth)
	assert.Equal(t, []string{"views", "vendor/views"}, s.SearchRoots)
	assert.Equal(t, []string{".blade.php", ".html"}, s.Extensions)
	assert.Equal(t, 8, s.Concurrency)

	require.NotNil(t, s.Cache)
	cache := s.Cache.CacheConfig()
	assert.Equal(t, 2*time.Minute, cache.TTL)
	assert.Equal(t, 50, cache.MaxEntries)
	assert.Equal(t, 10*time.Second, cache.NegativeCacheTTL)
}

func TestParseSettings_Invalid(t *testing.T) {
	_, err := ParseSettings([]byte("max_depth: [not, a, number]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSettingsParseFailed)

	kind, ok := ErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindInvalidConfig, kind)
}

func TestParseSettings_Empty(t *testing.T) {
	s, err := ParseSettings(nil)
	require.NoError(t, err)
	assert.Nil(t, s.Cache)
	assert.Zero(t, s.MaxDepth)
}

func TestLoadTagConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tags, err := LoadTagConfig(Settings{})
		require.NoError(t, err)
		assert.Equal(t, DefaultTagConfig(), tags)
	})

	t.Run("partial override", func(t *testing.T) {
		tags, err := LoadTagConfig(Settings{Tags: TagSettings{RawOpen: "{!!", RawClose: "!!}"}})
		require.NoError(t, err)
		assert.Equal(t, "{{", tags.EscapedOpen)
		assert.Equal(t, "{!!", tags.RawOpen)
		assert.Equal(t, []EchoKind{EchoRaw, EchoEscaped}, tags.EchoOrder())
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := LoadTagConfig(Settings{Tags: TagSettings{RawOpen: "{{"}})
		require.Error(t, err)
		kind, _ := ErrorKindOf(err)
		assert.Equal(t, ErrorKindInvalidTagConfig, kind)
	})
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blade.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSettingsYAML), 0o644))

	s, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16, s.MaxDepth)

	_, err = LoadSettingsFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSettingsReadFailed)
}

func TestWithSettings_SearchRootsAndCache(t *testing.T) {
	root := t.TempDir()
	writeTemplates(t, root, map[string]string{"home.html": "[[ $a ]]"})

	c, err := New(WithSettings(Settings{
		Tags:        TagSettings{EscapedOpen: "[[", EscapedClose: "]]"},
		SearchRoots: []string{root},
		Extensions:  []string{".html"},
		Concurrency: 2,
		Cache:       &CacheSettings{TTL: time.Minute},
	}))
	require.NoError(t, err)
	defer c.Close()

	_, cached := c.Storage().(*CachedStorage)
	assert.True(t, cached)

	results, err := c.CompileAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"home": "<?php echo e($a); ?>"}, results)
}
