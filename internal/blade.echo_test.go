package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho_Compile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "escaped",
			input:    "Hello {{ $name }}!",
			expected: "Hello <?php echo e($name); ?>!",
		},
		{
			name:     "raw",
			input:    "{{{ $html }}}",
			expected: "<?php echo $html; ?>",
		},
		{
			name:     "raw next to escaped",
			input:    "{{{ $a }}}{{ $b }}",
			expected: "<?php echo $a; ?><?php echo e($b); ?>",
		},
		{
			name:     "escaped tag is emitted literally",
			input:    "@{{ $name }}",
			expected: "{{ $name }}",
		},
		{
			name:     "escaped raw tag is emitted literally",
			input:    "@{{{ $html }}}",
			expected: "{{{ $html }}}",
		},
		{
			name:     "default value escaped",
			input:    "{{ $x or 'Guest' }}",
			expected: "<?php echo e(isset($x) ? $x : 'Guest'); ?>",
		},
		{
			name:     "default value raw",
			input:    "{{{ $x or 'Guest' }}}",
			expected: "<?php echo isset($x) ? $x : 'Guest'; ?>",
		},
		{
			name:     "default value on property chain",
			input:    "{{ $user->name or 'Anon' }}",
			expected: "<?php echo e(isset($user->name) ? $user->name : 'Anon'); ?>",
		},
		{
			name:     "default value on index",
			input:    "{{ $row['title'] OR $fallback }}",
			expected: "<?php echo e(isset($row['title']) ? $row['title'] : $fallback); ?>",
		},
		{
			name:     "no default rewrite for expressions",
			input:    "{{ strtoupper($x) or 'y' }}",
			expected: "<?php echo e(strtoupper($x) or 'y'); ?>",
		},
		{
			name:     "no default rewrite inside strings",
			input:    "{{ 'black or white' }}",
			expected: "<?php echo e('black or white'); ?>",
		},
		{
			name:     "blank tag stays literal",
			input:    "{{ }}",
			expected: "{{ }}",
		},
		{
			name:     "unclosed tag stays literal",
			input:    "{{ $a",
			expected: "{{ $a",
		},
		{
			name:     "line break after tag is doubled",
			input:    "{{ $a }}\nnext",
			expected: "<?php echo e($a); ?>\n\nnext",
		},
		{
			name:     "multi-line expression",
			input:    "{{\n  $a\n}}",
			expected: "<?php echo e($a); ?>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(t, nil)
			assert.Equal(t, tt.expected, CompileEchoes(c, tt.input))
		})
	}
}

func TestEcho_CustomTags(t *testing.T) {
	tags, err := NewTagConfig("[[", "]]", "[!", "!]")
	require.NoError(t, err)

	c := newTestContext(t, nil)
	c.Config.Tags = tags
	c.Config.EscapeFunction = "htmlspecialchars"

	out := CompileEchoes(c, "[[ $a ]] [! $b !] {{ $c }}")
	assert.Equal(t, "<?php echo htmlspecialchars($a); ?> <?php echo $b; ?> {{ $c }}", out)
}

func TestEcho_PrefixOrder(t *testing.T) {
	// the raw opening tag is a prefix of the escaped one, so escaped runs first
	tags, err := NewTagConfig("<<<", ">>>", "<<", ">>")
	require.NoError(t, err)
	assert.Equal(t, []EchoKind{EchoEscaped, EchoRaw}, tags.EchoOrder())

	c := newTestContext(t, nil)
	c.Config.Tags = tags
	assert.Equal(t, "<?php echo e($a); ?> <?php echo $b; ?>", CompileEchoes(c, "<<< $a >>> << $b >>"))
}

func TestEcho_StripComments(t *testing.T) {
	c := newTestContext(t, nil)
	assert.Equal(t, "ab", StripComments(c, "a{{-- hidden {{ $x }} --}}b"))
	assert.Equal(t, "a{{-- open", StripComments(c, "a{{-- open"))
	assert.Equal(t, "plain", StripComments(c, "plain"))
}

func TestEcho_RewriteDefault(t *testing.T) {
	assert.Equal(t, "isset($a) ? $a : 'x'", RewriteDefault("$a or 'x'"))
	assert.Equal(t, "isset($a->b[1]) ? $a->b[1] : $c or $d", RewriteDefault("$a->b[1] or $c or $d"))
	assert.Equal(t, "$a . ' or b'", RewriteDefault("$a . ' or b'"))
	assert.Equal(t, "$order", RewriteDefault("$order"))
}

func TestTagConfig_New(t *testing.T) {
	t.Run("defaults compile raw first", func(t *testing.T) {
		tags := DefaultTagConfig()
		assert.Equal(t, []EchoKind{EchoRaw, EchoEscaped}, tags.EchoOrder())
		open, close := tags.Delimiters(EchoRaw)
		assert.Equal(t, "{{{", open)
		assert.Equal(t, "}}}", close)
	})

	t.Run("unrelated delimiters", func(t *testing.T) {
		tags, err := NewTagConfig("{{", "}}", "{!!", "!!}")
		require.NoError(t, err)
		assert.Equal(t, []EchoKind{EchoRaw, EchoEscaped}, tags.EchoOrder())
	})

	t.Run("literal without constructor", func(t *testing.T) {
		tags := TagConfig{EscapedOpen: "<<<", EscapedClose: ">>>", RawOpen: "<<", RawClose: ">>"}
		assert.Equal(t, []EchoKind{EchoEscaped, EchoRaw}, tags.EchoOrder())
	})

	t.Run("comment delimiters follow escaped tags", func(t *testing.T) {
		open, close := DefaultTagConfig().CommentDelimiters()
		assert.Equal(t, "{{--", open)
		assert.Equal(t, "--}}", close)
	})

	t.Run("empty delimiter", func(t *testing.T) {
		_, err := NewTagConfig("", "}}", "{{{", "}}}")
		requireCompileError(t, err, ErrorKindInvalidTagConfig)
	})

	t.Run("identical openers", func(t *testing.T) {
		_, err := NewTagConfig("{{", "}}", "{{", "}}}")
		requireCompileError(t, err, ErrorKindInvalidTagConfig)
	})
}
