package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_CompileSource(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "directives and echoes",
			input:    "@foreach($users as $user)\n<li>{{ $user->name }}</li>\n@endforeach",
			expected: "<?php foreach($users as $user): ?>\n<li><?php echo e($user->name); ?></li>\n<?php endforeach; ?>",
		},
		{
			name:     "comments are removed before compilation",
			input:    "a{{-- @if($x) {{ $y }} --}}b",
			expected: "ab",
		},
		{
			name:     "directive output is never scanned for echoes",
			input:    "@php($a = '{{ $b }}')",
			expected: "<?php $a = '{{ $b }}'; ?>",
		},
		{
			name:     "escaped directive inside echo context",
			input:    "@@if {{ $x }}",
			expected: "@if <?php echo e($x); ?>",
		},
		{
			name:     "host code passes through",
			input:    "<?php if ($a): ?>{{ $a }}<?php endif; ?>",
			expected: "<?php if ($a): ?><?php echo e($a); ?><?php endif; ?>",
		},
		{
			name:     "directives inside host code are untouched",
			input:    "<?php $s = '@if($x) {{ $y }}'; ?>",
			expected: "<?php $s = '@if($x) {{ $y }}'; ?>",
		},
		{
			name:     "unknown directive",
			input:    "<p>@totallyMadeUp(1,2)</p>",
			expected: "<p>@totallyMadeUp(1,2)</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileString(t, nil, tt.input))
		})
	}
}

func TestPipeline_CodeOnlyIsIdempotent(t *testing.T) {
	inputs := []string{
		"<?php echo 1; ?>",
		"<?php\nforeach ($a as $b) {\n  echo \"@if($b) {{ $b }}\";\n}\n?>\n",
		"<?= $x ?><?php /* {{ }} */ ?>",
	}
	for _, input := range inputs {
		first := compileString(t, nil, input)
		second := compileString(t, nil, first)
		assert.Equal(t, input, first)
		assert.Equal(t, first, second)
	}
}

func TestPipeline_CompiledOutputIsStable(t *testing.T) {
	first := compileString(t, nil, "@if($a)\n{{ $a }}\n@endif")
	second := compileString(t, nil, first)
	assert.Equal(t, first, second)
}

func TestPipeline_Include(t *testing.T) {
	files := map[string]string{
		"partials/item.blade.php": "<li>{{ $item }}</li>",
		"partials/list.blade.php": "@forelse($items as $item)@include('partials.item')@empty<li>none</li>@endforelse",
		"loop/a.blade.php":        "A @include('loop.b')",
		"loop/b.blade.php":        "B @include('loop.a')",
	}

	t.Run("inlines compiled output", func(t *testing.T) {
		out := compileString(t, files, "<ul>@include('partials.item')</ul>")
		assert.Equal(t, "<ul><li><?php echo e($item); ?></li></ul>", out)
	})

	t.Run("extracts data", func(t *testing.T) {
		out := compileString(t, files, "@include('partials.item', ['item' => 1])")
		assert.Equal(t, "<?php extract(['item' => 1]); ?><li><?php echo e($item); ?></li>", out)
	})

	t.Run("shares forelse flags with the host template", func(t *testing.T) {
		out := compileString(t, files, "@forelse($a as $b)@endforelse @include('partials.list')")
		assert.Contains(t, out, "$__empty_1 = true")
		assert.Contains(t, out, "$__empty_2 = true")
		assert.Contains(t, out, "if ($__empty_2): ?><li>none</li>")
	})

	t.Run("cycle", func(t *testing.T) {
		c := newTestContext(t, files)
		_, err := CompileSource(c, "@include('loop.a')")
		ce := requireCompileError(t, err, ErrorKindIncludeCycle)
		assert.Equal(t, []string{"inline", "loop.a", "loop.b", "loop.a"}, ce.Chain)
		assert.Equal(t, DirectiveInclude, ce.Directive)
	})

	t.Run("missing template", func(t *testing.T) {
		c := newTestContext(t, files)
		_, err := CompileSource(c, "@include('nope')")
		assert.ErrorIs(t, err, errTestTemplateMissing)
	})

	t.Run("no loader", func(t *testing.T) {
		c := NewCompilationContext(context.Background(), PipelineConfig{}, "test", "inline", "inline")
		_, err := CompileSource(c, "@include('partials.item')")
		requireCompileError(t, err, ErrorKindLoaderUnavailable)
	})
}

func TestPipeline_ErrorPosition(t *testing.T) {
	c := newTestContext(t, nil)
	_, err := CompileSource(c, "<?php $a = 1; ?>\nline two\n   @foreach($items")
	ce := requireCompileError(t, err, ErrorKindUnbalancedArguments)
	assert.Equal(t, "inline", ce.Path)
	assert.Equal(t, "foreach", ce.Directive)
	assert.Equal(t, 3, ce.Position.Line)
	assert.Equal(t, 4, ce.Position.Column)
	assert.Contains(t, ce.Error(), "line 3, column 4")
}

func TestPipeline_ErrorPositionInLayoutChain(t *testing.T) {
	files := map[string]string{
		"root.blade.php": "<!doctype html>\n<html>\n<head>\n<title>@yield('title')</title>\n</head>\n" +
			"<body>\n<nav>menu</nav>\n<main>\n@yield('content')</main></body></html>",
		"leaf.blade.php": "@extends('root')\n@section('title', 'Leaf')\n" +
			"@section('content')\n<p>ok</p>\n   @if(x\n@endsection",
		"footer.blade.php": "<html>\n@yield('content')\n<footer>@foreach($links</footer>",
		"page.blade.php":   "@extends('footer')\n@section('content')\nline\nline\nline\n@endsection",
	}

	tests := []struct {
		name   string
		path   string
		origin string
		line   int
		column int
	}{
		{name: "error in the child template", path: "leaf.blade.php", origin: "leaf.blade.php", line: 5, column: 4},
		{name: "error in the layout", path: "page.blade.php", origin: "footer.blade.php", line: 3, column: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileFile(t, files, tt.path)
			ce := requireCompileError(t, err, ErrorKindUnbalancedArguments)
			assert.Equal(t, tt.origin, ce.Path)
			assert.Equal(t, tt.line, ce.Position.Line)
			assert.Equal(t, tt.column, ce.Position.Column)
		})
	}
}

func TestPipeline_ErrorPositionInInlineSource(t *testing.T) {
	files := map[string]string{
		"layout.blade.php": "<header>\n</header>\n@yield('body')",
	}
	c := newTestContext(t, files)
	_, err := CompileSource(c, "@extends('layout')\n@section('body')\n\n  @foreach($rows\n@endsection")
	ce := requireCompileError(t, err, ErrorKindUnbalancedArguments)
	assert.Equal(t, "inline", ce.Path)
	assert.Equal(t, 4, ce.Position.Line)
	assert.Equal(t, 3, ce.Position.Column)
}

func TestBuffer_Locate(t *testing.T) {
	var b bufferBuilder
	b.writeSource("a", 10, "xyz")
	b.writeValue("b", 4, "vv")
	b.writeBuffer(SourceBuffer("c", "ok"))
	buf := b.buffer()
	require.Equal(t, "xyzvvok", buf.Text)

	tests := []struct {
		offset int
		path   string
		at     int
	}{
		{0, "a", 10},
		{2, "a", 12},
		{3, "b", 4},
		{4, "b", 4},
		{5, "c", 0},
		{6, "c", 1},
	}
	for _, tt := range tests {
		path, at, ok := buf.Locate(tt.offset)
		require.True(t, ok)
		assert.Equal(t, tt.path, path, "offset %d", tt.offset)
		assert.Equal(t, tt.at, at, "offset %d", tt.offset)
	}

	_, _, ok := Buffer{}.Locate(0)
	assert.False(t, ok)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCompilationContext(ctx, PipelineConfig{Loader: mapLoader{}}, "test", "inline", "inline")
	_, err := CompileSource(c, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
