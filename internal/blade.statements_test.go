package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_Compile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "conditional",
			input:    "@if($a)yes@elseif($b)maybe@else no@endif",
			expected: "<?php if($a): ?>yes<?php elseif($b): ?>maybe<?php else: ?>no<?php endif; ?>",
		},
		{
			name:     "directive glued to a word",
			input:    "@if($a)x@endif",
			expected: "<?php if($a): ?>x<?php endif; ?>",
		},
		{
			name:     "address with a dotted domain is text",
			input:    "write to admin@php.net or user@if.example",
			expected: "write to admin@php.net or user@if.example",
		},
		{
			name:     "nested parentheses depth three",
			input:    "@if(f(g(x), h(y)))",
			expected: "<?php if(f(g(x), h(y))): ?>",
		},
		{
			name:     "arguments keep following whitespace",
			input:    "@if($a)  text",
			expected: "<?php if($a): ?>  text",
		},
		{
			name:     "bare directive swallows spaces",
			input:    "@else   text",
			expected: "<?php else: ?>text",
		},
		{
			name:     "unless",
			input:    "@unless($a)x@endunless",
			expected: "<?php if (! ($a)): ?>x<?php endif; ?>",
		},
		{
			name:     "loops",
			input:    "@for($i = 0; $i < 3; $i++)@endfor@foreach($items as $item)@endforeach@while($x)@endwhile",
			expected: "<?php for($i = 0; $i < 3; $i++): ?><?php endfor; ?><?php foreach($items as $item): ?><?php endforeach; ?><?php while($x): ?><?php endwhile; ?>",
		},
		{
			name:     "isset and empty checks",
			input:    "@isset($a)@endisset@empty($b)@endempty",
			expected: "<?php if (isset($a)): ?><?php endif; ?><?php if (empty($b)): ?><?php endif; ?>",
		},
		{
			name:     "loop control",
			input:    "@break @break(2) @continue($i > 3)",
			expected: "<?php break; ?><?php break 2; ?> <?php if($i > 3) continue; ?>",
		},
		{
			name:     "php expression",
			input:    "@php($x = 1)",
			expected: "<?php $x = 1; ?>",
		},
		{
			name:     "php block",
			input:    "@php\n$x = 1;\n@endphp",
			expected: "<?php \n$x = 1;\n ?>",
		},
		{
			name:     "php block is not compiled further",
			input:    "@php\n$a = '@if(x)';\n@endphp",
			expected: "<?php \n$a = '@if(x)';\n ?>",
		},
		{
			name:     "json",
			input:    "var data = @json($data);",
			expected: "var data = <?php echo json_encode($data); ?>;",
		},
		{
			name:     "escaped directive",
			input:    "@@if($a) and @@foreach",
			expected: "@if($a) and @foreach",
		},
		{
			name:     "unknown directive passes through",
			input:    "@totallyMadeUp(1,2) @media print",
			expected: "@totallyMadeUp(1,2) @media print",
		},
		{
			name:     "unknown directive with unbalanced arguments is text",
			input:    "@foo( bar",
			expected: "@foo( bar",
		},
		{
			name:     "e-mail addresses stay untouched",
			input:    "admin@if.com",
			expected: "admin@if.com",
		},
		{
			name:     "section placeholder compiles to nothing",
			input:    "<p>@section('sidebar'):</p>",
			expected: "<p></p>",
		},
		{
			name:     "leftover layout directives compile to nothing",
			input:    "<p>@yield('x')</p>@stop",
			expected: "<p></p>",
		},
		{
			name:     "conditional without arguments is text",
			input:    "@if text",
			expected: "@if text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(t, nil)
			out, err := CompileStatements(c, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestStatements_Forelse(t *testing.T) {
	t.Run("with empty branch", func(t *testing.T) {
		c := newTestContext(t, nil)
		out, err := CompileStatements(c, "@forelse($items as $item)A@empty B@endforelse")
		require.NoError(t, err)
		assert.Equal(t,
			"<?php $__empty_1 = true; foreach($items as $item): $__empty_1 = false; ?>A"+
				"<?php endforeach; if ($__empty_1): ?>B<?php endif; ?>",
			out)
	})

	t.Run("without empty branch", func(t *testing.T) {
		c := newTestContext(t, nil)
		out, err := CompileStatements(c, "@forelse($a as $b)x@endforelse")
		require.NoError(t, err)
		assert.Equal(t,
			"<?php $__empty_1 = true; foreach($a as $b): $__empty_1 = false; ?>x<?php endforeach; ?>",
			out)
	})

	t.Run("flags are unique within a compilation", func(t *testing.T) {
		c := newTestContext(t, nil)
		out, err := CompileStatements(c,
			"@forelse($a as $x)@forelse($x as $y)@empty@endforelse@empty@endforelse@forelse($b as $z)@endforelse")
		require.NoError(t, err)
		assert.Contains(t, out, "$__empty_1 = true")
		assert.Contains(t, out, "$__empty_2 = true")
		assert.Contains(t, out, "$__empty_3 = true")
		assert.Contains(t, out, "if ($__empty_2): ?><?php endif; ?><?php endforeach; if ($__empty_1)")
	})

	t.Run("counters are per compilation", func(t *testing.T) {
		first := newTestContext(t, nil)
		second := newTestContext(t, nil)
		a, err := CompileStatements(first, "@forelse($a as $b)@endforelse")
		require.NoError(t, err)
		b, err := CompileStatements(second, "@forelse($a as $b)@endforelse")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestStatements_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		kind      ErrorKind
		directive string
		line      int
		column    int
	}{
		{
			name:      "unbalanced arguments",
			input:     "line one\n  @if($a",
			kind:      ErrorKindUnbalancedArguments,
			directive: "if",
			line:      2,
			column:    3,
		},
		{
			name:      "empty outside forelse",
			input:     "x @empty",
			kind:      ErrorKindMisplacedDirective,
			directive: "empty",
			line:      1,
			column:    3,
		},
		{
			name:      "endforelse without forelse",
			input:     "@endforelse",
			kind:      ErrorKindMisplacedDirective,
			directive: "endforelse",
			line:      1,
			column:    1,
		},
		{
			name:      "unterminated php block",
			input:     "\n@php $x = 1;",
			kind:      ErrorKindUnterminatedBlock,
			directive: "php",
			line:      2,
			column:    1,
		},
		{
			name:      "stray endphp",
			input:     "@endphp",
			kind:      ErrorKindMisplacedDirective,
			directive: "endphp",
			line:      1,
			column:    1,
		},
		{
			name:      "include without name",
			input:     "@include($name)",
			kind:      ErrorKindInvalidArgument,
			directive: "include",
			line:      1,
			column:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(t, nil)
			_, err := CompileStatements(c, tt.input)
			ce := requireCompileError(t, err, tt.kind)
			assert.Equal(t, tt.directive, ce.Directive)
			assert.Equal(t, "inline", ce.Path)
			assert.Equal(t, tt.line, ce.Position.Line)
			assert.Equal(t, tt.column, ce.Position.Column)
		})
	}
}

func TestStatements_CustomDirective(t *testing.T) {
	registry := DefaultDirectiveRegistry(nil)
	require.NoError(t, registry.Register("datetime", func(_ *CompilationContext, d Directive) (string, error) {
		return fmt.Sprintf("<?php echo %s->format('Y-m-d'); ?>", d.Inner()), nil
	}))
	require.NoError(t, registry.Register("if", func(_ *CompilationContext, d Directive) (string, error) {
		return "<?php if" + d.Args + " { ?>", nil
	}))

	c := newTestContext(t, nil)
	c.Config.Directives = registry
	out, err := CompileStatements(c, "@datetime($now) @if($a)")
	require.NoError(t, err)
	assert.Equal(t, "<?php echo $now->format('Y-m-d'); ?> <?php if($a) { ?>", out)
}

func TestStatements_HandlerErrorIsLocated(t *testing.T) {
	boom := errors.New("boom")
	registry := NewDirectiveRegistry(nil)
	require.NoError(t, registry.Register("fail", func(_ *CompilationContext, _ Directive) (string, error) {
		return "", NewCompileError(ErrorKindInvalidArgument, "bad").WithCause(boom)
	}))

	c := newTestContext(t, nil)
	c.Config.Directives = registry
	_, err := CompileStatements(c, "ab\n@fail")
	ce := requireCompileError(t, err, ErrorKindInvalidArgument)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fail", ce.Directive)
	assert.Equal(t, 2, ce.Position.Line)
}

func TestDirectiveRegistry_Register(t *testing.T) {
	registry := NewDirectiveRegistry(nil)
	noop := func(_ *CompilationContext, _ Directive) (string, error) { return "", nil }

	requireCompileError(t, registry.Register("", noop), ErrorKindInvalidDirective)
	requireCompileError(t, registry.Register("bad-name", noop), ErrorKindInvalidDirective)
	requireCompileError(t, registry.Register("nil", nil), ErrorKindInvalidDirective)

	require.NoError(t, registry.Register("b", noop))
	require.NoError(t, registry.Register("a", noop))
	assert.True(t, registry.Has("a"))
	assert.False(t, registry.Has("c"))
	assert.Equal(t, []string{"a", "b"}, registry.Names())
}

func TestDirectiveRegistry_Builtins(t *testing.T) {
	registry := DefaultDirectiveRegistry(nil)
	for _, name := range []string{
		DirectiveIf, DirectiveForelse, DirectiveInclude, DirectiveSection, DirectiveStack, DirectiveJSON,
	} {
		assert.True(t, registry.Has(name), name)
	}
}
