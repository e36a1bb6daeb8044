// Package blade compiles Blade-style view templates into PHP source.
//
// Templates mix host code with template markup. Host code regions (<?php ... ?>)
// are copied through untouched; everything else is compiled:
//
//	@extends('layouts.app')
//
//	@section('content')
//	    @foreach($users as $user)
//	        <li>{{ $user->name }}</li>
//	    @endforeach
//	@endsection
//
// # Basic Usage
//
// Create a compiler over a directory of *.blade.php files and compile by name:
//
//	compiler, err := blade.New(blade.WithSearchRoots("views"))
//	php, err := compiler.CompileTemplate(ctx, "pages.home")
//
// In-memory text is compiled with CompileString; layouts and includes it
// references still come from storage.
//
// # Pipeline
//
// A compilation first merges a template into its layout chain (@extends,
// @section, @yield, @parent, @push/@stack), then splits the result into host code
// and literal regions. Each literal region has its comments stripped, its
// directives expanded and finally its echo tags rewritten:
//
//	{{ $name }}           <?php echo e($name); ?>
//	{{{ $html }}}         <?php echo $html; ?>
//	{{ $name or 'Guest' }} <?php echo e(isset($name) ? $name : 'Guest'); ?>
//	@{{ literal }}        {{ literal }}
//	{{-- comment --}}     (removed)
//
// Unknown directives are left as text. Output of a directive is never rescanned.
//
// # Storage
//
// Template sources come from a SourceStorage: FilesystemStorage, MemoryStorage
// or PostgresStorage, optionally wrapped in a CachedStorage. Drivers are also
// available by name through OpenStorage. A Watcher clears the cache when files
// change.
//
// # Error Handling
//
// Errors carry their kind, template and position as metadata:
//
//	_, err := compiler.CompileTemplate(ctx, "pages.home")
//	if blade.IsExtendsCycle(err) {
//	    fmt.Println(blade.ErrorChain(err))
//	}
//	if pos, ok := blade.ErrorPosition(err); ok {
//	    fmt.Println(pos.Line, pos.Column)
//	}
//
// # Configuration
//
// Customize the compiler with functional options or a YAML settings file:
//
//	settings, _ := blade.LoadSettingsFile("blade.yaml")
//	compiler, _ := blade.New(
//	    blade.WithSettings(settings),
//	    blade.WithEscapeFunction("htmlspecialchars"),
//	    blade.WithDirective("datetime", func(expr string) (string, error) {
//	        return "<?php echo (" + expr + ")->format('Y-m-d'); ?>", nil
//	    }),
//	    blade.WithLogger(logger),
//	)
package blade
