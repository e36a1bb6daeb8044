package main

import "os"

// CLI metadata
const (
	CLIName        = "blade"
	CLIShort       = "Compile Blade-style templates into PHP"
	VersionUnknown = "unknown"
)

// Command names
const (
	CmdNameCompile  = "compile"
	CmdNameValidate = "validate"
	CmdNameTokens   = "tokens"
	CmdNameVersion  = "version"
)

// Flag names
const (
	FlagConfig      = "config"
	FlagRoot        = "root"
	FlagRootShort   = "r"
	FlagExtension   = "ext"
	FlagEscape      = "escape"
	FlagMaxDepth    = "max-depth"
	FlagDriver      = "driver"
	FlagDSN         = "dsn"
	FlagLogLevel    = "log-level"
	FlagTemplate    = "template"
	FlagTemplateSh  = "t"
	FlagOutput      = "output"
	FlagOutputShort = "o"
	FlagOutDir      = "out-dir"
	FlagAll         = "all"
	FlagWatch       = "watch"
	FlagFormat      = "format"
	FlagFormatShort = "f"
	FlagName        = "name"
)

// Flag defaults
const (
	FlagDefaultOutput   = ""
	FlagDefaultFormat   = OutputFormatText
	FlagDefaultLogLevel = "error"
	DefaultSearchRoot   = "."
	DefaultOutputExt    = ".php"
)

// Configuration keys, shared by the config file, env vars and bound flags
const (
	KeySearchRoots       = "search_roots"
	KeyExtensions        = "extensions"
	KeyEscapeFunction    = "escape_function"
	KeyMaxDepth          = "max_depth"
	KeyConcurrency       = "concurrency"
	KeyTagsEscapedOpen   = "tags.escaped_open"
	KeyTagsEscapedClose  = "tags.escaped_close"
	KeyTagsRawOpen       = "tags.raw_open"
	KeyTagsRawClose      = "tags.raw_close"
	KeyCache             = "cache"
	KeyCacheTTL          = "cache.ttl"
	KeyCacheMaxEntries   = "cache.max_entries"
	KeyCacheNegativeTTL  = "cache.negative_ttl"
	KeyStorageDriver     = "storage.driver"
	KeyStorageDSN        = "storage.dsn"
	KeyLogLevel          = "log_level"
	EnvPrefix            = "BLADE"
	EnvConfigFile        = "BLADE_CONFIG_FILE"
	ConfigFileName       = ".blade"
	ConfigFileType       = "yaml"
	ConfigSearchPath     = "."
	InputSourceStdin     = "-"
	DisplayNameStdin     = "stdin"
	OutputFormatText     = "text"
	OutputFormatJSON     = "json"
	FilePermissions      = os.FileMode(0o644)
	DirPermissions       = os.FileMode(0o755)
	JSONIndent           = "  "
	ValidationStatusOK   = "ok"
	ValidationStatusFail = "error"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
	ExitCodeConfigError     = 5
)

// Error messages
const (
	ErrMsgInvalidFormat      = "invalid output format, expected text or json"
	ErrMsgNoInput            = "no template given, pass a name, --all or --template"
	ErrMsgConflictingInput   = "--template cannot be combined with template names or --all"
	ErrMsgMultipleNeedOutDir = "compiling several templates requires --out-dir"
	ErrMsgWatchNeedsOutDir   = "--watch requires --out-dir"
	ErrMsgReadInputFailed    = "failed to read template"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgConfigFailed       = "failed to load configuration"
	ErrMsgInvalidLogLevel    = "invalid log level"
	ErrMsgCompilerFailed     = "failed to create compiler"
	ErrMsgCompileFailed      = "compilation failed"
	ErrMsgValidationFailed   = "validation failed"
	ErrMsgWatchFailed        = "watch failed"
	ErrMsgEncodeFailed       = "failed to encode output"
)

// Output formats
const (
	FmtErrorWithCause  = "%s: %v\n"
	FmtValidationOK    = "%s: ok\n"
	FmtValidationError = "%s: %s\n"
	FmtWrote           = "wrote %s\n"
	FmtToken           = "%-7s %6d %q\n"
	FmtVersionText     = "%s version %s\n  commit: %s\n  go:     %s\n"
)

// Help texts
const (
	HelpLong = `blade compiles Blade-style templates into plain PHP.

Templates are looked up by dotted name (pages.home) under the search roots,
or in a storage driver selected with --driver and --dsn.

Configuration is read from .blade.yaml in the working directory, the file
named by --config or BLADE_CONFIG_FILE, and BLADE_* environment variables
such as BLADE_ESCAPE_FUNCTION or BLADE_TAGS_ESCAPED_OPEN. Flags win over
environment variables, which win over the config file.`

	HelpCompileShort = "Compile templates to PHP"
	HelpCompileLong  = `Compile one template to stdout or --output, several templates into
--out-dir, or a single file or stdin given with --template.

Examples:
  blade compile pages.home
  blade compile -r views pages.home -o home.php
  blade compile --all --out-dir build
  blade compile --all --out-dir build --watch
  cat page.blade.php | blade compile -t -`

	HelpValidateShort = "Check that templates compile"
	HelpValidateLong  = `Compile templates without writing output and report every failure.
With no names, every template in the storage is checked.`

	HelpTokensShort  = "Show how a template splits into host code and literal text"
	HelpVersionShort = "Print version information"

	HelpFlagConfig   = "config file (default is .blade.yaml, can also use BLADE_CONFIG_FILE)"
	HelpFlagRoot     = "template search root, repeatable"
	HelpFlagExt      = "template file extension, repeatable"
	HelpFlagEscape   = "function wrapped around escaped echoes"
	HelpFlagMaxDepth = "maximum include and extends nesting"
	HelpFlagDriver   = "storage driver (filesystem, memory, postgres)"
	HelpFlagDSN      = "storage driver connection string"
	HelpFlagLogLevel = "log level (debug, info, warn, error)"
	HelpFlagTemplate = "compile a template file instead of a named template, - for stdin"
	HelpFlagOutput   = "output file (default stdout)"
	HelpFlagOutDir   = "directory receiving one .php file per template"
	HelpFlagAll      = "compile every template in the storage"
	HelpFlagWatch    = "recompile when templates change, until interrupted"
	HelpFlagFormat   = "output format (text, json)"
	HelpFlagName     = "display name used in errors for --template input"
)
