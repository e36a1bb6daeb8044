package blade

import "time"

// Version is the library version reported by the CLI
const Version = "0.1.0"

// Compiler defaults
const (
	// DefaultDisplayName names in-memory sources compiled without a display name
	DefaultDisplayName = "inline"

	// DefaultExtension is the file suffix tried when resolving template names
	DefaultExtension = ".blade.php"

	// DefaultConcurrency bounds CompileAll when no limit is configured
	DefaultConcurrency = 4

	// DefaultWatchDebounce groups filesystem events arriving within this window
	DefaultWatchDebounce = 100 * time.Millisecond
)

// Template name syntax
const (
	NameSeparatorDot   = "."
	NameSeparatorSlash = "/"
	NameParentSegment  = ".."
	NameBackslash      = `\`
)

// Error code constants for categorization
const (
	ErrCodeCompile = "BLADE_COMPILE"
	ErrCodeLayout  = "BLADE_LAYOUT"
	ErrCodeConfig  = "BLADE_CONFIG"
	ErrCodeStorage = "BLADE_STORAGE"
)

// Metadata keys attached to errors
const (
	MetaKeyKind         = "kind"
	MetaKeyPath         = "path"
	MetaKeyDisplayName  = "display_name"
	MetaKeyDirective    = "directive"
	MetaKeyLine         = "line"
	MetaKeyColumn       = "column"
	MetaKeyOffset       = "offset"
	MetaKeyChain        = "chain"
	MetaKeyTemplateName = "template_name"
	MetaKeyReason       = "reason"
)

// ChainSeparator joins template paths in cycle chains
const ChainSeparator = " -> "

// Error message constants
const (
	ErrMsgTemplateNotFound        = "template not found"
	ErrMsgCompileFailed           = "template compilation failed"
	ErrMsgInvalidTemplateName     = "invalid template name"
	ErrMsgNoStorage               = "no template storage configured"
	ErrMsgInvalidMaxDepth         = "maximum depth must be positive"
	ErrMsgInvalidConcurrency      = "concurrency must be positive"
	ErrMsgInvalidEscapeFunction   = "escape function name cannot be empty"
	ErrMsgSettingsReadFailed      = "failed to read settings file"
	ErrMsgSettingsParseFailed     = "failed to parse settings"
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgFilesystemNoRoots       = "filesystem storage needs at least one root"
	ErrMsgFilesystemRootInvalid   = "filesystem root is not a directory"
	ErrMsgFilesystemReadFailed    = "failed to read template file"
	ErrMsgFilesystemWriteFailed   = "failed to write template file"
	ErrMsgFilesystemOutsideRoot   = "template path is outside the search roots"
	ErrMsgWatcherCreateFailed     = "failed to create filesystem watcher"
	ErrMsgWatcherAddFailed        = "failed to watch directory"
	ErrMsgWatcherClosed           = "watcher is closed"
	ErrMsgWatcherRunning          = "watcher already started"
)

// Postgres error message constants
const (
	ErrMsgPostgresEmptyConnString   = "postgres connection string is empty"
	ErrMsgPostgresConnectionFailed  = "postgres connection failed"
	ErrMsgPostgresQueryFailed       = "postgres query failed"
	ErrMsgPostgresTransactionFailed = "postgres transaction failed"
	ErrMsgPostgresMigrationFailed   = "postgres migration failed"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// FilesystemRootSeparator splits the roots of a filesystem connection string
const FilesystemRootSeparator = ","

// Filesystem permissions used by Save
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
)

// Postgres defaults
const (
	PostgresDriverName             = "postgres"
	PostgresTablePrefix            = "blade_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// Cache defaults
const (
	CacheDefaultTTL              = 5 * time.Minute
	CacheDefaultMaxEntries       = 1000
	CacheDefaultNegativeCacheTTL = 30 * time.Second
)

// Log message constants
const (
	LogMsgCompilerCreated    = "compiler created"
	LogMsgCompileStart       = "compiling template"
	LogMsgCompileEnd         = "template compiled"
	LogMsgCompileFailed      = "template compilation failed"
	LogMsgCompileAllStart    = "precompiling templates"
	LogMsgCompileAllEnd      = "templates precompiled"
	LogMsgStorageOpened      = "template storage opened"
	LogMsgCacheHit           = "template cache hit"
	LogMsgCacheMiss          = "template cache miss"
	LogMsgCacheEvict         = "template cache entry evicted"
	LogMsgCacheInvalidateAll = "template cache cleared"
	LogMsgWatcherStart       = "watching template roots"
	LogMsgWatcherStop        = "template watcher stopped"
	LogMsgWatcherEvent       = "template file changed"
	LogMsgWatcherFlush       = "template changes flushed"
	LogMsgWatcherError       = "template watcher error"
	LogMsgWatcherHandlerErr  = "template change handler failed"
)

// Log field names
const (
	LogFieldCompileID    = "compile_id"
	LogFieldPath         = "path"
	LogFieldTemplateName = "template_name"
	LogFieldDisplayName  = "display_name"
	LogFieldOutput       = "output_length"
	LogFieldCount        = "count"
	LogFieldDuration     = "duration"
	LogFieldDriver       = "driver"
	LogFieldRoots        = "roots"
	LogFieldKey          = "key"
	LogFieldOp           = "op"
	LogFieldConcurrency  = "concurrency"
	LogFieldDirectives   = "directive_count"
)
