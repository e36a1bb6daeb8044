package internal

// Character constants
const (
	CharSigil       = '@'
	CharOpenParen   = '('
	CharCloseParen  = ')'
	CharColon       = ':'
	CharDot         = '.'
	CharComma       = ','
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBacktick    = '`'
	CharBackslash   = '\\'
	CharHash        = '#'
	CharOpenBracket = '['
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharUnderscore  = '_'
)

// Host code delimiters
const (
	StrCodeOpen      = "<?php"
	StrCodeOpenEcho  = "<?="
	StrCodeClose     = "?>"
	StrLineComment   = "//"
	StrBlockComment  = "/*"
	StrBlockEnd      = "*/"
	StrHeredocMarker = "<<<"
	StrSigil         = "@"
	StrCRLF          = "\r\n"
	StrNewline       = "\n"
)

// Default echo delimiters
const (
	DefaultEscapedOpen  = "{{"
	DefaultEscapedClose = "}}"
	DefaultRawOpen      = "{{{"
	DefaultRawClose     = "}}}"
	CommentMarker       = "--"
)

// DefaultEscapeFunction is the host function compiled escaped echoes call.
const DefaultEscapeFunction = "e"

// DefaultMaxDepth bounds extends chains and include nesting.
const DefaultMaxDepth = 64

// Directive names
const (
	DirectiveIf         = "if"
	DirectiveElseIf     = "elseif"
	DirectiveElse       = "else"
	DirectiveEndIf      = "endif"
	DirectiveUnless     = "unless"
	DirectiveEndUnless  = "endunless"
	DirectiveFor        = "for"
	DirectiveEndFor     = "endfor"
	DirectiveForeach    = "foreach"
	DirectiveEndForeach = "endforeach"
	DirectiveWhile      = "while"
	DirectiveEndWhile   = "endwhile"
	DirectiveForelse    = "forelse"
	DirectiveEmpty      = "empty"
	DirectiveEndForelse = "endforelse"
	DirectiveEndEmpty   = "endempty"
	DirectiveIsset      = "isset"
	DirectiveEndIsset   = "endisset"
	DirectiveBreak      = "break"
	DirectiveContinue   = "continue"
	DirectivePHP        = "php"
	DirectiveEndPHP     = "endphp"
	DirectiveInclude    = "include"
	DirectiveJSON       = "json"
	DirectiveExtends    = "extends"
	DirectiveSection    = "section"
	DirectiveEndSection = "endsection"
	DirectiveShow       = "show"
	DirectiveStop       = "stop"
	DirectiveOverwrite  = "overwrite"
	DirectiveYield      = "yield"
	DirectiveParent     = "parent"
	DirectivePush       = "push"
	DirectiveEndPush    = "endpush"
	DirectiveStack      = "stack"
)

// Generated host code fragments
const (
	CodeOpen            = "<?php "
	CodeClose           = " ?>"
	CodeIfFmt           = "<?php if%s: ?>"
	CodeElseIfFmt       = "<?php elseif%s: ?>"
	CodeElse            = "<?php else: ?>"
	CodeEndIf           = "<?php endif; ?>"
	CodeUnlessFmt       = "<?php if (! %s): ?>"
	CodeForFmt          = "<?php for%s: ?>"
	CodeEndFor          = "<?php endfor; ?>"
	CodeForeachFmt      = "<?php foreach%s: ?>"
	CodeEndForeach      = "<?php endforeach; ?>"
	CodeWhileFmt        = "<?php while%s: ?>"
	CodeEndWhile        = "<?php endwhile; ?>"
	CodeForelseFmt      = "<?php %[1]s = true; foreach%[2]s: %[1]s = false; ?>"
	CodeForelseEmptyFmt = "<?php endforeach; if (%s): ?>"
	CodeIssetFmt        = "<?php if (isset%s): ?>"
	CodeEmptyCheckFmt   = "<?php if (empty%s): ?>"
	CodeBreak           = "<?php break; ?>"
	CodeBreakLevelFmt   = "<?php break %s; ?>"
	CodeBreakIfFmt      = "<?php if%s break; ?>"
	CodeContinue        = "<?php continue; ?>"
	CodeContinueLvlFmt  = "<?php continue %s; ?>"
	CodeContinueIfFmt   = "<?php if%s continue; ?>"
	CodePHPExprFmt      = "<?php %s; ?>"
	CodeExtractFmt      = "<?php extract(%s); ?>"
	CodeJSONFmt         = "<?php echo json_encode%s; ?>"
	CodeEchoEscapedFmt  = "<?php echo %s(%s); ?>"
	CodeEchoRawFmt      = "<?php echo %s; ?>"
	CodeIssetDefaultFmt = "isset(%[1]s) ? %[1]s : %[2]s"
	ForelseFlagFmt      = "$__empty_%d"
)

// Log message constants
const (
	LogMsgTokenizerStart      = "starting tokenization"
	LogMsgTokenizerEnd        = "tokenization complete"
	LogMsgStatementsStart     = "compiling statements"
	LogMsgStatementsEnd       = "statements compiled"
	LogMsgDirectiveUnknown    = "unknown directive passed through"
	LogMsgDirectiveEscaped    = "escaped directive emitted literally"
	LogMsgDirectiveLayoutNoop = "layout directive survived assembly, compiled to nothing"
	LogMsgEchoesStart         = "compiling echoes"
	LogMsgEchoesEnd           = "echoes compiled"
	LogMsgAssembleStart       = "assembling template"
	LogMsgAssembleTerminal    = "template has no parent layout"
	LogMsgAssembleInject      = "injecting section into parent"
	LogMsgAssembleEnd         = "template assembled"
	LogMsgFlattenEnd          = "leftover placeholders resolved"
	LogMsgPushCarried         = "push block carried to parent layout"
	LogMsgIncludeStart        = "compiling include"
	LogMsgIncludeEnd          = "include compiled"
	LogMsgPipelineStart       = "starting compilation pipeline"
	LogMsgPipelineEnd         = "compilation pipeline complete"
	LogMsgRegistryCreated     = "directive registry created"
	LogMsgDirectiveRegistered = "directive registered"
	LogMsgDirectiveOverride   = "directive handler replaced"
)

// Log field names
const (
	LogFieldSource       = "source_length"
	LogFieldTokens       = "token_count"
	LogFieldPath         = "path"
	LogFieldParent       = "parent"
	LogFieldSection      = "section"
	LogFieldSections     = "section_count"
	LogFieldDirective    = "directive"
	LogFieldDepth        = "depth"
	LogFieldTemplateName = "template_name"
	LogFieldCompileID    = "compile_id"
	LogFieldOutput       = "output_length"
	LogFieldStacks       = "stack_count"
)

// Error message constants
const (
	ErrMsgUnbalancedArguments   = "directive arguments are not balanced"
	ErrMsgExtendsCycle          = "extends chain forms a cycle"
	ErrMsgIncludeCycle          = "include chain forms a cycle"
	ErrMsgDepthExceeded         = "maximum template nesting depth exceeded"
	ErrMsgUnterminatedSection   = "section block is missing its terminator"
	ErrMsgUnterminatedPush      = "push block is missing @endpush"
	ErrMsgUnterminatedRawBlock  = "@php block is missing @endphp"
	ErrMsgMisplacedEmpty        = "@empty used outside of @forelse"
	ErrMsgMisplacedEndForelse   = "@endforelse without matching @forelse"
	ErrMsgMisplacedEndPHP       = "@endphp without matching @php"
	ErrMsgTemplateNameArgument  = "directive expects a quoted template name"
	ErrMsgSectionNameArgument   = "directive expects a quoted section name"
	ErrMsgLoaderUnavailable     = "no template loader configured"
	ErrMsgEmptyDelimiter        = "echo delimiters cannot be empty"
	ErrMsgAmbiguousDelimiters   = "escaped and raw opening delimiters must differ"
	ErrMsgEmptyDirectiveName    = "directive name cannot be empty"
	ErrMsgInvalidDirectiveName  = "directive name must contain only letters, digits, and underscores"
	ErrMsgNilDirectiveHandler   = "directive handler cannot be nil"
	ErrMsgInvalidEscapeFunction = "escape function name cannot be empty"
	ErrMsgDirectiveFailed       = "custom directive failed"
)

// ErrorKind classifies compiler errors
type ErrorKind string

// Error kinds
const (
	ErrorKindUnbalancedArguments ErrorKind = "UnbalancedDirectiveArguments"
	ErrorKindExtendsCycle        ErrorKind = "ExtendsCycleDetected"
	ErrorKindIncludeCycle        ErrorKind = "IncludeCycleDetected"
	ErrorKindDepthExceeded       ErrorKind = "DepthExceeded"
	ErrorKindUnterminatedSection ErrorKind = "UnterminatedSection"
	ErrorKindUnterminatedBlock   ErrorKind = "UnterminatedRawBlock"
	ErrorKindMisplacedDirective  ErrorKind = "MisplacedDirective"
	ErrorKindInvalidArgument     ErrorKind = "InvalidDirectiveArgument"
	ErrorKindInvalidTagConfig    ErrorKind = "InvalidTagConfig"
	ErrorKindInvalidDirective    ErrorKind = "InvalidDirective"
	ErrorKindLoaderUnavailable   ErrorKind = "LoaderUnavailable"
	ErrorKindDirectiveFailed     ErrorKind = "DirectiveFailed"
)
