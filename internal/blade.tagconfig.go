package internal

import "strings"

// EchoKind identifies one of the two output tag forms
type EchoKind int

// Echo kinds
const (
	EchoEscaped EchoKind = iota
	EchoRaw
)

// String returns the echo kind name
func (k EchoKind) String() string {
	if k == EchoRaw {
		return "raw"
	}
	return "escaped"
}

// TagConfig holds the delimiter pairs for escaped and raw echo tags.
// It is a value type; the pass order is computed once by NewTagConfig.
type TagConfig struct {
	EscapedOpen  string
	EscapedClose string
	RawOpen      string
	RawClose     string

	order [2]EchoKind
}

// DefaultTagConfig returns the {{ }} / {{{ }}} configuration
func DefaultTagConfig() TagConfig {
	cfg, _ := NewTagConfig(DefaultEscapedOpen, DefaultEscapedClose, DefaultRawOpen, DefaultRawClose)
	return cfg
}

// NewTagConfig validates the delimiters and fixes the echo pass order.
// The tag whose opening delimiter is a strict prefix of the other's is compiled last.
func NewTagConfig(escapedOpen, escapedClose, rawOpen, rawClose string) (TagConfig, error) {
	cfg := TagConfig{
		EscapedOpen:  escapedOpen,
		EscapedClose: escapedClose,
		RawOpen:      rawOpen,
		RawClose:     rawClose,
	}
	if escapedOpen == "" || escapedClose == "" || rawOpen == "" || rawClose == "" {
		return cfg, NewCompileError(ErrorKindInvalidTagConfig, ErrMsgEmptyDelimiter)
	}
	if escapedOpen == rawOpen {
		return cfg, NewCompileError(ErrorKindInvalidTagConfig, ErrMsgAmbiguousDelimiters)
	}

	cfg.order = echoOrderFor(escapedOpen, rawOpen)
	return cfg, nil
}

func echoOrderFor(escapedOpen, rawOpen string) [2]EchoKind {
	if strings.HasPrefix(escapedOpen, rawOpen) {
		return [2]EchoKind{EchoEscaped, EchoRaw}
	}
	// covers rawOpen having escapedOpen as prefix, and unrelated delimiters
	return [2]EchoKind{EchoRaw, EchoEscaped}
}

// EchoOrder returns the order in which echo passes run
func (c TagConfig) EchoOrder() []EchoKind {
	order := c.order
	if order[0] == order[1] {
		// literal built without NewTagConfig
		order = echoOrderFor(c.EscapedOpen, c.RawOpen)
	}
	return []EchoKind{order[0], order[1]}
}

// Delimiters returns the open/close pair for an echo kind
func (c TagConfig) Delimiters(kind EchoKind) (string, string) {
	if kind == EchoRaw {
		return c.RawOpen, c.RawClose
	}
	return c.EscapedOpen, c.EscapedClose
}

// CommentDelimiters returns the comment tag pair derived from the escaped tags
func (c TagConfig) CommentDelimiters() (string, string) {
	return c.EscapedOpen + CommentMarker, CommentMarker + c.EscapedClose
}
