package blade

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itsatony/go-blade/internal"
)

// TagConfig holds the delimiter pairs for escaped and raw echo tags.
// It is an immutable value; build it with NewTagConfig or LoadTagConfig.
type TagConfig = internal.TagConfig

// EchoKind identifies escaped or raw echo tags
type EchoKind = internal.EchoKind

// Echo kinds
const (
	EchoEscaped = internal.EchoEscaped
	EchoRaw     = internal.EchoRaw
)

// DefaultTagConfig returns the {{ }} / {{{ }}} configuration
func DefaultTagConfig() TagConfig {
	return internal.DefaultTagConfig()
}

// NewTagConfig validates the delimiters and fixes the echo pass order
func NewTagConfig(escapedOpen, escapedClose, rawOpen, rawClose string) (TagConfig, error) {
	cfg, err := internal.NewTagConfig(escapedOpen, escapedClose, rawOpen, rawClose)
	if err != nil {
		return TagConfig{}, translateError(err, "")
	}
	return cfg, nil
}

// Settings is the file form of the compiler configuration.
//
//	tags:
//	  escaped_open: "{{"
//	  escaped_close: "}}"
//	  raw_open: "{{{"
//	  raw_close: "}}}"
//	escape_function: e
//	max_depth: 64
//	search_roots: [views]
//	extensions: [.blade.php]
//	concurrency: 4
//	cache:
//	  ttl: 5m
type Settings struct {
	Tags           TagSettings    `yaml:"tags"`
	EscapeFunction string         `yaml:"escape_function"`
	MaxDepth       int            `yaml:"max_depth"`
	SearchRoots    []string       `yaml:"search_roots"`
	Extensions     []string       `yaml:"extensions"`
	Concurrency    int            `yaml:"concurrency"`
	Cache          *CacheSettings `yaml:"cache"`
}

// TagSettings holds the echo delimiters. Empty values take the defaults.
type TagSettings struct {
	EscapedOpen  string `yaml:"escaped_open"`
	EscapedClose string `yaml:"escaped_close"`
	RawOpen      string `yaml:"raw_open"`
	RawClose     string `yaml:"raw_close"`
}

// CacheSettings enables a CachedStorage around the configured storage
type CacheSettings struct {
	TTL              time.Duration `yaml:"ttl"`
	MaxEntries       int           `yaml:"max_entries"`
	NegativeCacheTTL time.Duration `yaml:"negative_ttl"`
}

// CacheConfig converts the settings into a CacheConfig
func (c CacheSettings) CacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              c.TTL,
		MaxEntries:       c.MaxEntries,
		NegativeCacheTTL: c.NegativeCacheTTL,
	}
}

// LoadTagConfig builds the tag configuration from settings. Missing values
// default to {{ }} and {{{ }}}.
func LoadTagConfig(settings Settings) (TagConfig, error) {
	t := settings.Tags
	return NewTagConfig(
		orDefault(t.EscapedOpen, internal.DefaultEscapedOpen),
		orDefault(t.EscapedClose, internal.DefaultEscapedClose),
		orDefault(t.RawOpen, internal.DefaultRawOpen),
		orDefault(t.RawClose, internal.DefaultRawClose),
	)
}

// ParseSettings decodes YAML settings
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, NewConfigError(ErrMsgSettingsParseFailed, err)
	}
	return s, nil
}

// LoadSettingsFile reads and decodes a YAML settings file
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, NewConfigError(ErrMsgSettingsReadFailed, err)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
