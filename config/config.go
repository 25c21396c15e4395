// ABOUTME: Configuration for the specserve binary: defaults, YAML/TOML files, and SPECSERVE_* env overrides.
// ABOUTME: Validation rejects empty directories, entries with a leading slash, and non-positive intervals.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoDir          = errors.New("content directory must not be empty")
	ErrNoAddr         = errors.New("listen address must not be empty")
	ErrEntrySlash     = errors.New("entry must be relative to the root, without a leading slash")
	ErrBadInterval    = errors.New("poll interval must be positive")
	ErrUnknownFormat  = errors.New("unsupported config file extension (want .yaml, .yml or .toml)")
	ErrNegativeBounce = errors.New("debounce must not be negative")
)

// Duration is a time.Duration written as "500ms" or "2s" in every config source.
// TOML has no duration type, so decoding goes through UnmarshalText.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config holds everything the binary needs to serve a directory.
type Config struct {
	Addr           string   `yaml:"addr" toml:"addr" env:"ADDR"`
	Dir            string   `yaml:"dir" toml:"dir" env:"DIR"`
	Entry          string   `yaml:"entry" toml:"entry" env:"ENTRY"`
	Ignore         []string `yaml:"ignore" toml:"ignore" env:"IGNORE" envSeparator:","`
	Markdown       bool     `yaml:"markdown" toml:"markdown" env:"MARKDOWN"`
	Watch          bool     `yaml:"watch" toml:"watch" env:"WATCH"`
	PollInterval   Duration `yaml:"poll_interval" toml:"poll_interval" env:"POLL_INTERVAL"`
	Debounce       Duration `yaml:"debounce" toml:"debounce" env:"DEBOUNCE"`
	RequestLogging bool     `yaml:"request_logging" toml:"request_logging" env:"REQUEST_LOGGING"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Addr:           "127.0.0.1:8888",
		Dir:            ".",
		Entry:          "specRunner.html",
		Ignore:         []string{"node_modules"},
		Watch:          true,
		PollInterval:   Duration(500 * time.Millisecond),
		Debounce:       Duration(100 * time.Millisecond),
		RequestLogging: true,
	}
}

// LoadFile overlays the file at path onto cfg. The format follows the extension.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SPECSERVE_* environment variables onto cfg. Unset
// variables leave the existing values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SPECSERVE_"}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Validate checks that cfg can be served.
func (c Config) Validate() error {
	if c.Addr == "" {
		return ErrNoAddr
	}
	if c.Dir == "" {
		return ErrNoDir
	}
	if strings.HasPrefix(c.Entry, "/") {
		return fmt.Errorf("%w: %q", ErrEntrySlash, c.Entry)
	}
	if c.Watch && c.PollInterval <= 0 {
		return ErrBadInterval
	}
	if c.Debounce < 0 {
		return ErrNegativeBounce
	}
	return nil
}
