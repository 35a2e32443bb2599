// Package config loads the gemini-mcp configuration from
// ~/.gemini-mcp/config.yaml. A missing file yields the defaults, so the
// server runs with no setup at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file is absent or a key is unset.
const (
	// DefaultBinary is the gemini CLI executable name, resolved via PATH.
	DefaultBinary = "gemini"

	// DefaultTimeout is the wall-clock budget for a single invocation.
	DefaultTimeout = 300 * time.Second

	// DefaultGraceInterval is how long the relay waits after the
	// turn-completion sentinel before terminating the process, so any
	// final buffered output can flush.
	DefaultGraceInterval = 300 * time.Millisecond

	// DefaultChannelCapacity bounds the line channel between the output
	// relay and the consumer. A full channel drops the newest line rather
	// than blocking the relay.
	DefaultChannelCapacity = 10000
)

// Duration is a wrapper around time.Duration that implements YAML
// unmarshaling from human-readable strings like "300ms", "5m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Config holds the process-wide settings. Values are immutable after load
// and flow into each invocation; nothing here is mutated at runtime.
type Config struct {
	// Binary is the gemini CLI executable (name or absolute path).
	Binary string `yaml:"binary,omitempty"`

	// Model overrides the CLI's default model when the caller does not
	// pass one explicitly.
	Model string `yaml:"model,omitempty"`

	// TimeoutSeconds is the default per-invocation wall-clock budget.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// GraceInterval is the post-sentinel flush delay before terminate.
	GraceInterval Duration `yaml:"grace_interval,omitempty"`

	// ChannelCapacity bounds the relay's line channel.
	ChannelCapacity int `yaml:"channel_capacity,omitempty"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug,omitempty"`

	// LogFile redirects logs from stderr to a file when set.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Binary:          DefaultBinary,
		TimeoutSeconds:  int(DefaultTimeout.Seconds()),
		GraceInterval:   Duration{DefaultGraceInterval},
		ChannelCapacity: DefaultChannelCapacity,
	}
}

// Path returns the config file location (~/.gemini-mcp/config.yaml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".gemini-mcp", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error; the
// defaults are returned. Unset keys fall back to their defaults so a partial
// file stays valid.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = int(DefaultTimeout.Seconds())
	}
	if cfg.GraceInterval.Duration <= 0 {
		cfg.GraceInterval = Duration{DefaultGraceInterval}
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = DefaultChannelCapacity
	}

	return cfg, nil
}

// Timeout returns the default invocation budget as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
