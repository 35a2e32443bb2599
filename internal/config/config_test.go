package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Binary != DefaultBinary {
		t.Errorf("Binary = %q, want %q", cfg.Binary, DefaultBinary)
	}
	if cfg.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", cfg.Timeout(), DefaultTimeout)
	}
	if cfg.GraceInterval.Duration != DefaultGraceInterval {
		t.Errorf("GraceInterval = %v, want %v", cfg.GraceInterval.Duration, DefaultGraceInterval)
	}
	if cfg.ChannelCapacity != DefaultChannelCapacity {
		t.Errorf("ChannelCapacity = %d, want %d", cfg.ChannelCapacity, DefaultChannelCapacity)
	}
}

func TestLoadPartialFileBackfillsDefaults(t *testing.T) {
	path := writeConfig(t, "model: gemini-2.5-pro\ntimeout_seconds: 60\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want 1m0s", cfg.Timeout())
	}
	if cfg.Binary != DefaultBinary {
		t.Errorf("Binary = %q, want default backfilled", cfg.Binary)
	}
	if cfg.ChannelCapacity != DefaultChannelCapacity {
		t.Errorf("ChannelCapacity = %d, want default backfilled", cfg.ChannelCapacity)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"binary: /usr/local/bin/gemini",
		"grace_interval: 500ms",
		"channel_capacity: 42",
		"debug: true",
		"log_file: /tmp/gemini-mcp.log",
	}, "\n"))
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Binary != "/usr/local/bin/gemini" {
		t.Errorf("Binary = %q", cfg.Binary)
	}
	if cfg.GraceInterval.Duration != 500*time.Millisecond {
		t.Errorf("GraceInterval = %v", cfg.GraceInterval.Duration)
	}
	if cfg.ChannelCapacity != 42 {
		t.Errorf("ChannelCapacity = %d", cfg.ChannelCapacity)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
	if cfg.LogFile != "/tmp/gemini-mcp.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "binary: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed YAML")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "grace_interval: not-a-duration\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() accepted an invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v", err)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration{750 * time.Millisecond}
	data, err := yaml.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Duration
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Duration != d.Duration {
		t.Errorf("round trip = %v, want %v", back.Duration, d.Duration)
	}
}
