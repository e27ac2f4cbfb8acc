// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telecap.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvMetricsListen, "")

	path := writeConfig(t, `
log_level: debug
pipeline:
  flush_interval: 5ms
  position_history: 20
sinks:
  - name: capture
    type: file
    path: /tmp/capture.mcap
    compression: lz4
  - name: live
    type: network
    host: 127.0.0.1
    port: 8765
    encoding: cbor
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Pipeline.FlushInterval != 5*time.Millisecond {
		t.Errorf("FlushInterval = %v, want 5ms", cfg.Pipeline.FlushInterval)
	}
	// Unset fields keep their defaults.
	if cfg.Pipeline.SyncTimeout != time.Second {
		t.Errorf("SyncTimeout = %v, want 1s", cfg.Pipeline.SyncTimeout)
	}
	if cfg.Pipeline.ImageQuality != 95 {
		t.Errorf("ImageQuality = %d, want 95", cfg.Pipeline.ImageQuality)
	}
	if len(cfg.Sinks) != 2 {
		t.Fatalf("len(Sinks) = %d, want 2", len(cfg.Sinks))
	}
	if cfg.Sinks[0].Compression != "lz4" || cfg.Sinks[1].Port != 8765 || cfg.Sinks[1].Encoding != "cbor" {
		t.Errorf("Sinks = %+v", cfg.Sinks)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeConfig(t, "sinks: [unterminated\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRequiresEnvironment(t *testing.T) {
	t.Setenv(EnvConfig, "")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), EnvConfig) {
		t.Errorf("Load() error = %v, want mention of %s", err, EnvConfig)
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level: info
metrics:
  listen: 127.0.0.1:9000
`)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvMetricsListen, "127.0.0.1:9464")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9464" {
		t.Errorf("Metrics.Listen = %q, want 127.0.0.1:9464", cfg.Metrics.Listen)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("TELECAP_TEST_DIR", "/data")

	tests := []struct {
		input string
		vars  map[string]string
		want  string
	}{
		{"${HOME}/capture.mcap", map[string]string{"HOME": "/home/op"}, "/home/op/capture.mcap"},
		{"${TELECAP_TEST_DIR}/run.mcap", nil, "/data/run.mcap"},
		{"${TELECAP_TEST_UNSET:-/tmp}/run.mcap", nil, "/tmp/run.mcap"},
		{"${TELECAP_TEST_UNSET}/run.mcap", nil, "/run.mcap"},
		{"plain.mcap", nil, "plain.mcap"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, test.vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLoadFileExpandsPaths(t *testing.T) {
	t.Setenv("TELECAP_TEST_DIR", "/data")
	path := writeConfig(t, `
sinks:
  - type: file
    path: ${TELECAP_TEST_DIR}/run.mcap
  - type: network
    name: live
    host: ${TELECAP_TEST_HOST:-0.0.0.0}
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Sinks[0].Path != "/data/run.mcap" {
		t.Errorf("Path = %q", cfg.Sinks[0].Path)
	}
	if cfg.Sinks[1].Host != "0.0.0.0" {
		t.Errorf("Host = %q", cfg.Sinks[1].Host)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Pipeline.ImageQuality = 0
	cfg.Sinks = []SinkConfig{
		{Type: SinkFile},
		{Type: SinkNetwork, Port: 70000},
		{Type: "carrier-pigeon"},
		{Type: SinkFile, Path: "a.mcap", Compression: "bzip2"},
		{Type: SinkFile, Path: "b.mcap", Encoding: "xml"},
	}
	cfg.Schemas = []SchemaConfig{{}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"log_level",
		"image_quality",
		"sinks[0].path",
		"sinks[1].name",
		"sinks[1].port",
		"sinks[2].type",
		"sinks[3].compression",
		"sinks[4].encoding",
		"schemas[0].channel",
		"schemas[0].file",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	cfg := Default()
	cfg.Sinks = []SinkConfig{
		{Name: "run", Type: SinkFile, Path: "a.mcap"},
		{Name: "run", Type: SinkNetwork},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Validate() = %v, want duplicate name error", err)
	}
}

func TestLoadSchemaStripsComments(t *testing.T) {
	dir := t.TempDir()
	schema := `{
  // reading from the bench sensor
  "type": "object",
  "properties": {"value": {"type": "number"},},
}`
	if err := os.WriteFile(filepath.Join(dir, "reading.jsonc"), []byte(schema), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "telecap.yaml")
	if err := os.WriteFile(configPath, []byte(`
schemas:
  - channel: bench
    file: reading.jsonc
`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	entry := cfg.Schemas[0]
	if got := cfg.SchemaPath(entry); got != filepath.Join(dir, "reading.jsonc") {
		t.Errorf("SchemaPath = %q", got)
	}
	if entry.SchemaName() != "bench" {
		t.Errorf("SchemaName = %q, want bench", entry.SchemaName())
	}

	data, err := cfg.LoadSchema(entry)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if strings.Contains(string(data), "//") || strings.Contains(string(data), ",}") {
		t.Errorf("LoadSchema left JSONC syntax: %s", data)
	}
}
