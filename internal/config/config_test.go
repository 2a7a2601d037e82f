// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}
	if cfg.Server.Port != 4326 {
		t.Errorf("default port = %d, want 4326", cfg.Server.Port)
	}
	if cfg.Refresh.Interval != 15*time.Second {
		t.Errorf("default refresh interval = %v, want 15s", cfg.Refresh.Interval)
	}
	if cfg.Refresh.MissThreshold != 2 {
		t.Errorf("default miss threshold = %d, want 2", cfg.Refresh.MissThreshold)
	}
	if !cfg.Upstream.ADSB {
		t.Error("adsb feed should default on")
	}
	if cfg.Upstream.AIS {
		t.Error("ais feed should default off")
	}
	if cfg.EventBus.Enabled {
		t.Error("event bus should default off")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
upstream:
  base_url: "https://fleet.example.com"
  ais: true
refresh:
  interval: 5s
  freshness: 30s
trails:
  retention_minutes: 120
  aircraft_retention_minutes: 15
api:
  cors_origins:
    - "https://map.example.com"
    - "https://ops.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://fleet.example.com" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
	if !cfg.Upstream.AIS {
		t.Error("ais should be enabled by file")
	}
	if cfg.Refresh.Freshness != 30*time.Second {
		t.Errorf("freshness = %v, want 30s", cfg.Refresh.Freshness)
	}
	if got := cfg.Trails.Retention(); got != 120*time.Minute {
		t.Errorf("retention = %v, want 120m", got)
	}
	if got := cfg.Trails.AircraftRetention(); got != 15*time.Minute {
		t.Errorf("aircraft retention = %v, want 15m", got)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[0] != "https://map.example.com" {
		t.Errorf("cors_origins = %v", cfg.API.CORSOrigins)
	}
	// Untouched keys keep defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want default info", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("UPSTREAM_BASE_URL", "http://10.0.0.5:8873")
	t.Setenv("API_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env should win over file: port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "http://10.0.0.5:8873" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("cors_origins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i := range want {
		if cfg.API.CORSOrigins[i] != want[i] {
			t.Errorf("cors_origins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], want[i])
		}
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"UPSTREAM_BASE_URL", "upstream.base_url"},
		{"REFRESH_MISS_THRESHOLD", "refresh.miss_threshold"},
		{"TRAILS_RETENTION_MINUTES", "trails.retention_minutes"},
		{"EVENTBUS_SUBJECT_PREFIX", "eventbus.subject_prefix"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"interval too short", func(c *Config) { c.Refresh.Interval = 100 * time.Millisecond }, true},
		{"miss threshold zero", func(c *Config) { c.Refresh.MissThreshold = 0 }, true},
		{"retention zero", func(c *Config) { c.Trails.RetentionMinutes = 0 }, true},
		{"missing base url", func(c *Config) { c.Upstream.BaseURL = "" }, true},
		{"non-http base url", func(c *Config) { c.Upstream.BaseURL = "ftp://x" }, true},
		{"bus enabled external without url", func(c *Config) {
			c.EventBus.Enabled = true
			c.EventBus.Embedded = false
			c.EventBus.URL = ""
		}, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"console log format", func(c *Config) { c.Logging.Format = "console" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
