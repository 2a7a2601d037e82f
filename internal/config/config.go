// AuroraSensa - Distributed Sensor Fleet Monitoring and Geographic Visualization
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub006

// Package config defines the AuroraSensa server configuration and its
// Koanf v2 loader. Precedence, highest first: environment variables,
// optional YAML config file, built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Trails   TrailsConfig   `koanf:"trails"`
	EventBus EventBusConfig `koanf:"eventbus"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// UpstreamConfig points at the fleet backend API and selects which feeds
// to poll. A disabled feed contributes zero reports per cycle.
type UpstreamConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitRPS caps requests per second against the upstream API
	// across all feeds. Zero disables the limiter.
	RateLimitRPS float64 `koanf:"rate_limit_rps"`

	Clients   bool `koanf:"clients"`
	Sensors   bool `koanf:"sensors"`
	Starlink  bool `koanf:"starlink"`
	GPS       bool `koanf:"gps"`
	ADSB      bool `koanf:"adsb"`
	AIS       bool `koanf:"ais"`
	APRS      bool `koanf:"aprs"`
	EPIRB     bool `koanf:"epirb"`
	Wifi      bool `koanf:"wifi"`
	Bluetooth bool `koanf:"bluetooth"`
}

// RefreshConfig controls the reconciliation cycle.
type RefreshConfig struct {
	// Interval between full polling cycles.
	Interval time.Duration `koanf:"interval"`

	// MissThreshold is the number of consecutive cycles an entity may
	// miss before it is removed from the map.
	MissThreshold int `koanf:"miss_threshold"`

	// Freshness is the maximum candidate age the location resolver will
	// accept before falling through to a lower-priority source.
	// Zero lets priority alone decide.
	Freshness time.Duration `koanf:"freshness"`

	// AircraftStaleAfter marks live aircraft stale past this age.
	AircraftStaleAfter time.Duration `koanf:"aircraft_stale_after"`
}

// TrailsConfig controls trail retention.
type TrailsConfig struct {
	// RetentionMinutes is the default trail retention window.
	RetentionMinutes int `koanf:"retention_minutes"`

	// AircraftRetentionMinutes overrides retention for aircraft trails.
	AircraftRetentionMinutes int `koanf:"aircraft_retention_minutes"`

	// MaxPoints caps points per trail; zero disables the cap.
	MaxPoints int `koanf:"max_points"`

	// ReplayMinutes is the historical aircraft replay window requested
	// from the upstream history feed.
	ReplayMinutes int `koanf:"replay_minutes"`
}

// EventBusConfig controls the live position-update bus.
type EventBusConfig struct {
	Enabled bool `koanf:"enabled"`

	// Embedded runs an in-process NATS server; URL is used verbatim when
	// Embedded is false.
	Embedded bool   `koanf:"embedded"`
	URL      string `koanf:"url"`

	// SubjectPrefix is prepended to per-class subjects, e.g.
	// positions.aircraft.
	SubjectPrefix string `koanf:"subject_prefix"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config for the loader.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints after unmarshal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval %s too short (minimum 1s)", c.Refresh.Interval)
	}
	if c.Refresh.MissThreshold < 1 {
		return fmt.Errorf("refresh.miss_threshold must be >= 1, got %d", c.Refresh.MissThreshold)
	}
	if c.Trails.RetentionMinutes < 1 {
		return fmt.Errorf("trails.retention_minutes must be >= 1, got %d", c.Trails.RetentionMinutes)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("upstream.base_url %q must be an http(s) URL", c.Upstream.BaseURL)
	}
	if c.EventBus.Enabled && !c.EventBus.Embedded && c.EventBus.URL == "" {
		return fmt.Errorf("eventbus.url is required when the bus is enabled without an embedded server")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}

// Retention returns the default trail retention as a duration.
func (c *TrailsConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

// AircraftRetention returns the aircraft trail retention, falling back to
// the default window when unset.
func (c *TrailsConfig) AircraftRetention() time.Duration {
	if c.AircraftRetentionMinutes > 0 {
		return time.Duration(c.AircraftRetentionMinutes) * time.Minute
	}
	return c.Retention()
}

// ReplayWindow returns the aircraft history replay window.
func (c *TrailsConfig) ReplayWindow() time.Duration {
	return time.Duration(c.ReplayMinutes) * time.Minute
}
