// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package config loads and validates player configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then PLAYER_-prefixed environment variables. The CMS overrides several of
// these at runtime through registration settings (collect interval, log
// level, download window); the values here are the pre-registration
// bootstrap state.
package config

import (
	"fmt"
	"time"
)

// Config is the root player configuration.
type Config struct {
	CMS     CMSConfig     `koanf:"cms"`
	Storage StorageConfig `koanf:"storage"`
	Player  PlayerConfig  `koanf:"player"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// CMSConfig identifies the content management system this display belongs to.
type CMSConfig struct {
	// Address is the base URL of the CMS.
	Address string `koanf:"address"`

	// Key is the CMS server key used during display registration.
	Key string `koanf:"key"`

	// DisplayName is the human-readable name reported at registration.
	// The CMS may rename the display; the CMS value wins.
	DisplayName string `koanf:"display_name"`

	// Timeout bounds each CMS RPC.
	Timeout time.Duration `koanf:"timeout"`
}

// StorageConfig locates the local BadgerDB used for offline snapshots.
type StorageConfig struct {
	// Path is the directory for the offline store.
	Path string `koanf:"path"`

	// InMemory runs the store without disk persistence. Test-only.
	InMemory bool `koanf:"in_memory"`
}

// PlayerConfig holds playback orchestration defaults.
type PlayerConfig struct {
	// CollectInterval is the bootstrap collection interval, used until the
	// CMS supplies one at registration.
	CollectInterval time.Duration `koanf:"collect_interval"`

	// FaultsInterval drives the independent fault-submission timer.
	FaultsInterval time.Duration `koanf:"faults_interval"`

	// OfflineRetryStart seeds the exponential backoff used in offline mode.
	OfflineRetryStart time.Duration `koanf:"offline_retry_start"`

	// BlacklistThreshold is the consecutive-failure count that blacklists
	// a layout.
	BlacklistThreshold int `koanf:"blacklist_threshold"`

	// Latitude and Longitude are the fixed display coordinates used for
	// geo-aware schedules when no live location source is attached.
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`

	// GoogleGeoAPIKey may also arrive via a CMS display tag (geoApiKey).
	GoogleGeoAPIKey string `koanf:"google_geo_api_key"`

	// TimelineHours is the horizon of the local timeline prediction.
	TimelineHours int `koanf:"timeline_hours"`
}

// APIConfig configures the loopback status endpoint.
type APIConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// LoggingConfig mirrors logging.Config for file/env control.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values the player cannot run with.
func (c *Config) Validate() error {
	if c.CMS.Address == "" {
		return fmt.Errorf("cms.address is required")
	}
	if c.CMS.Key == "" {
		return fmt.Errorf("cms.key is required")
	}
	if c.Storage.Path == "" && !c.Storage.InMemory {
		return fmt.Errorf("storage.path is required")
	}
	if c.Player.CollectInterval < 10*time.Second {
		return fmt.Errorf("player.collect_interval must be at least 10s, got %s", c.Player.CollectInterval)
	}
	if c.Player.BlacklistThreshold < 1 {
		return fmt.Errorf("player.blacklist_threshold must be at least 1, got %d", c.Player.BlacklistThreshold)
	}
	if c.Player.Latitude < -90 || c.Player.Latitude > 90 {
		return fmt.Errorf("player.latitude out of range: %f", c.Player.Latitude)
	}
	if c.Player.Longitude < -180 || c.Player.Longitude > 180 {
		return fmt.Errorf("player.longitude out of range: %f", c.Player.Longitude)
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if c.Player.TimelineHours < 1 || c.Player.TimelineHours > 48 {
		return fmt.Errorf("player.timeline_hours must be 1..48, got %d", c.Player.TimelineHours)
	}
	return nil
}
