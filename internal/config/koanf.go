// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"player.yaml",
	"player.yml",
	"/etc/signawave/player.yaml",
	"/etc/signawave/player.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "PLAYER_CONFIG"

// envPrefix namespaces all player environment variables.
const envPrefix = "PLAYER_"

// defaultConfig returns a Config with all defaults applied. These are the
// bootstrap values; the CMS overrides interval and log level post-registration.
func defaultConfig() *Config {
	return &Config{
		CMS: CMSConfig{
			Address:     "",
			Key:         "",
			DisplayName: "",
			Timeout:     30 * time.Second,
		},
		Storage: StorageConfig{
			Path:     "/data/signawave",
			InMemory: false,
		},
		Player: PlayerConfig{
			CollectInterval:    5 * time.Minute,
			FaultsInterval:     time.Minute,
			OfflineRetryStart:  30 * time.Second,
			BlacklistThreshold: 3,
			Latitude:           0.0,
			Longitude:          0.0,
			GoogleGeoAPIKey:    "",
			TimelineHours:      8,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    9696,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: highest priority, PLAYER_ prefixed
//
// PLAYER_CMS_ADDRESS maps to cms.address, PLAYER_PLAYER_COLLECT_INTERVAL to
// player.collect_interval, and so on.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, honoring the
// PLAYER_CONFIG override.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps PLAYER_CMS_ADDRESS to cms.address. Only the first
// underscore becomes a section separator; the rest join with underscores so
// multi-word keys like collect_interval survive.
func envTransformFunc(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}
