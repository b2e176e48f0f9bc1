// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package main is the entry point for the Signawave player daemon.
//
// The player initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, PLAYER_ environment variables (Koanf v2)
//  2. Offline store: BadgerDB snapshots of settings, manifests, and the hardware key
//  3. Transport: JSON-over-HTTP CMS client
//  4. Event bus: in-process Watermill pub/sub connecting core, renderer, and downloader
//  5. Orchestration core: the collection loop, schedule selector, and push channel
//  6. Status API: loopback HTTP endpoint with status, timeline prediction, and metrics
//  7. Supervisor tree: suture keeps the core and the API running until shutdown
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM: the supervisor
// tree drains its services, then the store and bus close.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/signawave/signawave/internal/api"
	"github.com/signawave/signawave/internal/config"
	"github.com/signawave/signawave/internal/core"
	"github.com/signawave/signawave/internal/events"
	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/store"
	"github.com/signawave/signawave/internal/supervisor"
	"github.com/signawave/signawave/internal/timeline"
	"github.com/signawave/signawave/internal/transport"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("cms", cfg.CMS.Address).
		Str("display", cfg.CMS.DisplayName).
		Str("store", cfg.Storage.Path).
		Msg("Starting Signawave player")

	db, err := store.Open(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open offline store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing offline store")
		}
	}()

	// The hardware key is minted on first run and survives reinstalls of
	// everything except the store directory.
	hardwareKey, err := db.HardwareKey()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load hardware key")
	}
	logging.Info().Str("hardware_key", hardwareKey).Msg("Display identity loaded")

	client, err := transport.NewClient(transport.ClientConfig{
		Address:     cfg.CMS.Address,
		ServerKey:   cfg.CMS.Key,
		HardwareKey: hardwareKey,
		DisplayName: cfg.CMS.DisplayName,
		Timeout:     cfg.CMS.Timeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create CMS client")
	}

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	player := core.New(*cfg, bus, client, db)
	if err := player.Hydrate(); err != nil {
		logging.Warn().Err(err).Msg("No usable offline snapshot, starting cold")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddOrchestrationService(player)

	if cfg.API.Enabled {
		durations := timeline.NewDurations()
		tree.AddAPIService(api.NewServer(cfg.API, player, durations, cfg.Player.TimelineHours))
		logging.Info().
			Str("host", cfg.API.Host).
			Int("port", cfg.API.Port).
			Msg("Status API enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}
	logging.Info().Msg("Player stopped")
}
