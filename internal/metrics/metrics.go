// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package metrics instruments the orchestration core with Prometheus
// collectors, served on the loopback status API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collection cycle metrics.
	CollectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_collections_total",
			Help: "Total number of collection cycles by outcome",
		},
		[]string{"outcome"}, // "ok", "offline", "error"
	)

	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "player_collection_duration_seconds",
			Help:    "Duration of collection cycles in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	OfflineMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "player_offline_mode",
			Help: "1 when the player is replaying the cached schedule, 0 when online",
		},
	)

	// Layout selection metrics.
	LayoutPrepares = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_layout_prepares_total",
			Help: "Total number of layout prepare requests by trigger",
		},
		[]string{"trigger"}, // "schedule", "rotation", "override", "overlay"
	)

	BlacklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "player_blacklisted_layouts",
			Help: "Current number of blacklisted layouts",
		},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "player_rate_limit_rejections_total",
			Help: "Total number of layouts excluded by the plays-per-hour gate",
		},
	)

	// Push channel metrics.
	PushConnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "player_push_connects_total",
			Help: "Total number of push channel connections established",
		},
	)

	PushReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "player_push_reconnects_total",
			Help: "Total number of push channel reconnections after a drop",
		},
	)

	PushMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_push_messages_total",
			Help: "Total number of push messages dispatched by action",
		},
		[]string{"action"},
	)

	// Command metrics.
	CommandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_commands_executed_total",
			Help: "Total number of commands executed by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: "scheduled", "http", "native", "unknown"
	)
)
