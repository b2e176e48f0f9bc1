// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package events defines the orchestration events the player core emits and
// the in-process bus that carries them to the renderer, cache, and platform
// shell. Payload shapes are part of the public contract; consumers subscribe
// by topic name.
package events

import (
	"time"
)

// Topic names. One topic per event type; subscribers match on these.
const (
	TopicCollectionStart      = "collection.start"
	TopicRegisterComplete     = "collection.register-complete"
	TopicFilesReceived        = "collection.files-received"
	TopicPurgeRequest         = "collection.purge-request"
	TopicScheduleReceived     = "collection.schedule-received"
	TopicLayoutsScheduled     = "collection.layouts-scheduled"
	TopicCollectionComplete   = "collection.complete"
	TopicCollectionError      = "collection.error"
	TopicOfflineMode          = "collection.offline-mode"
	TopicDownloadRequest      = "cache.download-request"
	TopicCacheAnalysis        = "cache.analysis-request"
	TopicSubmitFaultsRequest  = "stats.submit-faults-request"
	TopicSubmitStatsRequest   = "stats.submit-stats-request"
	TopicLayoutPrepareRequest = "layout.prepare-request"
	TopicLayoutAlreadyPlaying = "layout.already-playing"
	TopicNoLayoutsScheduled   = "layout.none-scheduled"
	TopicOverlayLayoutRequest = "layout.overlay-request"
	TopicRevertToSchedule     = "layout.revert-to-schedule"
	TopicCheckPendingLayout   = "layout.check-pending"
	TopicLayoutBlacklisted    = "layout.blacklisted"
	TopicLayoutUnblacklisted  = "layout.unblacklisted"
	TopicScheduledCommand     = "command.scheduled"
	TopicCommandResult        = "command.result"
	TopicExecuteNativeCommand = "command.execute-native"
	TopicNavigateToWidget     = "command.navigate-to-widget"
	TopicPushConnected        = "push.connected"
	TopicPushReconnected      = "push.reconnected"
	TopicPushMisconfigured    = "push.misconfigured"
	TopicStatusNotifyFailed   = "status.notify-failed"
	TopicScreenshotRequest    = "platform.screenshot-request"
	TopicCleanupComplete      = "platform.cleanup-complete"
)

// Event is anything the bus can carry. Topic returns the subscription name.
type Event interface {
	Topic() string
}

// CollectionStart marks the beginning of a collection cycle.
type CollectionStart struct {
	// Attempt counts cycles since the last fully successful one: 1 on the
	// first try, climbing while the player is failing or offline.
	Attempt int       `json:"attempt"`
	At      time.Time `json:"at"`
}

func (CollectionStart) Topic() string { return TopicCollectionStart }

// RegisterComplete carries the outcome of display registration.
type RegisterComplete struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

func (RegisterComplete) Topic() string { return TopicRegisterComplete }

// FilesReceived reports a fresh required-files manifest.
type FilesReceived struct {
	FileCount int `json:"file_count"`
}

func (FilesReceived) Topic() string { return TopicFilesReceived }

// PurgeItem identifies one stored file the CMS wants removed.
type PurgeItem struct {
	ID       string `json:"id"`
	StoredAs string `json:"stored_as"`
}

// PurgeRequest asks the cache to delete files no longer referenced.
type PurgeRequest struct {
	Items []PurgeItem `json:"items"`
}

func (PurgeRequest) Topic() string { return TopicPurgeRequest }

// ScheduleReceived reports a fresh schedule manifest.
type ScheduleReceived struct {
	LayoutCount   int `json:"layout_count"`
	CampaignCount int `json:"campaign_count"`
}

func (ScheduleReceived) Topic() string { return TopicScheduleReceived }

// LayoutsScheduled lists the layouts active after evaluation, in play order.
type LayoutsScheduled struct {
	Layouts []string `json:"layouts"`
}

func (LayoutsScheduled) Topic() string { return TopicLayoutsScheduled }

// CollectionComplete marks the end of a collection cycle, successful or
// offline-degraded.
type CollectionComplete struct {
	Offline  bool          `json:"offline"`
	Duration time.Duration `json:"duration"`
}

func (CollectionComplete) Topic() string { return TopicCollectionComplete }

// CollectionError reports a cycle that failed before completion.
type CollectionError struct {
	Reason string `json:"reason"`
}

func (CollectionError) Topic() string { return TopicCollectionError }

// OfflineMode signals entry to or exit from offline replay.
type OfflineMode struct {
	Offline       bool          `json:"offline"`
	RetryInterval time.Duration `json:"retry_interval,omitempty"`
}

func (OfflineMode) Topic() string { return TopicOfflineMode }

// RequiredFile mirrors one entry of the required-files manifest for the cache.
type RequiredFile struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // media, layout, resource, dependency, widget
	Path       string   `json:"path"`
	MD5        string   `json:"md5"`
	Size       int64    `json:"size"`
	Dependants []string `json:"dependants,omitempty"`
}

// DownloadRequest hands the cache the full manifest plus the layout order the
// selector will play next, so the cache can prioritize the upcoming layout's
// media.
type DownloadRequest struct {
	LayoutOrder      []string            `json:"layout_order"`
	Files            []RequiredFile      `json:"files"`
	LayoutDependants map[string][]string `json:"layout_dependants,omitempty"`
}

func (DownloadRequest) Topic() string { return TopicDownloadRequest }

// CacheAnalysis asks the cache to verify its contents against the manifest.
type CacheAnalysis struct {
	Files []RequiredFile `json:"files"`
}

func (CacheAnalysis) Topic() string { return TopicCacheAnalysis }

// SubmitFaultsRequest fires on the independent fault-report timer.
type SubmitFaultsRequest struct {
	At time.Time `json:"at"`
}

func (SubmitFaultsRequest) Topic() string { return TopicSubmitFaultsRequest }

// SubmitStatsRequest asks the stats collector to flush proof-of-play records.
type SubmitStatsRequest struct {
	At time.Time `json:"at"`
}

func (SubmitStatsRequest) Topic() string { return TopicSubmitStatsRequest }

// LayoutPrepareRequest asks the renderer to prepare and show a layout.
type LayoutPrepareRequest struct {
	LayoutID string `json:"layout_id"`
	// Override marks a prepare triggered by changeLayout rather than rotation.
	Override bool `json:"override,omitempty"`
	// ChangeMode is carried verbatim from the override request; the renderer
	// decides replace-vs-queue semantics.
	ChangeMode string `json:"change_mode,omitempty"`
}

func (LayoutPrepareRequest) Topic() string { return TopicLayoutPrepareRequest }

// LayoutAlreadyPlaying confirms the current layout is still scheduled.
type LayoutAlreadyPlaying struct {
	LayoutID string `json:"layout_id"`
}

func (LayoutAlreadyPlaying) Topic() string { return TopicLayoutAlreadyPlaying }

// NoLayoutsScheduled reports an empty active set with no default to fall
// back on.
type NoLayoutsScheduled struct{}

func (NoLayoutsScheduled) Topic() string { return TopicNoLayoutsScheduled }

// OverlayLayoutRequest asks the renderer to draw a layout above the current one.
type OverlayLayoutRequest struct {
	LayoutID string `json:"layout_id"`
	Duration int    `json:"duration,omitempty"`
}

func (OverlayLayoutRequest) Topic() string { return TopicOverlayLayoutRequest }

// RevertToSchedule clears any override and resumes the rotation.
type RevertToSchedule struct{}

func (RevertToSchedule) Topic() string { return TopicRevertToSchedule }

// CheckPendingLayout tells the renderer a file it was waiting on is ready.
type CheckPendingLayout struct {
	LayoutID    string   `json:"layout_id"`
	RequiredIDs []string `json:"required_ids"`
}

func (CheckPendingLayout) Topic() string { return TopicCheckPendingLayout }

// LayoutBlacklisted reports a layout crossing the failure threshold.
type LayoutBlacklisted struct {
	LayoutID string `json:"layout_id"`
	Failures int    `json:"failures"`
	Reason   string `json:"reason"`
}

func (LayoutBlacklisted) Topic() string { return TopicLayoutBlacklisted }

// LayoutUnblacklisted reports a formerly blacklisted layout rendering again.
type LayoutUnblacklisted struct {
	LayoutID string `json:"layout_id"`
}

func (LayoutUnblacklisted) Topic() string { return TopicLayoutUnblacklisted }

// ScheduledCommand asks the platform shell to run a CMS-scheduled command.
type ScheduledCommand struct {
	Code string    `json:"code"`
	Date time.Time `json:"date"`
}

func (ScheduledCommand) Topic() string { return TopicScheduledCommand }

// CommandResult reports the outcome of an on-demand command.
type CommandResult struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (CommandResult) Topic() string { return TopicCommandResult }

// ExecuteNativeCommand delegates a non-HTTP command string to the platform
// shell (shell, intent, RS-232).
type ExecuteNativeCommand struct {
	Code          string `json:"code"`
	CommandString string `json:"command_string"`
}

func (ExecuteNativeCommand) Topic() string { return TopicExecuteNativeCommand }

// NavigateToWidget forwards a navWidget trigger action to the renderer.
type NavigateToWidget struct {
	WidgetID   string `json:"widget_id"`
	LayoutCode string `json:"layout_code,omitempty"`
}

func (NavigateToWidget) Topic() string { return TopicNavigateToWidget }

// PushConnected reports the push channel coming up.
type PushConnected struct {
	Address string `json:"address"`
}

func (PushConnected) Topic() string { return TopicPushConnected }

// PushReconnected reports a restart of a dropped push channel.
type PushReconnected struct {
	Address string `json:"address"`
}

func (PushReconnected) Topic() string { return TopicPushReconnected }

// PushMisconfigured reasons.
const (
	PushReasonMissing       = "missing"
	PushReasonWrongProtocol = "wrongProtocol"
	PushReasonPlaceholder   = "placeholder"
)

// PushMisconfigured reports an unusable push address; collection continues
// without real-time messages.
type PushMisconfigured struct {
	Reason  string `json:"reason"`
	Address string `json:"address,omitempty"`
}

func (PushMisconfigured) Topic() string { return TopicPushMisconfigured }

// StatusNotifyFailed reports a swallowed notifyStatus failure.
type StatusNotifyFailed struct {
	Reason string `json:"reason"`
}

func (StatusNotifyFailed) Topic() string { return TopicStatusNotifyFailed }

// ScreenshotRequest forwards a CMS screenshot request to the platform shell.
type ScreenshotRequest struct{}

func (ScreenshotRequest) Topic() string { return TopicScreenshotRequest }

// CleanupComplete is emitted before listeners detach at shutdown so platforms
// can flush final state.
type CleanupComplete struct{}

func (CleanupComplete) Topic() string { return TopicCleanupComplete }
