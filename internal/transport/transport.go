// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package transport contracts the CMS RPC client the orchestration core
// consumes. The wire protocol itself lives behind this interface; the core
// only depends on method shapes and result types.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/signawave/signawave/internal/schedule"
)

// RegistrationCodeReady is the code a successfully registered display gets.
// Any other code aborts the collection cycle.
const RegistrationCodeReady = "READY"

// ErrTransport wraps any CMS RPC failure. The collection loop branches on it
// to decide between offline fallback and error propagation.
var ErrTransport = errors.New("transport failure")

// Error builds a wrapped transport failure for the given RPC.
func Error(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
}

// SyncConfig groups multi-display synchronization settings the CMS may send.
type SyncConfig struct {
	SyncGroup           string `json:"syncGroup"`
	IsLead              bool   `json:"isLead"`
	SyncSwitchDelay     int    `json:"syncSwitchDelay"`
	SyncVideoPauseDelay int    `json:"syncVideoPauseDelay"`
	SyncPublisherPort   int    `json:"syncPublisherPort"`
}

// RegistrationResult is the per-cycle outcome of registerDisplay.
type RegistrationResult struct {
	// Code is "READY" on success.
	Code        string `json:"code"`
	DisplayName string `json:"displayName,omitempty"`

	// Tags are "key|value" strings mapped onto a config allow-list.
	Tags []string `json:"tags,omitempty"`

	// Commands maps command codes to their definitions.
	Commands map[string]Command `json:"commands,omitempty"`

	// Settings carries recognized keys: collectInterval, xmrWebSocketAddress,
	// xmrCmsKey, serverKey, logLevel, statsEnabled, downloadStartWindow,
	// downloadEndWindow, and any future additions.
	Settings map[string]string `json:"settings,omitempty"`

	// CheckRf and CheckSchedule are opaque change tokens. An identical value
	// means the corresponding manifest has not changed.
	CheckRf       string `json:"checkRf,omitempty"`
	CheckSchedule string `json:"checkSchedule,omitempty"`

	SyncConfig *SyncConfig `json:"syncConfig,omitempty"`
}

// Ready reports whether the display may proceed with collection.
func (r *RegistrationResult) Ready() bool {
	return r != nil && r.Code == RegistrationCodeReady
}

// Command is one CMS-configured display command.
type Command struct {
	CommandString string `json:"commandString,omitempty"`
	Value         string `json:"value,omitempty"`
}

// String returns the effective command string, falling back to Value.
func (c Command) String() string {
	if c.CommandString != "" {
		return c.CommandString
	}
	return c.Value
}

// RequiredFile is one entry of the required-files manifest.
type RequiredFile struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // media, layout, resource, dependency, widget
	Path       string   `json:"path"`
	MD5        string   `json:"md5"`
	Size       int64    `json:"size"`
	Dependants []string `json:"dependants,omitempty"`
}

// PurgeItem identifies a stored file the CMS wants removed.
type PurgeItem struct {
	ID       string `json:"id"`
	StoredAs string `json:"storedAs"`
}

// RequiredFilesResult is the manifest returned by requiredFiles.
type RequiredFilesResult struct {
	Files []RequiredFile `json:"files,omitempty"`
	Purge []PurgeItem    `json:"purge,omitempty"`
}

// Status is the payload of notifyStatus.
type Status struct {
	CurrentLayoutID      string   `json:"currentLayoutId,omitempty"`
	DeviceName           string   `json:"deviceName,omitempty"`
	DisplayName          string   `json:"displayName,omitempty"`
	LastCommandSuccess   bool     `json:"lastCommandSuccess"`
	Code                 int      `json:"code"` // 1=ok, 2=degraded, 3=fault
	LastLayoutChangeTime string   `json:"lastLayoutChangeTime,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
}

// Transport is the CMS RPC surface the core consumes. Every method may block
// on the network; implementations supply their own timeouts.
type Transport interface {
	RegisterDisplay(ctx context.Context) (*RegistrationResult, error)
	RequiredFiles(ctx context.Context) (*RequiredFilesResult, error)
	Schedule(ctx context.Context) (*schedule.Schedule, error)
	NotifyStatus(ctx context.Context, status Status) error
	MediaInventory(ctx context.Context, inventoryXML string) error
	BlackList(ctx context.Context, id, mediaType, reason string) error
	GetWeather(ctx context.Context) (*schedule.Weather, error)
}
