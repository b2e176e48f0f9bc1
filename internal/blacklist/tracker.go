// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package blacklist tracks consecutive render failures per layout. A layout
// that keeps failing must not produce a rendering hot loop that starves the
// display, so after a threshold of consecutive failures it is excluded from
// selection until the manifest changes or a render succeeds.
package blacklist

import (
	"sort"
	"sync"
)

// DefaultThreshold is the consecutive-failure count that blacklists a layout.
const DefaultThreshold = 3

// Entry is a snapshot of one tracked layout.
type Entry struct {
	LayoutID    string `json:"layout_id"`
	Failures    int    `json:"failures"`
	Blacklisted bool   `json:"blacklisted"`
	Reason      string `json:"reason,omitempty"`
}

// Tracker counts consecutive failures and flips layouts to blacklisted at
// the threshold.
//
// Callbacks fire outside the tracker lock so a slow event bus or CMS RPC
// cannot block selection.
type Tracker struct {
	mu        sync.Mutex
	threshold int
	entries   map[string]*Entry

	// OnBlacklisted fires once when a layout crosses the threshold.
	OnBlacklisted func(layoutID string, failures int, reason string)

	// OnUnblacklisted fires when a blacklisted layout renders successfully.
	OnUnblacklisted func(layoutID string)

	// Report forwards the blacklist to the CMS. Fire-and-forget.
	Report func(layoutID, reason string)
}

// NewTracker creates a tracker. A threshold below one falls back to
// DefaultThreshold.
func NewTracker(threshold int) *Tracker {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Tracker{
		threshold: threshold,
		entries:   make(map[string]*Entry),
	}
}

// ReportFailure increments the layout's failure counter. Crossing the
// threshold marks it blacklisted and fires OnBlacklisted and Report once.
func (t *Tracker) ReportFailure(layoutID, reason string) {
	t.mu.Lock()
	e, ok := t.entries[layoutID]
	if !ok {
		e = &Entry{LayoutID: layoutID}
		t.entries[layoutID] = e
	}
	e.Failures++
	e.Reason = reason

	crossed := !e.Blacklisted && e.Failures >= t.threshold
	if crossed {
		e.Blacklisted = true
	}
	failures := e.Failures
	t.mu.Unlock()

	if crossed {
		if t.OnBlacklisted != nil {
			t.OnBlacklisted(layoutID, failures, reason)
		}
		if t.Report != nil {
			t.Report(layoutID, reason)
		}
	}
}

// ReportSuccess clears the layout's entry. OnUnblacklisted fires if it had
// been blacklisted.
func (t *Tracker) ReportSuccess(layoutID string) {
	t.mu.Lock()
	e, ok := t.entries[layoutID]
	wasBlacklisted := ok && e.Blacklisted
	delete(t.entries, layoutID)
	t.mu.Unlock()

	if wasBlacklisted && t.OnUnblacklisted != nil {
		t.OnUnblacklisted(layoutID)
	}
}

// IsBlacklisted reports whether the layout is currently excluded.
func (t *Tracker) IsBlacklisted(layoutID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[layoutID]
	return ok && e.Blacklisted
}

// Reset clears all entries. Called exactly when the required-files manifest
// changes: new content may fix what was failing.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*Entry)
}

// Len returns the number of blacklisted layouts.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.entries {
		if e.Blacklisted {
			n++
		}
	}
	return n
}

// Snapshot returns all entries ordered by layout ID, for status reporting.
func (t *Tracker) Snapshot() []Entry {
	t.mu.Lock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LayoutID < out[j].LayoutID })
	return out
}
