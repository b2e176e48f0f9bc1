// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package ratelimit enforces per-layout plays-per-hour caps with even
// distribution. A layout capped at N plays per hour must also wait 3600/N
// seconds between plays, so 3 plays per hour lands roughly every 20 minutes
// instead of bursting and starving.
package ratelimit

import (
	"sync"
	"time"
)

// window is the trailing period the play cap applies to.
const window = time.Hour

// Limiter tracks per-layout play history. History entries older than one
// hour are garbage-collected on each read.
type Limiter struct {
	mu      sync.Mutex
	history map[string][]time.Time

	// now is injectable for tests.
	now func() time.Time
}

// NewLimiter creates an empty limiter using the wall clock.
func NewLimiter() *Limiter {
	return &Limiter{
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// NewLimiterWithClock creates a limiter with an injected clock.
func NewLimiterWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		history: make(map[string][]time.Time),
		now:     now,
	}
}

// Allow reports whether a layout with the given hourly cap may play now.
// Two gates apply: fewer than maxPlaysPerHour plays in the trailing hour,
// and at least 3600/maxPlaysPerHour seconds since the most recent play.
// A cap of zero or less means unlimited.
func (l *Limiter) Allow(layoutFile string, maxPlaysPerHour int) bool {
	if maxPlaysPerHour <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	plays := l.collect(layoutFile, now)

	if len(plays) >= maxPlaysPerHour {
		return false
	}
	if len(plays) > 0 {
		minGap := time.Duration(int64(window) / int64(maxPlaysPerHour))
		if now.Sub(plays[len(plays)-1]) < minGap {
			return false
		}
	}
	return true
}

// RecordPlay appends a play at the current clock. Called when the renderer
// reports a successful layout start.
func (l *Limiter) RecordPlay(layoutFile string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.history[layoutFile] = append(l.collect(layoutFile, now), now)
}

// PlayCount returns the number of plays in the trailing hour.
func (l *Limiter) PlayCount(layoutFile string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.collect(layoutFile, l.now()))
}

// Reset drops all history.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = make(map[string][]time.Time)
}

// collect returns the layout's plays within the window, compacting storage.
// Must be called with mu held.
func (l *Limiter) collect(layoutFile string, now time.Time) []time.Time {
	plays := l.history[layoutFile]
	cutoff := now.Add(-window)

	i := 0
	for i < len(plays) && !plays[i].After(cutoff) {
		i++
	}
	if i > 0 {
		plays = append([]time.Time(nil), plays[i:]...)
		if len(plays) == 0 {
			delete(l.history, layoutFile)
		} else {
			l.history[layoutFile] = plays
		}
	}
	return plays
}
