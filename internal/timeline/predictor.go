// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package timeline

import (
	"strings"
	"time"

	"github.com/signawave/signawave/internal/ratelimit"
	"github.com/signawave/signawave/internal/schedule"
)

// MaxEntries caps a prediction run regardless of horizon.
const MaxEntries = 500

// emptySkip is how far the clock jumps when nothing is playable and no
// default exists.
const emptySkip = time.Minute

// Entry is one predicted slot.
type Entry struct {
	LayoutFile string    `json:"layout_file"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   int       `json:"duration"` // seconds
	IsDefault  bool      `json:"is_default,omitempty"`

	// Hidden entries were time-active but lost to a higher priority. They
	// carry the winning slot's bounds and zero duration.
	Hidden bool `json:"hidden,omitempty"`
}

// Options controls a prediction run.
type Options struct {
	// From is the simulation start. Zero means now.
	From time.Time

	// Hours is the horizon. Values below one fall back to one.
	Hours int

	// CurrentLayoutStartedAt, when set, shortens the first entry to its
	// remaining duration.
	CurrentLayoutStartedAt time.Time
}

// Predict simulates playback of the schedule from opts.From over the
// horizon. It honors the same rate-limit algorithm as live selection through
// a local simulated limiter, falls back to the default layout when nothing
// is eligible, and round-robins within each stable playable set.
func Predict(s *schedule.Schedule, env schedule.Env, durations *Durations, opts Options) []Entry {
	from := opts.From
	if from.IsZero() {
		from = time.Now()
	}
	hours := opts.Hours
	if hours < 1 {
		hours = 1
	}
	end := from.Add(time.Duration(hours) * time.Hour)

	// The simulated limiter's clock follows the simulation cursor.
	cursor := from
	limiter := ratelimit.NewLimiterWithClock(func() time.Time { return cursor })

	rotation := make(map[string]int)
	var out []Entry
	first := true

	for cursor.Before(end) && len(out) < MaxEntries {
		active := schedule.AllLayoutsAt(s, cursor, env)

		eligible := active[:0:0]
		for _, l := range active {
			if l.MaxPlaysPerHour > 0 && !limiter.Allow(l.File, l.MaxPlaysPerHour) {
				continue
			}
			eligible = append(eligible, l)
		}

		if len(eligible) == 0 {
			if s != nil && s.Default != "" {
				dur := entryDuration(durations, s.Default, first, opts.CurrentLayoutStartedAt, from)
				out = append(out, Entry{
					LayoutFile: s.Default,
					StartTime:  cursor,
					EndTime:    cursor.Add(time.Duration(dur) * time.Second),
					Duration:   dur,
					IsDefault:  true,
				})
				cursor = cursor.Add(time.Duration(dur) * time.Second)
				first = false
			} else {
				cursor = cursor.Add(emptySkip)
			}
			continue
		}

		top := eligible[0].Priority
		for _, l := range eligible[1:] {
			if l.Priority > top {
				top = l.Priority
			}
		}
		playable := eligible[:0:0]
		for _, l := range eligible {
			if l.Priority == top {
				playable = append(playable, l)
			}
		}

		// The round-robin cursor is keyed by the playable set, so the
		// rotation restarts at a daypart boundary.
		key := setKey(playable)
		idx := rotation[key] % len(playable)
		rotation[key] = idx + 1
		chosen := playable[idx]

		dur := entryDuration(durations, chosen.File, first, opts.CurrentLayoutStartedAt, from)
		limiter.RecordPlay(chosen.File)

		slotEnd := cursor.Add(time.Duration(dur) * time.Second)
		out = append(out, Entry{
			LayoutFile: chosen.File,
			StartTime:  cursor,
			EndTime:    slotEnd,
			Duration:   dur,
		})

		for _, l := range active {
			if len(out) >= MaxEntries {
				break
			}
			if l.Priority < top {
				out = append(out, Entry{
					LayoutFile: l.File,
					StartTime:  cursor,
					EndTime:    slotEnd,
					Hidden:     true,
				})
			}
		}

		cursor = slotEnd
		first = false
	}
	return out
}

// entryDuration returns the slot duration, shortening the first entry to its
// remaining time when the current layout started before the horizon.
func entryDuration(durations *Durations, file string, first bool, startedAt, from time.Time) int {
	dur := DefaultDuration
	if durations != nil {
		dur = durations.Get(file)
	}
	if first && !startedAt.IsZero() && startedAt.Before(from) {
		elapsed := int(from.Sub(startedAt) / time.Second)
		if remaining := dur - elapsed; remaining > 0 {
			return remaining
		}
		return 1
	}
	return dur
}

func setKey(layouts []schedule.ActiveLayout) string {
	files := make([]string, len(layouts))
	for i, l := range layouts {
		files[i] = l.File
	}
	return strings.Join(files, "|")
}
