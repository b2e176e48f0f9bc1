// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package schedule

import "time"

// ActiveLayout is one evaluation result with the metadata the layout
// selector and timeline predictor need.
type ActiveLayout struct {
	File            string   `json:"file"`
	Priority        int      `json:"priority"`
	SyncEvent       bool     `json:"syncEvent,omitempty"`
	ShareOfVoice    int      `json:"shareOfVoice,omitempty"`
	MaxPlaysPerHour int      `json:"maxPlaysPerHour,omitempty"`
	CampaignID      string   `json:"campaignId,omitempty"`
	Dependants      []string `json:"dependants,omitempty"`
	IsDefault       bool     `json:"isDefault,omitempty"`
}

// Result is the outcome of a playback evaluation.
type Result struct {
	// Layouts is the ordered play set: every layout at the winning priority,
	// campaign order preserved. Holds only the default when nothing else
	// applies, and is empty when there is no default either.
	Layouts []ActiveLayout

	// MaxActivePriority is the highest priority seen across all time-active
	// candidates before rate-limit filtering. Interrupt scheduling compares
	// against this, not the post-filter winner.
	MaxActivePriority int

	// UsedDefault is true when Layouts contains only the schedule default.
	UsedDefault bool
}

// RateGate reports whether a layout with the given hourly cap may play now.
// The evaluator calls it only for layouts with MaxPlaysPerHour > 0.
type RateGate func(layoutFile string, maxPlaysPerHour int) bool

// LayoutsNow returns the layouts to play at now, honoring rate limits.
// Campaign layouts and standalone layouts compete at matched priorities.
func LayoutsNow(s *Schedule, now time.Time, env Env, gate RateGate) Result {
	if s == nil {
		return Result{}
	}

	candidates := activeCandidates(s, now, env)

	res := Result{}
	for _, c := range candidates {
		if c.Priority > res.MaxActivePriority {
			res.MaxActivePriority = c.Priority
		}
	}

	// Rate-limit filter runs after MaxActivePriority is fixed.
	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.MaxPlaysPerHour > 0 && gate != nil && !gate(c.File, c.MaxPlaysPerHour) {
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		if s.Default != "" {
			res.Layouts = []ActiveLayout{{File: s.Default, IsDefault: true}}
			res.UsedDefault = true
		}
		return res
	}

	top := eligible[0].Priority
	for _, c := range eligible[1:] {
		if c.Priority > top {
			top = c.Priority
		}
	}
	for _, c := range eligible {
		if c.Priority == top {
			res.Layouts = append(res.Layouts, c)
		}
	}
	return res
}

// AllLayoutsAt returns every time-active layout at t with its priority,
// ignoring rate limits. The timeline predictor simulates its own limiter on
// top of this.
func AllLayoutsAt(s *Schedule, t time.Time, env Env) []ActiveLayout {
	if s == nil {
		return nil
	}
	return activeCandidates(s, t, env)
}

// activeCandidates builds the ordered candidate list: campaign layouts first
// in campaign order, then standalone layouts in schedule order.
func activeCandidates(s *Schedule, now time.Time, env Env) []ActiveLayout {
	var out []ActiveLayout
	for _, campaign := range s.Campaigns {
		for _, layout := range campaign.Layouts {
			if isActiveAt(layout, now, env) {
				out = append(out, toActive(layout, campaign.ID))
			}
		}
	}
	for _, layout := range s.Layouts {
		if isActiveAt(layout, now, env) {
			out = append(out, toActive(layout, ""))
		}
	}
	return out
}

func toActive(l Layout, campaignID string) ActiveLayout {
	return ActiveLayout{
		File:            l.File,
		Priority:        l.Priority,
		SyncEvent:       l.SyncEvent,
		ShareOfVoice:    l.ShareOfVoice,
		MaxPlaysPerHour: l.MaxPlaysPerHour,
		CampaignID:      campaignID,
		Dependants:      l.Dependants,
	}
}

// isActiveAt applies every admission test except the rate limit: time window
// (or weekly recurrence), day-of-week, recurrence range, criteria, geo fence.
func isActiveAt(l Layout, now time.Time, env Env) bool {
	if !inTimeWindow(l, now) {
		return false
	}
	if !repeatsOnDay(l.RecurrenceRepeatsOn, now) {
		return false
	}
	if l.RecurrenceRange != "" {
		if end, ok := ParseTime(l.RecurrenceRange); ok && now.After(end) {
			return false
		}
	}
	if !evalCriteria(l.Criteria, now, env) {
		return false
	}
	if l.IsGeoAware && !insideGeoFence(l.GeoLocation, env.Location) {
		return false
	}
	return true
}

// inTimeWindow tests fromdt/todt. For weekly recurrence the comparison is
// time-of-day only, wrapping across midnight, with fromdt also acting as the
// recurrence start date.
func inTimeWindow(l Layout, now time.Time) bool {
	from, hasFrom := ParseTime(l.FromDt)
	to, hasTo := ParseTime(l.ToDt)

	if l.RecurrenceType != RecurrenceWeek {
		if hasFrom && now.Before(from) {
			return false
		}
		if hasTo && now.After(to) {
			return false
		}
		return true
	}

	// Weekly recurrence only starts once the original window's start date
	// has passed.
	if hasFrom && now.Before(from) {
		return false
	}
	if !hasFrom || !hasTo {
		return true
	}

	nowTod := secondsOfDay(now)
	fromTod := secondsOfDay(from)
	toTod := secondsOfDay(to)

	if fromTod <= toTod {
		return nowTod >= fromTod && nowTod <= toTod
	}
	// Window wraps midnight, e.g. 22:00..02:00.
	return nowTod >= fromTod || nowTod <= toTod
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
