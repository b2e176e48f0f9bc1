// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package schedule models the CMS schedule and evaluates which layouts are
// active at a point in time. Evaluation is pure: the same schedule, clock,
// and environment always produce the same ordered layout set.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// RecurrenceWeek is the only recurrence type the CMS currently sends.
const RecurrenceWeek = "Week"

// DefaultGeoRadiusMeters applies when a geoLocation omits its radius.
const DefaultGeoRadiusMeters = 500.0

// Schedule is the full schedule manifest received from the CMS each cycle.
type Schedule struct {
	// Default is the layout shown when nothing else applies. Empty if the
	// display has no default.
	Default string `json:"default,omitempty"`

	Layouts        []Layout           `json:"layouts,omitempty"`
	Campaigns      []Campaign         `json:"campaigns,omitempty"`
	Actions        []Action           `json:"actions,omitempty"`
	Commands       []ScheduledCommand `json:"commands,omitempty"`
	DataConnectors []DataConnector    `json:"dataConnectors,omitempty"`
	Dependants     []string           `json:"dependants,omitempty"`
}

// Layout is one scheduled layout, standalone or inside a campaign.
type Layout struct {
	// File is the layout identifier, e.g. "100.xlf".
	File string `json:"file"`

	Priority int `json:"priority,omitempty"`

	// FromDt and ToDt bound activity (inclusive). CMS timestamp strings;
	// empty means unbounded.
	FromDt string `json:"fromdt,omitempty"`
	ToDt   string `json:"todt,omitempty"`

	// RecurrenceType is "Week" or empty. Weekly recurrence compares
	// time-of-day with wrap-around across midnight.
	RecurrenceType string `json:"recurrenceType,omitempty"`

	// RecurrenceRepeatsOn is a comma-separated list of ISO days 1..7,
	// 1 = Monday.
	RecurrenceRepeatsOn string `json:"recurrenceRepeatsOn,omitempty"`

	// RecurrenceRange is an optional upper bound date for recurrence.
	RecurrenceRange string `json:"recurrenceRange,omitempty"`

	// MaxPlaysPerHour rate-limits the layout. 0 means unlimited.
	MaxPlaysPerHour int `json:"maxPlaysPerHour,omitempty"`

	Criteria []Criterion `json:"criteria,omitempty"`

	// IsGeoAware layouts only play within GeoLocation's fence.
	IsGeoAware bool `json:"isGeoAware,omitempty"`

	// GeoLocation is "lat,lng[,radiusMeters]"; radius defaults to 500 m.
	GeoLocation string `json:"geoLocation,omitempty"`

	// SyncEvent layouts play in lockstep across a display sync group.
	SyncEvent bool `json:"syncEvent,omitempty"`

	// ShareOfVoice is interrupt airtime per hour in seconds, 0..3600.
	ShareOfVoice int `json:"shareOfVoice,omitempty"`

	// Dependants are layout-specific resource identifiers.
	Dependants []string `json:"dependants,omitempty"`
}

// Campaign is an ordered group of layouts sharing time window and priority.
type Campaign struct {
	ID      string   `json:"id"`
	Layouts []Layout `json:"layouts"`
}

// Criterion is one predicate of a layout's criteria set. All criteria must
// pass (AND) for the layout to be active.
type Criterion struct {
	Metric    string `json:"metric"`
	Condition string `json:"condition"`
	Type      string `json:"type"` // "number" or "string"
	Value     string `json:"value"`
}

// Action maps a trigger code to a navigation or command.
type Action struct {
	TriggerCode string `json:"triggerCode"`
	ActionType  string `json:"actionType"` // navLayout, navigateToLayout, navWidget, command
	LayoutCode  string `json:"layoutCode,omitempty"`
	WidgetID    string `json:"widgetId,omitempty"`
	CommandCode string `json:"commandCode,omitempty"`
}

// ScheduledCommand runs a platform command at a fixed time.
type ScheduledCommand struct {
	Code string `json:"code"`
	Date string `json:"date"`
}

// DataConnector polls a URL for real-time data feeding criteria metrics.
type DataConnector struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Interval int    `json:"interval"` // seconds
}

// scheduleTimeLayouts are the timestamp formats the CMS is known to emit.
var scheduleTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a CMS schedule timestamp. Returns the zero time and false
// when the value is empty or unparseable.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduleTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Location is a WGS84 coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoFence is a parsed geoLocation attribute.
type GeoFence struct {
	Center       Location
	RadiusMeters float64
}

// ParseGeoFence parses "lat,lng[,radiusMeters]". Returns false for malformed
// input.
func ParseGeoFence(value string) (GeoFence, bool) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) < 2 {
		return GeoFence{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoFence{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoFence{}, false
	}
	fence := GeoFence{Center: Location{Latitude: lat, Longitude: lng}, RadiusMeters: DefaultGeoRadiusMeters}
	if len(parts) >= 3 {
		if radius, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err == nil && radius > 0 {
			fence.RadiusMeters = radius
		}
	}
	return fence, true
}

// isoDay returns the ISO-8601 day of week, 1 = Monday .. 7 = Sunday.
func isoDay(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// repeatsOnDay reports whether the comma-separated ISO day list contains t's
// weekday. An empty list admits every day.
func repeatsOnDay(repeatsOn string, t time.Time) bool {
	repeatsOn = strings.TrimSpace(repeatsOn)
	if repeatsOn == "" {
		return true
	}
	day := strconv.Itoa(isoDay(t))
	for _, part := range strings.Split(repeatsOn, ",") {
		if strings.TrimSpace(part) == day {
			return true
		}
	}
	return false
}
