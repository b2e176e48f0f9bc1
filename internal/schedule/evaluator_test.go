// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package schedule

import (
	"testing"
	"time"
)

// Monday 2026-03-02 12:00 local.
var monday = time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)

func window(from, to time.Time) (string, string) {
	const layout = "2006-01-02 15:04:05"
	return from.Format(layout), to.Format(layout)
}

func TestLayoutsNowTimeWindow(t *testing.T) {
	from, to := window(monday.Add(-time.Hour), monday.Add(time.Hour))
	pastFrom, pastTo := window(monday.Add(-3*time.Hour), monday.Add(-2*time.Hour))

	s := &Schedule{
		Layouts: []Layout{
			{File: "100.xlf", FromDt: from, ToDt: to},
			{File: "200.xlf", FromDt: pastFrom, ToDt: pastTo},
			{File: "300.xlf"}, // unbounded
		},
	}

	res := LayoutsNow(s, monday, Env{}, nil)
	want := []string{"100.xlf", "300.xlf"}
	if len(res.Layouts) != len(want) {
		t.Fatalf("got %d layouts, want %d: %+v", len(res.Layouts), len(want), res.Layouts)
	}
	for i, w := range want {
		if res.Layouts[i].File != w {
			t.Errorf("layout %d: got %q, want %q", i, res.Layouts[i].File, w)
		}
	}
}

func TestLayoutsNowInclusiveBounds(t *testing.T) {
	from, to := window(monday, monday.Add(time.Hour))
	s := &Schedule{Layouts: []Layout{{File: "100.xlf", FromDt: from, ToDt: to}}}

	if res := LayoutsNow(s, monday, Env{}, nil); len(res.Layouts) != 1 {
		t.Error("layout should be active exactly at fromdt")
	}
	if res := LayoutsNow(s, monday.Add(time.Hour), Env{}, nil); len(res.Layouts) != 1 {
		t.Error("layout should be active exactly at todt")
	}
	if res := LayoutsNow(s, monday.Add(time.Hour+time.Second), Env{}, nil); !res.UsedDefault && len(res.Layouts) != 0 {
		t.Error("layout should be inactive after todt")
	}
}

func TestLayoutsNowPriority(t *testing.T) {
	s := &Schedule{
		Layouts: []Layout{
			{File: "low.xlf", Priority: 1},
			{File: "high-a.xlf", Priority: 10},
			{File: "high-b.xlf", Priority: 10},
		},
	}

	res := LayoutsNow(s, monday, Env{}, nil)
	if len(res.Layouts) != 2 {
		t.Fatalf("expected 2 layouts at top priority, got %+v", res.Layouts)
	}
	if res.Layouts[0].File != "high-a.xlf" || res.Layouts[1].File != "high-b.xlf" {
		t.Errorf("unexpected order: %+v", res.Layouts)
	}
	if res.MaxActivePriority != 10 {
		t.Errorf("MaxActivePriority = %d, want 10", res.MaxActivePriority)
	}
}

func TestCampaignsCompeteWithStandaloneLayouts(t *testing.T) {
	s := &Schedule{
		Campaigns: []Campaign{{
			ID: "camp-1",
			Layouts: []Layout{
				{File: "c1.xlf", Priority: 5},
				{File: "c2.xlf", Priority: 5},
			},
		}},
		Layouts: []Layout{{File: "solo.xlf", Priority: 5}},
	}

	res := LayoutsNow(s, monday, Env{}, nil)
	want := []string{"c1.xlf", "c2.xlf", "solo.xlf"}
	if len(res.Layouts) != len(want) {
		t.Fatalf("got %+v, want files %v", res.Layouts, want)
	}
	for i, w := range want {
		if res.Layouts[i].File != w {
			t.Errorf("layout %d: got %q, want %q", i, res.Layouts[i].File, w)
		}
	}
	if res.Layouts[0].CampaignID != "camp-1" {
		t.Errorf("campaign id not carried: %+v", res.Layouts[0])
	}
}

func TestRateGateFiltersAfterPriorityTracking(t *testing.T) {
	s := &Schedule{
		Layouts: []Layout{
			{File: "limited.xlf", Priority: 10, MaxPlaysPerHour: 3},
			{File: "open.xlf", Priority: 1},
		},
	}

	gate := func(file string, max int) bool { return file != "limited.xlf" }

	res := LayoutsNow(s, monday, Env{}, gate)
	if len(res.Layouts) != 1 || res.Layouts[0].File != "open.xlf" {
		t.Fatalf("expected fallback to open.xlf, got %+v", res.Layouts)
	}
	// The rate-limited layout still defines the max active priority.
	if res.MaxActivePriority != 10 {
		t.Errorf("MaxActivePriority = %d, want 10", res.MaxActivePriority)
	}
}

func TestDefaultFallback(t *testing.T) {
	s := &Schedule{
		Default: "default.xlf",
		Layouts: []Layout{{File: "limited.xlf", MaxPlaysPerHour: 1}},
	}

	gate := func(string, int) bool { return false }

	res := LayoutsNow(s, monday, Env{}, gate)
	if !res.UsedDefault {
		t.Fatal("expected default fallback")
	}
	if len(res.Layouts) != 1 || res.Layouts[0].File != "default.xlf" || !res.Layouts[0].IsDefault {
		t.Errorf("unexpected result: %+v", res.Layouts)
	}
}

func TestNoDefaultEmptyResult(t *testing.T) {
	s := &Schedule{Layouts: []Layout{{File: "gone.xlf", ToDt: "2020-01-01 00:00:00"}}}
	res := LayoutsNow(s, monday, Env{}, nil)
	if len(res.Layouts) != 0 || res.UsedDefault {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestWeeklyRecurrenceDayFilter(t *testing.T) {
	from, to := window(monday.AddDate(0, -1, 0).Add(-3*time.Hour), monday.AddDate(0, -1, 0).Add(3*time.Hour))
	l := Layout{
		File:                "weekly.xlf",
		FromDt:              from,
		ToDt:                to,
		RecurrenceType:      RecurrenceWeek,
		RecurrenceRepeatsOn: "1,3", // Monday, Wednesday
	}
	s := &Schedule{Layouts: []Layout{l}}

	if res := LayoutsNow(s, monday, Env{}, nil); len(res.Layouts) != 1 {
		t.Error("expected active on Monday within time-of-day window")
	}

	tuesday := monday.AddDate(0, 0, 1)
	if res := LayoutsNow(s, tuesday, Env{}, nil); len(res.Layouts) != 0 {
		t.Error("expected inactive on Tuesday")
	}

	wednesday := monday.AddDate(0, 0, 2)
	if res := LayoutsNow(s, wednesday, Env{}, nil); len(res.Layouts) != 1 {
		t.Error("expected active on Wednesday")
	}
}

func TestWeeklyRecurrenceMidnightWrap(t *testing.T) {
	// Window 22:00 .. 02:00 wraps midnight.
	base := monday.AddDate(0, 0, -14)
	from := time.Date(base.Year(), base.Month(), base.Day(), 22, 0, 0, 0, time.Local)
	to := time.Date(base.Year(), base.Month(), base.Day()+1, 2, 0, 0, 0, time.Local)
	fromStr, toStr := window(from, to)

	l := Layout{File: "night.xlf", FromDt: fromStr, ToDt: toStr, RecurrenceType: RecurrenceWeek}
	s := &Schedule{Layouts: []Layout{l}}

	at := func(hour int) time.Time {
		return time.Date(monday.Year(), monday.Month(), monday.Day(), hour, 0, 0, 0, time.Local)
	}

	if res := LayoutsNow(s, at(23), Env{}, nil); len(res.Layouts) != 1 {
		t.Error("expected active at 23:00")
	}
	if res := LayoutsNow(s, at(1), Env{}, nil); len(res.Layouts) != 1 {
		t.Error("expected active at 01:00")
	}
	if res := LayoutsNow(s, at(12), Env{}, nil); len(res.Layouts) != 0 {
		t.Error("expected inactive at noon")
	}
}

func TestWeeklyRecurrenceNotBeforeStart(t *testing.T) {
	from, to := window(monday.Add(24*time.Hour), monday.Add(26*time.Hour))
	l := Layout{File: "future.xlf", FromDt: from, ToDt: to, RecurrenceType: RecurrenceWeek}
	s := &Schedule{Layouts: []Layout{l}}

	if res := LayoutsNow(s, monday, Env{}, nil); len(res.Layouts) != 0 {
		t.Error("weekly recurrence must not fire before its start date")
	}
}

func TestRecurrenceRangeBound(t *testing.T) {
	from, to := window(monday.AddDate(0, 0, -30), monday.AddDate(0, 0, 30))
	l := Layout{
		File:            "ranged.xlf",
		FromDt:          from,
		ToDt:            to,
		RecurrenceRange: monday.AddDate(0, 0, -1).Format("2006-01-02 15:04:05"),
	}
	s := &Schedule{Layouts: []Layout{l}}

	if res := LayoutsNow(s, monday, Env{}, nil); len(res.Layouts) != 0 {
		t.Error("expected inactive past recurrenceRange")
	}
}

func TestGeoAwareLayout(t *testing.T) {
	l := Layout{File: "geo.xlf", IsGeoAware: true, GeoLocation: "51.5074,-0.1278,1000"}
	s := &Schedule{Layouts: []Layout{l}}

	inside := &Location{Latitude: 51.5080, Longitude: -0.1280}
	outside := &Location{Latitude: 48.8566, Longitude: 2.3522}

	if res := LayoutsNow(s, monday, Env{Location: inside}, nil); len(res.Layouts) != 1 {
		t.Error("expected active inside fence")
	}
	if res := LayoutsNow(s, monday, Env{Location: outside}, nil); len(res.Layouts) != 0 {
		t.Error("expected inactive outside fence")
	}
	// Unknown location is permissive.
	if res := LayoutsNow(s, monday, Env{}, nil); len(res.Layouts) != 1 {
		t.Error("expected active with unknown location")
	}
}

func TestAllLayoutsAtIgnoresRateLimit(t *testing.T) {
	s := &Schedule{
		Layouts: []Layout{
			{File: "a.xlf", Priority: 5, MaxPlaysPerHour: 1},
			{File: "b.xlf", Priority: 1},
		},
	}

	all := AllLayoutsAt(s, monday, Env{})
	if len(all) != 2 {
		t.Fatalf("expected both layouts, got %+v", all)
	}
	if all[0].MaxPlaysPerHour != 1 {
		t.Error("rate-limit metadata must be preserved for the predictor")
	}
}

func TestEvaluationIsStable(t *testing.T) {
	s := &Schedule{
		Layouts: []Layout{
			{File: "100.xlf", Priority: 2},
			{File: "200.xlf", Priority: 2},
		},
	}

	first := LayoutsNow(s, monday, Env{}, nil)
	second := LayoutsNow(s, monday, Env{}, nil)
	if len(first.Layouts) != len(second.Layouts) {
		t.Fatal("repeated evaluation changed the result length")
	}
	for i := range first.Layouts {
		if first.Layouts[i].File != second.Layouts[i].File {
			t.Errorf("repeated evaluation reordered layouts at %d", i)
		}
	}
}

func TestNilSchedule(t *testing.T) {
	if res := LayoutsNow(nil, monday, Env{}, nil); len(res.Layouts) != 0 {
		t.Error("nil schedule must yield empty result")
	}
	if all := AllLayoutsAt(nil, monday, Env{}); all != nil {
		t.Error("nil schedule must yield nil candidates")
	}
}
