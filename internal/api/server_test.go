// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/signawave/signawave/internal/config"
	"github.com/signawave/signawave/internal/core"
	"github.com/signawave/signawave/internal/schedule"
	"github.com/signawave/signawave/internal/timeline"
)

type fakeSource struct {
	status core.Status
	sched  *schedule.Schedule
}

func (f *fakeSource) StatusSnapshot() core.Status { return f.status }
func (f *fakeSource) ScheduleSnapshot() (*schedule.Schedule, schedule.Env) {
	return f.sched, schedule.Env{}
}

func newTestServer(src *fakeSource) *httptest.Server {
	s := NewServer(config.APIConfig{Host: "127.0.0.1", Port: 0}, src, timeline.NewDurations(), 2)
	return httptest.NewServer(s.Routes())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	src := &fakeSource{status: core.Status{
		CurrentLayoutID: "100.xlf",
		ActiveLayouts:   []string{"100.xlf", "200.xlf"},
		Offline:         true,
		RetryInterval:   30 * time.Second,
	}}
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got core.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CurrentLayoutID != "100.xlf" || !got.Offline || len(got.ActiveLayouts) != 2 {
		t.Errorf("status = %+v", got)
	}
}

func TestTimelineEndpoint(t *testing.T) {
	now := time.Now()
	src := &fakeSource{sched: &schedule.Schedule{
		Layouts: []schedule.Layout{{
			File:   "100.xlf",
			FromDt: now.Add(-time.Hour).Format("2006-01-02 15:04:05"),
			ToDt:   now.Add(24 * time.Hour).Format("2006-01-02 15:04:05"),
		}},
	}}
	srv := newTestServer(src)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/timeline")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got struct {
		Hours   int              `json:"hours"`
		Entries []timeline.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Hours != 2 {
		t.Errorf("hours = %d, want 2", got.Hours)
	}
	if len(got.Entries) == 0 || got.Entries[0].LayoutFile != "100.xlf" {
		t.Errorf("entries = %+v", got.Entries)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
