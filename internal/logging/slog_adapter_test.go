// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })

	slogger := slog.New(NewSlogHandler())
	slogger.Info("service started", slog.String("supervisor", "root"), slog.Int("restarts", 2))

	out := buf.String()
	for _, want := range []string{"service started", `"supervisor":"root"`, `"restarts":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })

	slogger := slog.New(NewSlogHandler()).WithGroup("suture")
	slogger.Warn("service failed", slog.String("service", "player-core"))

	if !strings.Contains(buf.String(), `"suture.service":"player-core"`) {
		t.Errorf("group prefix missing: %s", buf.String())
	}
}

func TestNewSlogLogger(t *testing.T) {
	if NewSlogLogger() == nil {
		t.Fatal("NewSlogLogger returned nil")
	}
}
