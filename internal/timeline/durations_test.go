// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package timeline

import "testing"

func TestParseXLFDuration(t *testing.T) {
	tests := []struct {
		name string
		xlf  string
		want int
	}{
		{
			"explicit layout duration",
			`<layout duration="95"><region><media type="image" duration="10"/></region></layout>`,
			95,
		},
		{
			"max region sum",
			`<layout>
				<region>
					<media type="image" duration="10"/>
					<media type="image" duration="15"/>
				</region>
				<region>
					<media type="text" duration="40"/>
				</region>
			</layout>`,
			40,
		},
		{
			"video playing to completion counts as placeholder",
			`<layout><region><media type="video" duration="0" useDuration="0"/></region></layout>`,
			60,
		},
		{
			"video with explicit duration",
			`<layout><region><media type="video" duration="37" useDuration="1"/></region></layout>`,
			37,
		},
		{
			"empty layout falls back",
			`<layout></layout>`,
			DefaultDuration,
		},
		{
			"malformed markup falls back",
			`<layout><region>`,
			DefaultDuration,
		},
		{
			"non-numeric duration attr",
			`<layout duration="soon"><region><media type="image" duration="25"/></region></layout>`,
			25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseXLFDuration([]byte(tt.xlf)); got != tt.want {
				t.Errorf("ParseXLFDuration = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDurationsNeverShrinkLongObservations(t *testing.T) {
	d := NewDurations()

	d.Record("100.xlf", 180)
	d.Record("100.xlf", 90)
	if got := d.Get("100.xlf"); got != 180 {
		t.Errorf("duration = %d, want the longer 180 kept", got)
	}

	// Growing is always allowed.
	d.Record("100.xlf", 240)
	if got := d.Get("100.xlf"); got != 240 {
		t.Errorf("duration = %d, want 240", got)
	}

	// At or below the placeholder, corrections apply freely.
	d.Record("200.xlf", 60)
	d.Record("200.xlf", 20)
	if got := d.Get("200.xlf"); got != 20 {
		t.Errorf("duration = %d, want placeholder-level corrected to 20", got)
	}
}

func TestDurationsUnknownFallsBack(t *testing.T) {
	d := NewDurations()
	if got := d.Get("missing.xlf"); got != DefaultDuration {
		t.Errorf("unknown duration = %d, want %d", got, DefaultDuration)
	}
	d.Record("bad.xlf", -5)
	if got := d.Get("bad.xlf"); got != DefaultDuration {
		t.Errorf("negative record must be ignored, got %d", got)
	}
}
