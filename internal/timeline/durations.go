// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package timeline projects future playback over a bounded horizon: which
// layout plays when, honoring rate limits and priority fallback, without
// touching the live selector state.
package timeline

import (
	"encoding/xml"
	"strconv"
	"sync"
)

// DefaultDuration is the placeholder for layouts whose duration is unknown,
// and for videos that play to completion (useDuration=0).
const DefaultDuration = 60

// Durations caches per-layout durations in seconds, fed from parsed XLF
// files and corrected by observed playback.
type Durations struct {
	mu     sync.Mutex
	byFile map[string]int
}

// NewDurations creates an empty duration cache.
func NewDurations() *Durations {
	return &Durations{byFile: make(map[string]int)}
}

// Get returns the cached duration for a layout file, or DefaultDuration when
// none is known.
func (d *Durations) Get(file string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.byFile[file]; ok && v > 0 {
		return v
	}
	return DefaultDuration
}

// Record stores an observed duration. A correction never shrinks a
// previously observed duration above the placeholder: a video-bearing layout
// that once ran long keeps its long estimate.
func (d *Durations) Record(file string, seconds int) {
	if seconds <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.byFile[file]; ok && cur > DefaultDuration && seconds < cur {
		return
	}
	d.byFile[file] = seconds
}

// ParseXLF parses a cached layout file and records its duration. Returns the
// parsed duration, falling back to DefaultDuration on malformed input.
func (d *Durations) ParseXLF(file string, data []byte) int {
	seconds := ParseXLFDuration(data)
	d.Record(file, seconds)
	return seconds
}

// xlfLayout is the subset of the XLF markup the predictor needs. The layout
// file format is otherwise opaque to the core.
type xlfLayout struct {
	XMLName  xml.Name    `xml:"layout"`
	Duration string      `xml:"duration,attr"`
	Regions  []xlfRegion `xml:"region"`
}

type xlfRegion struct {
	Media []xlfMedia `xml:"media"`
}

type xlfMedia struct {
	Type        string `xml:"type,attr"`
	Duration    string `xml:"duration,attr"`
	UseDuration string `xml:"useDuration,attr"`
}

// ParseXLFDuration extracts a layout's duration in seconds: the explicit
// layout duration attribute when present, else the maximum across regions of
// the summed media durations. Videos playing to completion (useDuration=0)
// count as the placeholder until observed.
func ParseXLFDuration(data []byte) int {
	var layout xlfLayout
	if err := xml.Unmarshal(data, &layout); err != nil {
		return DefaultDuration
	}

	if v, err := strconv.Atoi(layout.Duration); err == nil && v > 0 {
		return v
	}

	max := 0
	for _, region := range layout.Regions {
		sum := 0
		for _, media := range region.Media {
			sum += mediaDuration(media)
		}
		if sum > max {
			max = sum
		}
	}
	if max <= 0 {
		return DefaultDuration
	}
	return max
}

func mediaDuration(m xlfMedia) int {
	if m.Type == "video" && m.UseDuration == "0" {
		return DefaultDuration
	}
	if v, err := strconv.Atoi(m.Duration); err == nil && v > 0 {
		return v
	}
	return 0
}
