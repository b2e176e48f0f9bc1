// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package ratelimit

import (
	"testing"
	"time"
)

// fakeClock advances manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
}

func newTestLimiter(c *fakeClock) *Limiter { return NewLimiterWithClock(c.now) }

func TestUnlimitedLayoutAlwaysAllowed(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	for i := 0; i < 100; i++ {
		if !l.Allow("free.xlf", 0) {
			t.Fatal("zero cap must be unlimited")
		}
		l.RecordPlay("free.xlf")
	}
}

func TestEvenDistributionGap(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	// 3 plays per hour: minimum gap 20 minutes.
	if !l.Allow("472", 3) {
		t.Fatal("first play must be allowed")
	}
	l.RecordPlay("472")

	clock.advance(10 * time.Minute)
	if l.Allow("472", 3) {
		t.Error("10 minutes after a play the gap gate must block")
	}

	clock.advance(11 * time.Minute) // t = 21 min
	if !l.Allow("472", 3) {
		t.Error("21 minutes after a play the layout must be eligible")
	}
}

func TestHourlyCap(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	// Three plays 21 minutes apart stay within both gates.
	for i := 0; i < 3; i++ {
		if !l.Allow("472", 3) {
			t.Fatalf("play %d should be allowed", i)
		}
		l.RecordPlay("472")
		clock.advance(21 * time.Minute)
	}

	// 63 minutes in: the first play (t=0) has fallen out of the window,
	// so the count is 2 and the gap is satisfied.
	if !l.Allow("472", 3) {
		t.Error("expected eligibility once the oldest play left the window")
	}

	// Rewind-free check of the cap itself: three plays in quick succession
	// with the gap gate off (cap 3600 -> gap 1s).
	l2 := newTestLimiter(newFakeClock())
	for i := 0; i < 3; i++ {
		l2.RecordPlay("busy")
	}
	if l2.Allow("busy", 3) {
		t.Error("three plays inside the hour must exhaust a cap of 3")
	}
}

func TestHistoryGarbageCollection(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	l.RecordPlay("100.xlf")
	if got := l.PlayCount("100.xlf"); got != 1 {
		t.Fatalf("PlayCount = %d, want 1", got)
	}

	clock.advance(61 * time.Minute)
	if got := l.PlayCount("100.xlf"); got != 0 {
		t.Errorf("PlayCount after window = %d, want 0", got)
	}
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	l.RecordPlay("a")
	l.RecordPlay("b")
	l.Reset()

	if l.PlayCount("a") != 0 || l.PlayCount("b") != 0 {
		t.Error("Reset must drop all history")
	}
}

func TestSlidingWindowInvariant(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock)

	// Simulate two hours of attempts every minute against a cap of 4.
	const capPerHour = 4
	var played []time.Time
	for i := 0; i < 120; i++ {
		if l.Allow("inv", capPerHour) {
			l.RecordPlay("inv")
			played = append(played, clock.t)
		}
		clock.advance(time.Minute)
	}

	// No sliding 60-minute window may contain more than capPerHour plays,
	// and consecutive plays must be >= 15 minutes apart.
	minGap := time.Hour / capPerHour
	for i := 1; i < len(played); i++ {
		if played[i].Sub(played[i-1]) < minGap {
			t.Fatalf("gap violation between %v and %v", played[i-1], played[i])
		}
	}
	for i := range played {
		count := 0
		for j := i; j < len(played) && played[j].Sub(played[i]) < time.Hour; j++ {
			count++
		}
		if count > capPerHour {
			t.Fatalf("window starting %v holds %d plays, cap %d", played[i], count, capPerHour)
		}
	}
}
