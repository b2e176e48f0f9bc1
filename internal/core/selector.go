// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package core

import (
	"time"

	"github.com/signawave/signawave/internal/events"
	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/metrics"
	"github.com/signawave/signawave/internal/schedule"
)

// The layout selector: round-robin cursor, override stack, and transition
// triggers. Exactly one of {override, round-robin} drives selection at any
// instant; override preempts.
//
// Every method collects its events under mu and publishes after unlocking, so
// a slow subscriber can never stall a transition.

// applyEvaluation feeds a fresh evaluation result to the selector and runs
// the cycle decision tree.
func (c *Core) applyEvaluation(res schedule.Result) {
	c.mu.Lock()
	c.active = res.Layouts

	if c.ovr != nil {
		// An override is driving; the new set takes effect on revert. The
		// cursor must stay in range of the replaced set now, not at revert
		// time, because a rotation callback can land in between.
		if c.index >= len(c.active) {
			c.index = 0
		}
		c.mu.Unlock()
		return
	}

	var out []events.Event
	switch {
	case len(c.active) == 0:
		// The evaluator already substitutes the default, so an empty set
		// means there is nothing at all to show.
		c.currentID = ""
		out = append(out, events.NoLayoutsScheduled{})

	case c.currentID != "" && c.alignIndexLocked(c.currentID):
		out = append(out, events.LayoutAlreadyPlaying{LayoutID: c.currentID})

	default:
		c.index = 0
		chosen := c.firstPlayableLocked()
		out = append(out, c.prepareLocked(chosen, "schedule"))
	}
	c.mu.Unlock()

	for _, ev := range out {
		c.bus.Publish(ev)
	}
}

// alignIndexLocked points the cursor at the given layout if it is in the
// active set. Caller holds mu.
func (c *Core) alignIndexLocked(layoutID string) bool {
	for i, l := range c.active {
		if l.File == layoutID {
			c.index = i
			return true
		}
	}
	return false
}

// firstPlayableLocked returns the first non-blacklisted layout starting at
// the cursor. When every layout is blacklisted the first one plays anyway: a
// possibly broken render beats a blank screen. Caller holds mu.
func (c *Core) firstPlayableLocked() schedule.ActiveLayout {
	for i := 0; i < len(c.active); i++ {
		l := c.active[(c.index+i)%len(c.active)]
		if !c.tracker.IsBlacklisted(l.File) {
			c.index = (c.index + i) % len(c.active)
			return l
		}
	}
	c.index = c.index % len(c.active)
	return c.active[c.index]
}

// prepareLocked commits a transition to the given layout and builds the
// prepare event. Caller holds mu.
func (c *Core) prepareLocked(l schedule.ActiveLayout, trigger string) events.Event {
	// A single-layout schedule (or a one-entry wrap-around) re-prepares the
	// same id; the renderer treats that as a remount.
	c.currentID = l.File
	c.lastLayoutChange = c.now()
	delete(c.pending, l.File)
	metrics.LayoutPrepares.WithLabelValues(trigger).Inc()
	return events.LayoutPrepareRequest{LayoutID: l.File}
}

// AdvanceNext rotates to the next scheduled layout. The renderer calls it
// when the current layout finishes.
func (c *Core) AdvanceNext() {
	c.advance(1, true)
}

// AdvancePrevious rotates backwards. Manual navigation is local, so sync
// delegation is skipped.
func (c *Core) AdvancePrevious() {
	c.advance(-1, false)
}

func (c *Core) advance(step int, allowSync bool) {
	c.mu.Lock()

	if c.ovr != nil {
		c.mu.Unlock()
		return
	}

	if len(c.active) == 0 {
		currentID := c.currentID
		c.mu.Unlock()
		// Never-blank guarantee: replay whatever is up rather than clearing
		// the screen.
		if currentID != "" {
			metrics.LayoutPrepares.WithLabelValues("rotation").Inc()
			c.bus.Publish(events.LayoutPrepareRequest{LayoutID: currentID})
		} else {
			c.bus.Publish(events.NoLayoutsScheduled{})
		}
		return
	}

	n := len(c.active)
	if c.index >= n {
		c.index = 0
	}
	chosen := c.active[c.index]
	for i := 1; i <= n; i++ {
		candidate := c.active[((c.index+step*i)%n+n)%n]
		if !c.tracker.IsBlacklisted(candidate.File) {
			chosen = candidate
			c.index = ((c.index+step*i)%n + n) % n
			break
		}
		// One full revolution of blacklisted layouts: replay current.
	}

	if allowSync && chosen.SyncEvent && c.Sync != nil {
		sync := c.Sync
		c.mu.Unlock()
		if sync.PrepareSyncLayout(chosen.File) {
			return
		}
		c.mu.Lock()
	}

	ev := c.prepareLocked(chosen, "rotation")
	c.mu.Unlock()
	c.bus.Publish(ev)
}

// ChangeLayout imposes a layout outside the rotation. A positive duration
// arms an auto revert after that many seconds.
func (c *Core) ChangeLayout(layoutID string, duration int, changeMode string) {
	if layoutID == "" {
		logging.Warn().Msg("changeLayout without a layout id, ignoring")
		return
	}

	c.mu.Lock()
	c.stopRevertTimerLocked()
	c.ovr = &override{layoutID: layoutID, kind: "change", changeMode: changeMode}
	c.currentID = layoutID
	c.lastLayoutChange = c.now()
	if duration > 0 {
		c.revertTimer = time.AfterFunc(time.Duration(duration)*time.Second, c.RevertToSchedule)
	}
	c.mu.Unlock()

	metrics.LayoutPrepares.WithLabelValues("override").Inc()
	c.bus.Publish(events.LayoutPrepareRequest{
		LayoutID:   layoutID,
		Override:   true,
		ChangeMode: changeMode,
	})
}

// OverlayLayout draws a layout above the rotation without replacing it.
func (c *Core) OverlayLayout(layoutID string, duration int) {
	if layoutID == "" {
		logging.Warn().Msg("overlayLayout without a layout id, ignoring")
		return
	}

	c.mu.Lock()
	c.ovr = &override{layoutID: layoutID, kind: "overlay"}
	c.mu.Unlock()

	metrics.LayoutPrepares.WithLabelValues("overlay").Inc()
	c.bus.Publish(events.OverlayLayoutRequest{LayoutID: layoutID, Duration: duration})
}

// RevertToSchedule clears any override and re-runs the decision tree.
func (c *Core) RevertToSchedule() {
	c.mu.Lock()
	c.stopRevertTimerLocked()
	c.ovr = nil
	c.currentID = ""
	active := c.active
	c.mu.Unlock()

	c.bus.Publish(events.RevertToSchedule{})
	c.applyEvaluation(schedule.Result{Layouts: active})
}

func (c *Core) stopRevertTimerLocked() {
	if c.revertTimer != nil {
		c.revertTimer.Stop()
		c.revertTimer = nil
	}
}

// SetPending records that the renderer is waiting on downloads before it can
// show a layout.
func (c *Core) SetPending(layoutID string, requiredMediaIDs []string) {
	c.mu.Lock()
	c.pending[layoutID] = append([]string(nil), requiredMediaIDs...)
	c.mu.Unlock()
}

// NotifyMediaReady tells the selector the cache finished a file. Every
// pending layout whose required set contains it gets a re-check event.
func (c *Core) NotifyMediaReady(id, mediaType string) {
	c.mu.Lock()
	var out []events.Event
	for layoutID, required := range c.pending {
		matched := mediaType == "layout" && layoutID == id
		for _, rid := range required {
			if rid == id {
				matched = true
				break
			}
		}
		if matched {
			out = append(out, events.CheckPendingLayout{
				LayoutID:    layoutID,
				RequiredIDs: append([]string(nil), required...),
			})
		}
	}
	c.mu.Unlock()

	for _, ev := range out {
		c.bus.Publish(ev)
	}
}

// NotifyLayoutStarted is the renderer's success callback: the play is
// recorded for rate limiting and any failure streak is forgiven.
func (c *Core) NotifyLayoutStarted(layoutID string) {
	c.limiter.RecordPlay(layoutID)
	c.tracker.ReportSuccess(layoutID)

	c.mu.Lock()
	delete(c.pending, layoutID)
	c.mu.Unlock()
}

// NotifyLayoutFailed is the renderer's failure callback. After the threshold
// the tracker blacklists the layout and the next advance skips it.
func (c *Core) NotifyLayoutFailed(layoutID, reason string) {
	c.tracker.ReportFailure(layoutID, reason)
}
