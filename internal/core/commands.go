// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package core

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/signawave/signawave/internal/events"
	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/metrics"
	"github.com/signawave/signawave/internal/schedule"
)

// The command processor: scheduled commands fire exactly once per
// (code, date) pair for a given schedule identity; on-demand commands come
// from push messages and trigger actions.

const defaultCommandContentType = "application/json"

// runScheduledCommands walks the schedule's command list and fires every
// entry whose time has come and whose key is not yet executed.
func (c *Core) runScheduledCommands(now time.Time) {
	c.mu.Lock()
	sched := c.sched
	if sched == nil {
		c.mu.Unlock()
		return
	}

	var fired []schedule.ScheduledCommand
	queueCollect := false
	for _, cmd := range sched.Commands {
		date, ok := schedule.ParseTime(cmd.Date)
		if !ok {
			logging.Warn().Str("code", cmd.Code).Str("date", cmd.Date).Msg("scheduled command has unparseable date, skipping")
			continue
		}
		key := cmd.Code + "|" + cmd.Date
		if _, done := c.executedCommands[key]; done {
			continue
		}
		if now.Before(date) {
			continue
		}
		c.executedCommands[key] = struct{}{}

		if cmd.Code == "collectNow" {
			// Run on the next loop pass, never mid-cycle.
			queueCollect = true
			continue
		}
		fired = append(fired, schedule.ScheduledCommand{Code: cmd.Code, Date: cmd.Date})
	}
	c.mu.Unlock()

	if queueCollect {
		metrics.CommandsExecuted.WithLabelValues("scheduled", "ok").Inc()
		c.QueueCollect()
	}
	for _, cmd := range fired {
		date, _ := schedule.ParseTime(cmd.Date)
		metrics.CommandsExecuted.WithLabelValues("scheduled", "ok").Inc()
		c.bus.Publish(events.ScheduledCommand{Code: cmd.Code, Date: date})
	}
}

// ExecuteCommand runs one CMS-configured command by code. HTTP commands POST
// directly; anything else is delegated to the platform shell.
func (c *Core) ExecuteCommand(code string) {
	c.mu.Lock()
	cmd, ok := c.commands[code]
	c.mu.Unlock()

	if !ok {
		c.finishCommand("unknown", events.CommandResult{Code: code, Success: false, Reason: "Unknown command"})
		return
	}

	commandString := cmd.String()
	scheme, rest, _ := strings.Cut(commandString, "|")
	if scheme != "http" {
		metrics.CommandsExecuted.WithLabelValues("native", "ok").Inc()
		c.bus.Publish(events.ExecuteNativeCommand{Code: code, CommandString: commandString})
		return
	}

	url, contentType, found := strings.Cut(rest, "|")
	if !found || contentType == "" {
		contentType = defaultCommandContentType
	}

	status, err := c.breaker.Execute(func() (int, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CMS.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	})
	if err != nil {
		c.finishCommand("http", events.CommandResult{Code: code, Success: false, Reason: err.Error()})
		return
	}

	c.finishCommand("http", events.CommandResult{
		Code:    code,
		Success: status >= 200 && status < 300,
		Status:  status,
	})
}

// finishCommand records the outcome for status-report enrichment and emits
// the result.
func (c *Core) finishCommand(kind string, res events.CommandResult) {
	c.mu.Lock()
	c.lastCommandSuccess = res.Success
	c.mu.Unlock()

	outcome := "ok"
	if !res.Success {
		outcome = "error"
	}
	metrics.CommandsExecuted.WithLabelValues(kind, outcome).Inc()
	c.bus.Publish(res)
}

// HandleTrigger resolves a trigger code against the schedule's actions and
// dispatches on the action type.
func (c *Core) HandleTrigger(code string) {
	c.mu.Lock()
	var action *schedule.Action
	if c.sched != nil {
		for i := range c.sched.Actions {
			if c.sched.Actions[i].TriggerCode == code {
				action = &c.sched.Actions[i]
				break
			}
		}
	}
	c.mu.Unlock()

	if action == nil {
		logging.Warn().Str("trigger", code).Msg("no action for trigger code")
		return
	}

	switch action.ActionType {
	case "navLayout", "navigateToLayout":
		c.ChangeLayout(action.LayoutCode, 0, "")
	case "navWidget":
		c.bus.Publish(events.NavigateToWidget{WidgetID: action.WidgetID, LayoutCode: action.LayoutCode})
	case "command":
		c.ExecuteCommand(action.CommandCode)
	default:
		logging.Warn().Str("trigger", code).Str("type", action.ActionType).Msg("unknown action type, ignoring")
	}
}

// The remaining push.Handler callbacks.

// PurgeAll asks the cache to drop everything and queues a fresh collection.
// A nil item list means the whole cache.
func (c *Core) PurgeAll() {
	c.bus.Publish(events.PurgeRequest{Items: nil})
	c.QueueCollect()
}

// RequestScreenshot forwards a CMS screenshot request to the platform shell.
func (c *Core) RequestScreenshot() {
	c.bus.Publish(events.ScreenshotRequest{})
}

// ReportGeoLocation updates the player's location; geo-aware layouts use it
// on the next evaluation.
func (c *Core) ReportGeoLocation(latitude, longitude float64) {
	c.mu.Lock()
	c.env.Location = &schedule.Location{Latitude: latitude, Longitude: longitude}
	c.mu.Unlock()
}

// RefreshDataConnector pokes one data connector by key. Connector polling is
// an external service; the core only records the request.
func (c *Core) RefreshDataConnector(key string) {
	logging.Info().Str("key", key).Msg("data connector refresh requested")
}

// CollectNow queues an immediate collection.
func (c *Core) CollectNow() {
	c.QueueCollect()
}
