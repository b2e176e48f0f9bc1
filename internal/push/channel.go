// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

// Package push maintains the real-time WebSocket channel from the CMS. The
// CMS uses it to inject layout overrides, purges, commands, and triggers
// between collection cycles.
//
// The channel holds only a narrow Handler back into the core; the core owns
// the channel. This keeps the reference cycle one-directional at the type
// level.
package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/signawave/signawave/internal/logging"
	"github.com/signawave/signawave/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// Misconfiguration reasons returned by ValidateAddress.
const (
	ReasonMissing       = "missing"
	ReasonWrongProtocol = "wrongProtocol"
	ReasonPlaceholder   = "placeholder"
)

// Handler is the callback surface the channel invokes on the core. Every
// method must be safe to call from the channel's read goroutine.
type Handler interface {
	ChangeLayout(layoutID string, duration int, changeMode string)
	OverlayLayout(layoutID string, duration int)
	RevertToSchedule()
	PurgeAll()
	ExecuteCommand(code string)
	HandleTrigger(code string)
	RequestScreenshot()
	ReportGeoLocation(latitude, longitude float64)
	RefreshDataConnector(key string)
	CollectNow()
}

// ValidateAddress checks a push address before any dial. It returns a
// misconfiguration reason and false when the address is unusable.
func ValidateAddress(address string) (string, bool) {
	if strings.TrimSpace(address) == "" {
		return ReasonMissing, false
	}
	if strings.HasPrefix(address, "tcp://") {
		return ReasonWrongProtocol, false
	}
	if u, err := url.Parse(address); err == nil {
		host := strings.ToLower(u.Hostname())
		if host == "example.com" || host == "example.org" || strings.HasPrefix(host, "example.") {
			return ReasonPlaceholder, false
		}
	}
	return "", true
}

// message is one push frame from the CMS.
type message struct {
	Action      string  `json:"action"`
	LayoutID    string  `json:"layoutId,omitempty"`
	Duration    int     `json:"duration,omitempty"`
	ChangeMode  string  `json:"changeMode,omitempty"`
	CommandCode string  `json:"commandCode,omitempty"`
	TriggerCode string  `json:"triggerCode,omitempty"`
	Key         string  `json:"key,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
}

// Channel is the CMS push connection. Start dials and spawns the pumps;
// Stop is idempotent. The core restarts a dropped channel on its next
// collection cycle.
type Channel struct {
	handler Handler
	dialer  *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	done      chan struct{}
}

// New creates a channel bound to the given handler.
func New(handler Handler) *Channel {
	return &Channel{
		handler: handler,
		dialer:  websocket.DefaultDialer,
	}
}

// Start dials the push address and begins dispatching messages. The cmsKey
// authenticates the display in the connection handshake query.
func (c *Channel) Start(ctx context.Context, address, cmsKey string) error {
	c.Stop()

	u, err := url.Parse(address)
	if err != nil {
		return fmt.Errorf("parse push address: %w", err)
	}
	q := u.Query()
	q.Set("cmsKey", cmsKey)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.done = done
	c.mu.Unlock()

	go c.readPump(conn, done)
	go c.pingLoop(conn, done)

	logging.Info().Str("address", address).Msg("push channel started")
	return nil
}

// IsConnected reports whether the channel is currently up.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Stop closes the connection. Safe to call at any time, repeatedly.
func (c *Channel) Stop() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.connected = false
	c.done = nil
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn != nil {
		_ = conn.Close() // best-effort cleanup
	}
}

// markDisconnected records a dropped connection without tearing down state
// owned by Stop.
func (c *Channel) markDisconnected(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.connected = false
	}
	c.mu.Unlock()
}

// readPump reads frames until the connection drops, dispatching each to the
// handler.
func (c *Channel) readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		c.markDisconnected(conn)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("push read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-done:
			return
		default:
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Msg("push channel dropped")
			}
			return
		}

		var msg message
		if err := json.Unmarshal(payload, &msg); err != nil {
			logging.Warn().Err(err).Msg("undecodable push frame, ignoring")
			continue
		}
		c.dispatch(msg)
	}
}

// pingLoop keeps the connection alive; the CMS answers pings with pongs that
// extend the read deadline.
func (c *Channel) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one frame to the handler. Unknown actions are logged and
// dropped; the CMS may be newer than the player.
func (c *Channel) dispatch(msg message) {
	logging.Debug().Str("action", msg.Action).Msg("push message")
	metrics.PushMessages.WithLabelValues(msg.Action).Inc()

	switch msg.Action {
	case "changeLayout":
		c.handler.ChangeLayout(msg.LayoutID, msg.Duration, msg.ChangeMode)
	case "overlayLayout":
		c.handler.OverlayLayout(msg.LayoutID, msg.Duration)
	case "revertToSchedule":
		c.handler.RevertToSchedule()
	case "purgeAll":
		c.handler.PurgeAll()
	case "commandAction":
		c.handler.ExecuteCommand(msg.CommandCode)
	case "triggerWebhook":
		c.handler.HandleTrigger(msg.TriggerCode)
	case "screenShot":
		c.handler.RequestScreenshot()
	case "currentGeoLocation":
		c.handler.ReportGeoLocation(msg.Latitude, msg.Longitude)
	case "dataUpdate":
		c.handler.RefreshDataConnector(msg.Key)
	case "collectNow":
		c.handler.CollectNow()
	default:
		logging.Warn().Str("action", msg.Action).Msg("unknown push action, ignoring")
	}
}
