// Signawave - Digital Signage Player Orchestration Core
// Copyright 2026 Signawave Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signawave/signawave

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/signawave/signawave/internal/schedule"
)

// Client is the JSON-over-HTTP transport. Every RPC is a POST against the
// CMS player endpoint, authenticated by the server key and the display's
// hardware key; failures come back wrapped in ErrTransport so the collection
// loop can branch into offline mode.
type Client struct {
	baseURL     string
	serverKey   string
	hardwareKey string
	displayName string
	http        *http.Client
}

// ClientConfig configures the HTTP transport.
type ClientConfig struct {
	Address     string
	ServerKey   string
	HardwareKey string
	DisplayName string
	Timeout     time.Duration
}

// NewClient builds the CMS client. The timeout bounds every RPC.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("parse cms address: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("cms address must be http(s), got %q", cfg.Address)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(base.String(), "/"),
		serverKey:   cfg.ServerKey,
		hardwareKey: cfg.HardwareKey,
		displayName: cfg.DisplayName,
		http:        &http.Client{Timeout: timeout},
	}, nil
}

// SetHardwareKey installs the persistent display identity. Registration
// requires it; the core reads it from the offline store at startup.
func (c *Client) SetHardwareKey(key string) {
	c.hardwareKey = key
}

// RegisterDisplay announces the display and fetches settings and change
// tokens.
func (c *Client) RegisterDisplay(ctx context.Context) (*RegistrationResult, error) {
	var out RegistrationResult
	err := c.call(ctx, "registerDisplay", map[string]string{
		"displayName": c.displayName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequiredFiles fetches the file manifest.
func (c *Client) RequiredFiles(ctx context.Context) (*RequiredFilesResult, error) {
	var out RequiredFilesResult
	if err := c.call(ctx, "requiredFiles", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schedule fetches the schedule manifest.
func (c *Client) Schedule(ctx context.Context) (*schedule.Schedule, error) {
	var out schedule.Schedule
	if err := c.call(ctx, "schedule", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NotifyStatus reports display health.
func (c *Client) NotifyStatus(ctx context.Context, status Status) error {
	return c.call(ctx, "notifyStatus", status, nil)
}

// MediaInventory submits the cache inventory XML.
func (c *Client) MediaInventory(ctx context.Context, inventoryXML string) error {
	return c.call(ctx, "mediaInventory", map[string]string{"inventory": inventoryXML}, nil)
}

// BlackList reports an unrenderable item.
func (c *Client) BlackList(ctx context.Context, id, mediaType, reason string) error {
	return c.call(ctx, "blackList", map[string]string{
		"id":     id,
		"type":   mediaType,
		"reason": reason,
	}, nil)
}

// GetWeather fetches the weather snapshot for criteria evaluation.
func (c *Client) GetWeather(ctx context.Context) (*schedule.Weather, error) {
	var out schedule.Weather
	if err := c.call(ctx, "weather", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call POSTs one RPC and decodes the response into out (when non-nil).
func (c *Client) call(ctx context.Context, op string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/player/v1/"+op, body)
	if err != nil {
		return Error(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Server-Key", c.serverKey)
	req.Header.Set("X-Hardware-Key", c.hardwareKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Error(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Error(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Error(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
