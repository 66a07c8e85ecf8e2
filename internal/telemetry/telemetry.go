/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a tiny, privacy-respecting, opt-in event sender
// for anonymous usage metrics and optional crash uploads.
package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"dsfstudio/internal/config"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = config.EnvTelemetryOptIn
	EnvEventsURL = config.EnvTelemetryURL
	EnvCrashURL  = "DSF_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "DSF_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "DSF_TELEMETRY_DEBUG"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt-in and disabled by default.
//
// If no URLs are set, events are dropped, even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

const defaultTimeout = 1500 * time.Millisecond

// FromEnv reads the DSF_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

// FromConfig builds a Config from the user settings. Crash uploads go to
// <endpoint>/crash unless DSF_CRASH_UPLOAD_URL says otherwise.
func FromConfig(tc config.TelemetryConfig) Config {
	cfg := FromEnv()
	cfg.OptIn = tc.OptIn
	if ep := strings.TrimRight(strings.TrimSpace(tc.Endpoint), "/"); ep != "" {
		cfg.EventsURL = ep + "/events"
		if cfg.CrashURL == "" {
			cfg.CrashURL = ep + "/crash"
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is a minimal async sender; it drops events silently on errors.
// It never blocks the caller; the queue is bounded.
type Client struct {
	cfg     Config
	log     *slog.Logger
	http    *resty.Client
	q       chan map[string]any
	pending atomic.Int64
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
}

// NewDefault creates and installs the default client with cfg.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil {
		old.Close()
	}
}

func current() *Client {
	InitDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// New constructs a client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg: cfg,
		log: applog.WithComponent("telemetry"),
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", version.String()).
			SetLogger(quiet{}),
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether anonymous telemetry is enabled using the default client.
func Enabled() bool { return current().Enabled() }

// Event posts a small JSON event if enabled. Safe to call from anywhere.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.Version,
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		// shallow copy; props must be non-PII
		payload[k] = v
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Add(-1) // queue full
	}
}

// Event using default client.
func Event(name string, props map[string]any) { current().Event(name, props) }

// Flush waits briefly for queued events to be sent.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(time.Second)
	for c.pending.Load() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Flush the default client.
func Flush(ctx context.Context) { current().Flush(ctx) }

// Close stops the background goroutine.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.send(item)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) send(item map[string]any) {
	resp, err := c.http.R().SetBody(item).Post(c.cfg.EventsURL)
	if !c.cfg.DebugLogging {
		return
	}
	switch {
	case err != nil:
		c.log.Debug("telemetry send failed", slog.Any("err", err))
	case resp.IsError():
		c.log.Debug("telemetry send rejected", slog.Int("status", resp.StatusCode()))
	default:
		c.log.Debug("telemetry event sent", slog.Any("name", item["name"]))
	}
}

// UploadCrash posts an already-serialized crash report to the configured crash URL if opt-in.
// The returned channel closes when the upload finished or failed.
func (c *Client) UploadCrash(report []byte) <-chan struct{} {
	done := make(chan struct{})
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		close(done)
		return done
	}
	go func(b []byte) {
		defer close(done)
		resp, err := c.http.R().
			SetHeader("Content-Type", "text/plain; charset=utf-8").
			SetBody(b).
			Post(c.cfg.CrashURL)
		if !c.cfg.DebugLogging {
			return
		}
		if err != nil {
			c.log.Debug("crash upload failed", slog.Any("err", err))
			return
		}
		c.log.Debug("crash report uploaded", slog.Int("status", resp.StatusCode()))
	}(append([]byte(nil), report...))
	return done
}

// UploadCrash using default client.
func UploadCrash(report []byte) <-chan struct{} { return current().UploadCrash(report) }

// quiet keeps resty from printing to stderr; failures are logged above.
type quiet struct{}

func (quiet) Errorf(string, ...interface{}) {}
func (quiet) Warnf(string, ...interface{})  {}
func (quiet) Debugf(string, ...interface{}) {}
