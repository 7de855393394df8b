package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// Endpoints

	// RefreshPath serves POST refresh requests.
	// Default: "/refresh/".
	RefreshPath string

	// RPCPath serves POST command requests.
	// Default: "/rpc/".
	RPCPath string

	// WebSocketPath serves the WebSocket transport.
	// Default: "/ws".
	WebSocketPath string

	// MetricsPath serves Prometheus metrics.
	// Default: "/metrics".
	MetricsPath string

	// DisableMetrics removes the metrics endpoint and middleware.
	DisableMetrics bool

	// DisablePage removes the default page at "/".
	DisablePage bool

	// Page

	// Title is the default page title.
	// Default: "guisync".
	Title string

	// ScriptURL, if set, is loaded by the default page to run the browser
	// client.
	ScriptURL string

	// WebSocket buffer sizes

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the WebSocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Limits

	// MaxBodySize bounds command bodies and WebSocket frames.
	// Default: 64KB.
	MaxBodySize int64

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool

	// Registry receives the server metrics. Default: a new registry that
	// also carries the Go and process collectors.
	Registry *prometheus.Registry

	// Server lifecycle

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading a whole request.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. WebSocket connections are
	// hijacked and not subject to it.
	// Default: 30 seconds.
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive idle time. Polling clients reuse
	// connections every tick, so it should exceed the poll interval.
	// Default: 120 seconds.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
// SECURITY: CheckOrigin enforces same-origin by default to prevent CSWSH.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		RefreshPath:       "/refresh/",
		RPCPath:           "/rpc/",
		WebSocketPath:     "/ws",
		MetricsPath:       "/metrics",
		Title:             "guisync",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		MaxBodySize:       64 * 1024,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or a non-browser client)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	config := c.Clone()
	if config.Address == "" {
		config.Address = defaults.Address
	}
	if config.RefreshPath == "" {
		config.RefreshPath = defaults.RefreshPath
	}
	if config.RPCPath == "" {
		config.RPCPath = defaults.RPCPath
	}
	if config.WebSocketPath == "" {
		config.WebSocketPath = defaults.WebSocketPath
	}
	if config.MetricsPath == "" {
		config.MetricsPath = defaults.MetricsPath
	}
	if config.Title == "" {
		config.Title = defaults.Title
	}
	if config.ReadBufferSize == 0 {
		config.ReadBufferSize = defaults.ReadBufferSize
	}
	if config.WriteBufferSize == 0 {
		config.WriteBufferSize = defaults.WriteBufferSize
	}
	if config.CheckOrigin == nil {
		config.CheckOrigin = defaults.CheckOrigin
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = defaults.MaxBodySize
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.ReadHeaderTimeout == 0 {
		config.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	return config
}

// ValidateConfig reports configuration that would produce a broken server.
func (c *Config) ValidateConfig() error {
	var errs []error
	paths := map[string]string{
		"RefreshPath":   c.RefreshPath,
		"RPCPath":       c.RPCPath,
		"WebSocketPath": c.WebSocketPath,
	}
	if !c.DisableMetrics {
		paths["MetricsPath"] = c.MetricsPath
	}
	seen := make(map[string]string)
	for _, name := range []string{"RefreshPath", "RPCPath", "WebSocketPath", "MetricsPath"} {
		p, ok := paths[name]
		if !ok {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("%s %q must start with /", name, p))
			continue
		}
		if p == "/" {
			errs = append(errs, fmt.Errorf("%s must not be the page path /", name))
		}
		if other, dup := seen[p]; dup {
			errs = append(errs, fmt.Errorf("%s and %s share the path %q", other, name, p))
		}
		seen[p] = name
	}
	if c.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("MaxBodySize must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
