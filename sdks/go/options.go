package meridian

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithServerAddr sets the Meridian engine address.
// If not set, defaults to the MERIDIAN_SERVER_ADDR environment variable.
func WithServerAddr(addr string) Option {
	return func(c *Client) {
		c.serverAddr = addr
	}
}

// WithTimeout sets the HTTP request timeout. Routed calls include the
// downstream tool dispatch, so this should comfortably exceed the engine's
// dispatch timeout. If not set, defaults to 60 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
// This is useful for testing, proxying, or custom transport configurations.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for client diagnostics.
// If not set, defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDefaultCapabilities sets capability labels applied to every routing
// request that does not specify its own.
func WithDefaultCapabilities(caps []string) Option {
	return func(c *Client) {
		c.defaultCapabilities = caps
	}
}

// WithDefaultCategory sets a registry category applied to every routing
// request that does not specify its own.
func WithDefaultCategory(category string) Option {
	return func(c *Client) {
		c.defaultCategory = category
	}
}
