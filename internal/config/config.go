// Package config provides configuration types for the meridian routing engine.
//
// Configuration is file-based (YAML) with environment variable overrides.
// The schema covers the HTTP listener, the registry backend, routing and
// cache tuning, the optional candidate-filter policy, downstream credentials,
// and telemetry.
package config

// Config is the top-level configuration for meridian.
type Config struct {
	// Server configures the HTTP server listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Registry configures the tool server catalog backend.
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`

	// Routing tunes retrieval, ranking, and the decision cache.
	Routing RoutingConfig `yaml:"routing" mapstructure:"routing"`

	// Dispatch configures the downstream protocol client.
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`

	// Policy configures the optional CEL candidate filter.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy"`

	// Credentials maps server IDs to bearer tokens for authenticated
	// downstreams. Servers absent from the map are called unauthenticated.
	Credentials map[string]string `yaml:"credentials" mapstructure:"credentials"`

	// Telemetry configures tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables development features (verbose logging, etc).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
// TLS is expected to be handled by a reverse proxy.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	// Defaults to "10s" if not specified.
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`
}

// Registry backend modes.
const (
	RegistryModeStatic = "static"
	RegistryModeHTTP   = "http"
)

// RegistryConfig configures where catalog records come from.
// Exactly one backend is active, selected by Mode.
type RegistryConfig struct {
	// Mode selects the backend: "static" (YAML catalog file) or "http"
	// (remote registry service). Defaults to "static".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=static http"`

	// CatalogPath is the YAML catalog file path. Required in static mode.
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`

	// BaseURL is the remote registry base URL. Required in http mode.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds a single registry read in http mode (e.g., "10s").
	// Defaults to "10s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// RoutingConfig tunes candidate retrieval and the decision cache.
type RoutingConfig struct {
	// CacheTTL is how long a routing decision stays fresh (e.g., "10m").
	// Defaults to "10m".
	CacheTTL string `yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"omitempty,duration"`

	// NarrowLimit caps results from the narrow retrieval strategy.
	// Defaults to 5.
	NarrowLimit int `yaml:"narrow_limit" mapstructure:"narrow_limit" validate:"omitempty,min=1"`

	// ExpandedLimit caps results from the expanded retrieval strategy.
	// Defaults to 8.
	ExpandedLimit int `yaml:"expanded_limit" mapstructure:"expanded_limit" validate:"omitempty,min=1"`

	// BroadLimit caps results from the broad fallback strategy.
	// Defaults to 5.
	BroadLimit int `yaml:"broad_limit" mapstructure:"broad_limit" validate:"omitempty,min=1"`
}

// DispatchConfig configures the downstream protocol client.
type DispatchConfig struct {
	// OverallTimeout bounds a whole tool call, handshake included
	// (e.g., "30s"). Defaults to "30s".
	OverallTimeout string `yaml:"overall_timeout" mapstructure:"overall_timeout" validate:"omitempty,duration"`

	// ChunkTimeout is the per-chunk read deadline for stream-framed
	// responses (e.g., "5s"). Defaults to "5s".
	ChunkTimeout string `yaml:"chunk_timeout" mapstructure:"chunk_timeout" validate:"omitempty,duration"`
}

// PolicyConfig configures the CEL candidate filter.
type PolicyConfig struct {
	// FilterExpression is a CEL boolean expression over candidate servers.
	// Empty disables filtering. Example: "verified && trust_score >= 50".
	FilterExpression string `yaml:"filter_expression" mapstructure:"filter_expression"`
}

// TelemetryConfig configures tracing output.
type TelemetryConfig struct {
	// TracingEnabled turns span export on or off. Defaults to false.
	TracingEnabled bool `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Server defaults. Bind to localhost only; users who need network
	// access must explicitly set http_addr.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Registry.Mode == "" {
		c.Registry.Mode = RegistryModeStatic
	}
	if c.Registry.Timeout == "" {
		c.Registry.Timeout = "10s"
	}

	if c.Routing.CacheTTL == "" {
		c.Routing.CacheTTL = "10m"
	}
	if c.Routing.NarrowLimit == 0 {
		c.Routing.NarrowLimit = 5
	}
	if c.Routing.ExpandedLimit == 0 {
		c.Routing.ExpandedLimit = 8
	}
	if c.Routing.BroadLimit == 0 {
		c.Routing.BroadLimit = 5
	}

	if c.Dispatch.OverallTimeout == "" {
		c.Dispatch.OverallTimeout = "30s"
	}
	if c.Dispatch.ChunkTimeout == "" {
		c.Dispatch.ChunkTimeout = "5s"
	}
}

// SetDevDefaults applies permissive defaults for development mode.
// Applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	c.Server.LogLevel = "debug"

	// A dev run without a catalog gets an empty static registry rather
	// than a startup failure.
	if c.Registry.Mode == RegistryModeStatic && c.Registry.CatalogPath == "" {
		c.Registry.CatalogPath = "meridian-catalog.yaml"
	}
}
