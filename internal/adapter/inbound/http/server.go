package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridian-mcp/meridian/internal/port/inbound"
)

// Server is the inbound HTTP transport. It mounts the REST routing surface,
// the MCP surface, health, and the Prometheus scrape endpoint on one
// listener.
type Server struct {
	httpServer *http.Server
	addr       string
	version    string
	registry   *prometheus.Registry
	health     *HealthChecker
	logger     *slog.Logger
}

// ServerOption is a functional option for configuring Server.
type ServerOption func(*Server)

// WithAddr sets the listen address. Default is "127.0.0.1:8080".
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.addr = addr }
}

// WithVersion sets the version reported by health and the MCP surface.
func WithVersion(version string) ServerOption {
	return func(s *Server) { s.version = version }
}

// WithHealthChecker sets the health endpoint implementation.
func WithHealthChecker(h *HealthChecker) ServerOption {
	return func(s *Server) { s.health = h }
}

// WithPrometheusRegistry sets the metrics registry the scrape endpoint
// serves. A fresh registry with Go runtime collectors is used by default.
func WithPrometheusRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// NewServer wires the transport around the routing service.
func NewServer(router inbound.QueryRouter, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		addr:    "127.0.0.1:8080",
		version: "dev",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if s.health == nil {
		s.health = NewHealthChecker(s.version, nil, nil)
	}

	handler := NewHandler(router, logger)
	mcpHandler := NewMCPHandler(router, s.version, logger)
	httpMetrics := NewHTTPMetrics(s.registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/route", handler.HandleRoute)
	mux.HandleFunc("/v1/servers", handler.HandleListServers)
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/healthz", s.health)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	chain := RequestIDMiddleware(logger)(MetricsMiddleware(httpMetrics)(mux))

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Registry returns the metrics registry, for wiring engine collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the fully assembled handler chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the listener until Shutdown or failure. Blocks.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
