package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	httpadapter "github.com/meridian-mcp/meridian/internal/adapter/inbound/http"
	"github.com/meridian-mcp/meridian/internal/adapter/outbound/cel"
	mcpclient "github.com/meridian-mcp/meridian/internal/adapter/outbound/mcp"
	"github.com/meridian-mcp/meridian/internal/adapter/outbound/memory"
	"github.com/meridian-mcp/meridian/internal/adapter/outbound/registry"
	"github.com/meridian-mcp/meridian/internal/config"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
	"github.com/meridian-mcp/meridian/internal/metrics"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
	"github.com/meridian-mcp/meridian/internal/service"
	"github.com/meridian-mcp/meridian/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the routing engine",
	Long: `Start the meridian routing engine.

The engine serves three surfaces on one listener:

  POST /v1/route   route and dispatch a natural-language query
  GET  /v1/servers list the registry catalog
  POST /mcp        the MCP surface exposing the execute_query tool

plus /healthz and /metrics.

Examples:
  # Start with config file settings
  meridian serve

  # Start with a specific config file
  meridian --config /path/to/meridian.yaml serve`,
	RunE: runServe,
}

var devMode bool

func init() {
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging, relaxed validation)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load without validation so the CLI flag can override dev mode first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C is a
	// hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	traceShutdown, err := telemetry.Setup(ctx, cfg.Telemetry.TracingEnabled, Version)
	if err != nil {
		return fmt.Errorf("telemetry setup failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceShutdown(shutdownCtx); err != nil {
			logger.Warn("trace shutdown failed", "error", err)
		}
	}()

	registryClient, catalogSize, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}

	credentials := memory.NewCredentialStore(cfg.Credentials)
	toolCaller := mcpclient.NewClient(credentials, logger,
		mcpclient.WithOverallTimeout(config.Duration(cfg.Dispatch.OverallTimeout, 30*time.Second)),
		mcpclient.WithChunkTimeout(config.Duration(cfg.Dispatch.ChunkTimeout, 5*time.Second)),
	)

	cache := routing.NewCache(config.Duration(cfg.Routing.CacheTTL, routing.DefaultCacheTTL))
	retriever := routing.NewRetriever(registryClient, logger,
		routing.WithCaps(cfg.Routing.NarrowLimit, cfg.Routing.ExpandedLimit, cfg.Routing.BroadLimit))
	ranker := routing.NewRanker(routing.DefaultWeights(), logger)

	var filter routing.CandidateFilter
	if cfg.Policy.FilterExpression != "" {
		compiled, err := cel.NewFilter(cfg.Policy.FilterExpression, logger)
		if err != nil {
			return fmt.Errorf("candidate filter: %w", err)
		}
		filter = compiled
		logger.Info("candidate filter active", "expression", cfg.Policy.FilterExpression)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New(promRegistry, func() float64 { return float64(cache.Len()) })

	svc := service.NewRouterService(
		registryClient, retriever, ranker, cache, filter, toolCaller, engineMetrics, logger)

	server := httpadapter.NewServer(svc, logger,
		httpadapter.WithAddr(cfg.Server.HTTPAddr),
		httpadapter.WithVersion(Version),
		httpadapter.WithPrometheusRegistry(promRegistry),
		httpadapter.WithHealthChecker(httpadapter.NewHealthChecker(Version, cache.Len, catalogSize)),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// buildRegistry creates the configured catalog backend. The returned size
// callback is nil when the backend cannot report one cheaply.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (outbound.RegistryClient, func() int, error) {
	switch cfg.Registry.Mode {
	case config.RegistryModeHTTP:
		client := registry.NewHTTPRegistry(cfg.Registry.BaseURL, logger,
			registry.WithRegistryHTTPClient(&stdhttp.Client{
				Timeout: config.Duration(cfg.Registry.Timeout, 10*time.Second),
			}))
		return client, nil, nil
	default:
		static, err := registry.LoadStaticRegistry(cfg.Registry.CatalogPath, logger)
		if err != nil {
			if cfg.DevMode && errors.Is(err, fs.ErrNotExist) {
				logger.Warn("catalog missing, starting with empty registry",
					"path", cfg.Registry.CatalogPath)
				static, _ = registry.NewStaticRegistry(nil, logger)
				return static, static.Len, nil
			}
			return nil, nil, fmt.Errorf("load catalog: %w", err)
		}
		return static, static.Len, nil
	}
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
