// Package service contains the application services orchestrating the
// routing engine: classification, retrieval, ranking, dispatch, and the
// decision cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/intent"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
	"github.com/meridian-mcp/meridian/internal/metrics"
	"github.com/meridian-mcp/meridian/internal/port/inbound"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
	"github.com/meridian-mcp/meridian/internal/telemetry"
)

// RouterService implements the inbound.QueryRouter port. It owns the full
// pipeline for one query: classify, check the decision cache, retrieve
// candidates, apply the candidate filter, rank, dispatch, and memoize.
type RouterService struct {
	registry   outbound.RegistryClient
	retriever  *routing.Retriever
	ranker     *routing.Ranker
	cache      *routing.Cache
	filter     routing.CandidateFilter
	toolCaller outbound.ToolCaller
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewRouterService creates the routing service. filter may be nil when no
// candidate policy is configured; metrics may be nil in tests.
func NewRouterService(
	registry outbound.RegistryClient,
	retriever *routing.Retriever,
	ranker *routing.Ranker,
	cache *routing.Cache,
	filter routing.CandidateFilter,
	toolCaller outbound.ToolCaller,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RouterService {
	return &RouterService{
		registry:   registry,
		retriever:  retriever,
		ranker:     ranker,
		cache:      cache,
		filter:     filter,
		toolCaller: toolCaller,
		metrics:    m,
		logger:     logger,
	}
}

// RouteQuery classifies, routes, and dispatches one query.
//
// A cache hit short-circuits the whole pipeline including dispatch: repeated
// identical queries within the TTL return the memoized downstream result.
func (s *RouterService) RouteQuery(ctx context.Context, q inbound.RouteQuery) (*inbound.RouteResult, error) {
	started := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "router.route_query")
	defer span.End()

	classified := s.classify(q)
	entities := intent.ExtractEntities(q.Query)
	req := s.buildRequest(q, classified)

	span.SetAttributes(
		attribute.String("routing.intent", req.Intent),
		attribute.String("routing.category", req.Category),
	)

	key := routing.Fingerprint(req)
	if cached, found, age := s.cache.Get(key); found {
		s.logger.Debug("cache hit",
			"intent", req.Intent, "age", age, "server", cached.Decision.Server.ID)
		s.observeDecision(cached.Decision.Strategy, true, time.Since(started))
		span.SetAttributes(attribute.Bool("routing.cached", true))
		return s.buildResult(cached.Decision, cached.Result, classified, entities, true, time.Since(started), started), nil
	}

	candidates, err := s.retriever.Retrieve(ctx, req)
	if err != nil {
		s.observeFailure("retrieval", span, err)
		return nil, err
	}

	if s.filter != nil {
		before := len(candidates)
		candidates = s.filter.Apply(ctx, candidates, req)
		if dropped := before - len(candidates); dropped > 0 {
			s.logger.Debug("candidate filter dropped servers",
				"dropped", dropped, "remaining", len(candidates))
		}
	}

	decision, err := s.ranker.Select(candidates, req)
	if err != nil {
		s.observeFailure("selection", span, err)
		return nil, err
	}
	routingTime := time.Since(started)

	span.SetAttributes(
		attribute.String("routing.server", decision.Server.ID),
		attribute.String("routing.tool", decision.Tool.Name),
		attribute.Float64("routing.confidence", decision.Confidence),
	)

	result, err := s.dispatch(ctx, decision, q, entities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return nil, fmt.Errorf("dispatch to %s: %w", decision.Server.ID, err)
	}

	s.cache.Put(key, routing.CachedResult{Decision: decision, Result: result})
	s.observeDecision(decision.Strategy, false, routingTime)

	s.logger.Info("query routed",
		"intent", req.Intent,
		"server", decision.Server.ID,
		"tool", decision.Tool.Name,
		"strategy", decision.Strategy,
		"confidence", decision.Confidence,
		"routing_time", routingTime)

	out := s.buildResult(decision, result, classified, entities, false, routingTime, started)
	return out, nil
}

// ListServers returns the current registry snapshot.
func (s *RouterService) ListServers(ctx context.Context) ([]*descriptor.Server, error) {
	servers, err := s.registry.GetAllServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return servers, nil
}

// classify resolves the request's intent. A caller-supplied intent is taken
// at face value and skips classification.
func (s *RouterService) classify(q inbound.RouteQuery) intent.Intent {
	if q.Intent != "" {
		return intent.Intent{Name: q.Intent, Confidence: 1.0, MatchedEvidence: "caller"}
	}
	return intent.Classify(q.Query)
}

// buildRequest normalizes the inbound query into the routing request.
// Missing capabilities default to the intent name; a missing category falls
// back to the intent's default category.
func (s *RouterService) buildRequest(q inbound.RouteQuery, classified intent.Intent) routing.Request {
	capabilities := q.Capabilities
	if len(capabilities) == 0 {
		capabilities = []string{classified.Name}
	}
	category := q.Category
	if category == "" {
		category = intent.DefaultCategory(classified.Name)
	}
	return routing.Request{
		Query:        q.Query,
		Intent:       classified.Name,
		Capabilities: capabilities,
		Category:     category,
	}
}

// dispatch invokes the chosen tool. Arguments are the caller context, then
// extracted entities, then the query; later entries win on key collision.
func (s *RouterService) dispatch(ctx context.Context, decision *routing.Decision, q inbound.RouteQuery, entities intent.EntitySet) ([]byte, error) {
	args := make(map[string]any, len(q.Context)+len(entities)+1)
	for k, v := range q.Context {
		args[k] = v
	}
	for kind, value := range entities {
		args[kind] = value
	}
	args["query"] = q.Query

	dispatchStart := time.Now()
	result, err := s.toolCaller.CallTool(ctx, decision.Server, decision.Tool.Name, args)
	if s.metrics != nil {
		s.metrics.DispatchDuration.Observe(time.Since(dispatchStart).Seconds())
		if err != nil {
			s.metrics.DispatchFailures.WithLabelValues(failureKind(err)).Inc()
		}
	}
	return result, err
}

func (s *RouterService) buildResult(
	decision *routing.Decision,
	result []byte,
	classified intent.Intent,
	entities intent.EntitySet,
	cached bool,
	routingTime time.Duration,
	started time.Time,
) *inbound.RouteResult {
	return &inbound.RouteResult{
		Result:       result,
		ServerID:     decision.Server.ID,
		ServerName:   decision.Server.DisplayName,
		Tool:         decision.Tool.Name,
		Confidence:   decision.Confidence,
		Alternatives: decision.Alternatives,
		Strategy:     decision.Strategy,
		Intent:       classified.Name,
		Entities:     entities,
		Cached:       cached,
		RoutingTime:  routingTime,
		TotalTime:    time.Since(started),
	}
}

func (s *RouterService) observeDecision(strategy string, cached bool, routingTime time.Duration) {
	if s.metrics == nil {
		return
	}
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	s.metrics.RoutingDecisions.WithLabelValues(strategy, cachedLabel).Inc()
	s.metrics.RoutingDuration.Observe(routingTime.Seconds())
}

func (s *RouterService) observeFailure(reason string, span trace.Span, err error) {
	if s.metrics != nil {
		s.metrics.RoutingFailures.WithLabelValues(reason).Inc()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Warn("routing failed", "reason", reason, "error", err)
}

// failureKind maps a dispatch error onto a stable metric label.
func failureKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "downstream"
	}
}

// Compile-time check that RouterService implements the QueryRouter port.
var _ inbound.QueryRouter = (*RouterService)(nil)
