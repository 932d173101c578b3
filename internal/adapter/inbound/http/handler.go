// Package http provides the inbound HTTP transport: the REST routing
// surface, the MCP server surface, health, and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/meridian-mcp/meridian/internal/domain/routing"
	"github.com/meridian-mcp/meridian/internal/port/inbound"
)

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// RouteRequest is the JSON body of POST /v1/route.
type RouteRequest struct {
	Query        string         `json:"query"`
	Intent       string         `json:"intent,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Category     string         `json:"category,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// RouteResponse is the JSON response of POST /v1/route.
type RouteResponse struct {
	Result   json.RawMessage `json:"result"`
	Metadata RouteMetadata   `json:"metadata"`
}

// RouteMetadata describes how the query was routed.
type RouteMetadata struct {
	Server        ServerRef             `json:"server"`
	Tool          string                `json:"tool"`
	Confidence    float64               `json:"confidence"`
	Alternatives  []routing.Alternative `json:"alternatives,omitempty"`
	Strategy      string                `json:"strategy"`
	Intent        string                `json:"intent"`
	Entities      map[string]string     `json:"entities,omitempty"`
	Cached        bool                  `json:"cached"`
	RoutingTimeMS int64                 `json:"routing_time_ms"`
	TotalTimeMS   int64                 `json:"total_time_ms"`
}

// ServerRef identifies the chosen server in responses.
type ServerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the REST routing surface.
type Handler struct {
	router inbound.QueryRouter
	logger *slog.Logger
}

// NewHandler creates the REST handler.
func NewHandler(router inbound.QueryRouter, logger *slog.Logger) *Handler {
	return &Handler{router: router, logger: logger}
}

// HandleRoute serves POST /v1/route.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req RouteRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.router.RouteQuery(r.Context(), inbound.RouteQuery{
		Query:        req.Query,
		Intent:       req.Intent,
		Capabilities: req.Capabilities,
		Category:     req.Category,
		Context:      req.Context,
	})
	if err != nil {
		status, msg := classifyRoutingError(err)
		logger := LoggerFromContext(r.Context())
		logger.Warn("route request failed", "status", status, "error", err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, buildRouteResponse(result))
}

// HandleListServers serves GET /v1/servers.
func (h *Handler) HandleListServers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	servers, err := h.router.ListServers(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "registry unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

func buildRouteResponse(result *inbound.RouteResult) RouteResponse {
	return RouteResponse{
		Result: result.Result,
		Metadata: RouteMetadata{
			Server:        ServerRef{ID: result.ServerID, Name: result.ServerName},
			Tool:          result.Tool,
			Confidence:    result.Confidence,
			Alternatives:  result.Alternatives,
			Strategy:      result.Strategy,
			Intent:        result.Intent,
			Entities:      result.Entities,
			Cached:        result.Cached,
			RoutingTimeMS: result.RoutingTime.Milliseconds(),
			TotalTimeMS:   result.TotalTime.Milliseconds(),
		},
	}
}

// classifyRoutingError maps pipeline errors onto HTTP statuses: the
// not-found class is the caller's problem (404), upstream failures are
// gateway problems (502/504).
func classifyRoutingError(err error) (int, string) {
	switch {
	case routing.IsNotFound(err):
		return http.StatusNotFound, "no suitable server found for query"
	case errors.Is(err, routing.ErrRetrievalFailure):
		return http.StatusBadGateway, "registry retrieval failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "downstream call timed out"
	default:
		return http.StatusBadGateway, "downstream call failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
