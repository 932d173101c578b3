// Package inbound defines the inbound port interfaces the transport
// adapters (HTTP, MCP surface) call into.
package inbound

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
)

// RouteQuery carries one routing request from a transport adapter.
type RouteQuery struct {
	// Query is the natural-language query to route.
	Query string
	// Intent optionally pre-specifies the intent, skipping classification.
	Intent string
	// Capabilities optionally restricts candidate servers to these labels.
	// When empty, capabilities are derived from the classified intent.
	Capabilities []string
	// Category optionally overrides the intent-derived registry category.
	Category string
	// Context carries caller-supplied arguments passed through to the
	// dispatched tool alongside the query and extracted entities.
	Context map[string]any
}

// RouteResult is the outcome of one routed and dispatched query.
type RouteResult struct {
	// Result is the raw JSON result from the chosen tool.
	Result json.RawMessage

	// ServerID and ServerName identify the chosen server.
	ServerID   string
	ServerName string
	// Tool is the invoked tool name.
	Tool string
	// Confidence is the decision confidence in [0,1].
	Confidence float64
	// Alternatives are the ranked runner-ups.
	Alternatives []routing.Alternative
	// Strategy names the retrieval strategy that found the chosen server.
	Strategy string

	// Intent is the classified intent name.
	Intent string
	// Entities are the extracted query entities.
	Entities map[string]string

	// Cached reports whether the response was served from the decision cache.
	Cached bool
	// RoutingTime is the time spent classifying, retrieving, and ranking.
	RoutingTime time.Duration
	// TotalTime is the end-to-end time including dispatch.
	TotalTime time.Duration
}

// QueryRouter is the inbound port for the routing engine.
type QueryRouter interface {
	// RouteQuery classifies, routes, and dispatches one query.
	RouteQuery(ctx context.Context, q RouteQuery) (*RouteResult, error)

	// ListServers returns the current registry snapshot, for the catalog
	// surface.
	ListServers(ctx context.Context) ([]*descriptor.Server, error)
}
