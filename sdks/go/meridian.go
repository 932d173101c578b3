// Package meridian provides a Go SDK for the Meridian routing engine.
//
// Meridian routes natural-language queries to MCP tool servers. This SDK
// lets Go programs submit a query, receive the dispatched tool result, and
// inspect the routing decision that produced it. It uses only the Go
// standard library (net/http) with zero external dependencies.
//
// Quick start:
//
//	// Set MERIDIAN_SERVER_ADDR, then:
//	client := meridian.NewClient()
//
//	resp, err := client.Route(ctx, meridian.RouteRequest{
//	    Query: "what's the weather in Tokyo",
//	})
//	if err != nil {
//	    var noRoute *meridian.NoRouteError
//	    if errors.As(err, &noRoute) {
//	        fmt.Printf("No server could handle the query: %s\n", noRoute.Message)
//	    }
//	}
//	fmt.Printf("answered by %s via %s\n", resp.Metadata.Server.Name, resp.Metadata.Tool)
package meridian

import "encoding/json"

// RouteRequest is a routing request submitted to the Meridian engine.
// Fields map to the POST /v1/route request schema on the server side.
type RouteRequest struct {
	// Query is the natural-language query to route. Required.
	Query string `json:"query"`

	// Intent optionally pre-specifies the intent, skipping the engine's
	// classifier.
	Intent string `json:"intent,omitempty"`

	// Capabilities optionally overrides the capability labels the engine
	// would otherwise derive from the classified intent.
	Capabilities []string `json:"capabilities,omitempty"`

	// Category optionally overrides the registry category derived from
	// the classified intent.
	Category string `json:"category,omitempty"`

	// Context carries arguments passed through to the dispatched tool
	// alongside the query.
	Context map[string]any `json:"context,omitempty"`
}

// RouteResponse is the engine's answer: the downstream tool result plus
// metadata describing how the query was routed.
type RouteResponse struct {
	// Result is the raw tool result payload from the chosen server.
	Result json.RawMessage `json:"result"`

	// Metadata describes the routing decision.
	Metadata RouteMetadata `json:"metadata"`
}

// RouteMetadata describes the routing decision behind a response.
type RouteMetadata struct {
	// Server is the chosen tool server.
	Server ServerRef `json:"server"`

	// Tool is the name of the tool that was invoked.
	Tool string `json:"tool"`

	// Confidence is the normalized ranking score in [0,1].
	Confidence float64 `json:"confidence"`

	// Alternatives lists the next-ranked candidates, if any.
	Alternatives []Alternative `json:"alternatives,omitempty"`

	// Strategy names the retrieval strategy that produced the chosen
	// server ("narrow", "expanded", or "broad").
	Strategy string `json:"strategy"`

	// Intent is the classified intent for the query.
	Intent string `json:"intent"`

	// Entities holds the entities extracted from the query.
	Entities map[string]string `json:"entities,omitempty"`

	// Cached reports whether the decision came from the engine's
	// decision cache.
	Cached bool `json:"cached"`

	// RoutingTimeMS is the time spent selecting a server, in milliseconds.
	RoutingTimeMS int64 `json:"routing_time_ms"`

	// TotalTimeMS is the end-to-end time including dispatch, in milliseconds.
	TotalTimeMS int64 `json:"total_time_ms"`
}

// ServerRef identifies a tool server in routing metadata.
type ServerRef struct {
	// ID is the server's registry identifier.
	ID string `json:"id"`

	// Name is the server's display name.
	Name string `json:"name"`
}

// Alternative is a runner-up candidate retained on the decision.
type Alternative struct {
	// ServerID identifies the runner-up server.
	ServerID string `json:"server"`

	// Confidence is the runner-up's own normalized score.
	Confidence float64 `json:"confidence"`
}

// Tool describes a callable tool declared by a catalog server.
type Tool struct {
	// Name is the tool's identifier, unique within its server.
	Name string `json:"name"`

	// Description is the human-readable tool description.
	Description string `json:"description"`
}

// Server is a catalog record returned by ListServers.
type Server struct {
	// ID is the server's registry identifier.
	ID string `json:"id"`

	// QualifiedName is the globally scoped name (e.g. "acme/weather-server").
	QualifiedName string `json:"qualifiedName"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"displayName"`

	// Description is the human-readable server description.
	Description string `json:"description"`

	// Category is the registry category.
	Category string `json:"category"`

	// Capabilities lists the declared capability labels.
	Capabilities []string `json:"capabilities"`

	// Tools lists the tools the server declares.
	Tools []Tool `json:"tools"`

	// Endpoint is the server's MCP HTTP endpoint.
	Endpoint string `json:"endpoint"`

	// TrustScore is the registry-assigned trust score in [0,100].
	TrustScore int `json:"trustScore"`

	// Verified indicates the registry has verified the publisher.
	Verified bool `json:"verified"`

	// Status is the lifecycle state ("active", "inactive", "deprecated").
	Status string `json:"status"`
}

// listServersResponse is the envelope of GET /v1/servers.
type listServersResponse struct {
	Servers []Server `json:"servers"`
}
