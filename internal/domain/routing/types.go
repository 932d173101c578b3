// Package routing contains the core routing engine: concurrent candidate
// retrieval against the registry, deterministic ranking with cascading
// fallback, and the TTL decision cache.
package routing

import (
	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
)

// Strategy identifiers, in priority order. Merge order is defined by this
// priority, never by completion order.
const (
	StrategyNarrow = "narrow"
	StrategyExpand = "expanded"
	StrategyBroad  = "broad_fallback"
)

// Candidate is a server considered possibly relevant to a request, tagged
// with the strategy that produced it.
type Candidate struct {
	// Server is the registry record.
	Server *descriptor.Server
	// Strategy names the retrieval strategy that found this server.
	Strategy string
	// Position is the candidate's index in the merged list (discovery order).
	Position int
}

// Alternative is a ranked runner-up retained on the decision for
// transparency and for the selector's fallback cascade.
type Alternative struct {
	// Server is the runner-up server.
	Server *descriptor.Server `json:"-"`
	// ServerID identifies the runner-up.
	ServerID string `json:"server"`
	// Confidence is the runner-up's own normalized score.
	Confidence float64 `json:"confidence"`
}

// Decision is the outcome of ranking: the chosen (server, tool) pair plus
// runner-ups. Present only when at least one usable pair was found.
type Decision struct {
	// Server is the chosen server.
	Server *descriptor.Server
	// Tool is the chosen tool on that server.
	Tool descriptor.Tool
	// Confidence is the normalized score in [0,1].
	Confidence float64
	// Alternatives holds up to two next-ranked candidates.
	Alternatives []Alternative
	// Strategy names the retrieval strategy that produced the chosen server.
	Strategy string
}

// Request carries the normalized routing inputs through retrieval and
// ranking.
type Request struct {
	// Query is the raw natural-language query.
	Query string
	// Intent is the classified intent name.
	Intent string
	// Capabilities are the caller-requested capability labels.
	Capabilities []string
	// Category is the requested (or intent-derived) registry category.
	Category string
}
