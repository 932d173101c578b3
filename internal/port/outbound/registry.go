// Package outbound defines the outbound port interfaces the routing engine
// depends on: the server registry, the downstream protocol caller, and the
// credential resolver.
package outbound

import (
	"context"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
)

// RegistryClient is the outbound port for reading the tool server catalog.
// The backing registry (persistence, ingestion, health tracking) is an
// external collaborator; calls may be slow or fail independently, and the
// retrieval layer is designed around that.
type RegistryClient interface {
	// Get returns the server with the given ID, or nil if not found.
	Get(ctx context.Context, id string) (*descriptor.Server, error)

	// Discover returns servers matching the filter.
	Discover(ctx context.Context, filter descriptor.Filter) ([]*descriptor.Server, error)

	// GetAllServers returns the full registry snapshot.
	GetAllServers(ctx context.Context) ([]*descriptor.Server, error)
}
