// Package memory provides in-memory outbound adapters backed by maps.
package memory

import (
	"context"
	"sync"

	"github.com/meridian-mcp/meridian/internal/port/outbound"
)

// CredentialStore implements outbound.CredentialResolver with a static map
// of server ID to bearer token, typically loaded from configuration.
// Thread-safe for concurrent access via sync.RWMutex.
type CredentialStore struct {
	tokens map[string]string
	mu     sync.RWMutex
}

// NewCredentialStore creates a credential store seeded from the given map.
// A nil map yields an empty store; Resolve then returns "" for every server.
func NewCredentialStore(tokens map[string]string) *CredentialStore {
	s := &CredentialStore{tokens: make(map[string]string, len(tokens))}
	for id, token := range tokens {
		s.tokens[id] = token
	}
	return s
}

// Resolve returns the bearer token for a server, or "" when the server
// needs no authentication. Never errors; a missing entry is not a failure.
func (s *CredentialStore) Resolve(ctx context.Context, serverID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[serverID], nil
}

// Set stores or replaces the token for a server.
func (s *CredentialStore) Set(serverID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[serverID] = token
}

// Compile-time check that CredentialStore implements the resolver port.
var _ outbound.CredentialResolver = (*CredentialStore)(nil)
