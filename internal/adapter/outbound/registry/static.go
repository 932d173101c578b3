// Package registry provides outbound adapters for the tool server catalog:
// a static YAML-backed catalog for fixed deployments and an HTTP client for
// a remote registry service.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
)

// catalogFile is the YAML shape of a static catalog file.
type catalogFile struct {
	Servers []descriptor.Server `yaml:"servers"`
}

// StaticRegistry implements outbound.RegistryClient over a fixed catalog
// loaded once at startup. Thread-safe for concurrent reads via sync.RWMutex.
// Returns deep copies to prevent external mutation of catalog records.
type StaticRegistry struct {
	servers map[string]*descriptor.Server
	order   []string
	logger  *slog.Logger
	mu      sync.RWMutex
}

// NewStaticRegistry creates a static registry from an in-memory server list.
// Records failing validation are rejected.
func NewStaticRegistry(servers []descriptor.Server, logger *slog.Logger) (*StaticRegistry, error) {
	r := &StaticRegistry{
		servers: make(map[string]*descriptor.Server, len(servers)),
		logger:  logger,
	}
	for i := range servers {
		s := servers[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, exists := r.servers[s.ID]; exists {
			return nil, fmt.Errorf("catalog entry %d: duplicate server id %s", i, s.ID)
		}
		r.servers[s.ID] = copyServer(&s)
		r.order = append(r.order, s.ID)
	}
	return r, nil
}

// LoadStaticRegistry reads a YAML catalog file and builds a static registry.
func LoadStaticRegistry(path string, logger *slog.Logger) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	r, err := NewStaticRegistry(file.Servers, logger)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	logger.Info("static catalog loaded", "path", path, "servers", len(file.Servers))
	return r, nil
}

// Get returns the server with the given ID, or nil if not found.
func (r *StaticRegistry) Get(ctx context.Context, id string) (*descriptor.Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.servers[id]
	if !ok {
		return nil, nil
	}
	return copyServer(s), nil
}

// Discover returns servers matching the filter, in catalog order.
func (r *StaticRegistry) Discover(ctx context.Context, filter descriptor.Filter) ([]*descriptor.Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*descriptor.Server
	for _, id := range r.order {
		s := r.servers[id]
		if filter.Matches(s) {
			result = append(result, copyServer(s))
		}
	}
	return result, nil
}

// GetAllServers returns the full catalog, in catalog order.
func (r *StaticRegistry) GetAllServers(ctx context.Context) ([]*descriptor.Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*descriptor.Server, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, copyServer(r.servers[id]))
	}
	return result, nil
}

// Len returns the number of catalog entries.
func (r *StaticRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// copyServer creates a deep copy of a Server to prevent mutation.
func copyServer(s *descriptor.Server) *descriptor.Server {
	c := *s
	if s.Capabilities != nil {
		c.Capabilities = append([]string(nil), s.Capabilities...)
	}
	if s.Tags != nil {
		c.Tags = append([]string(nil), s.Tags...)
	}
	if s.Tools != nil {
		c.Tools = make([]descriptor.Tool, len(s.Tools))
		copy(c.Tools, s.Tools)
	}
	return &c
}

// Compile-time check that StaticRegistry implements the RegistryClient port.
var _ outbound.RegistryClient = (*StaticRegistry)(nil)
