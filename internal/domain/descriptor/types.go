// Package descriptor contains domain types for tool server catalog records.
package descriptor

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ServerStatus represents the lifecycle state of a tool server in the registry.
type ServerStatus string

const (
	// StatusActive indicates the server is live and routable.
	StatusActive ServerStatus = "active"
	// StatusInactive indicates the server is registered but not currently routable.
	StatusInactive ServerStatus = "inactive"
	// StatusDeprecated indicates the server is scheduled for removal.
	StatusDeprecated ServerStatus = "deprecated"
)

// Tool describes a single callable tool declared by a server.
type Tool struct {
	// Name is the tool's identifier, unique within its server.
	Name string `json:"name" yaml:"name"`
	// Description is the human-readable tool description.
	Description string `json:"description" yaml:"description"`
	// InputSchema is the JSON Schema for the tool's parameters.
	// Treated as opaque by the routing engine.
	InputSchema json.RawMessage `json:"inputSchema,omitempty" yaml:"input_schema,omitempty"`
}

// Server is an immutable-per-fetch catalog record describing a tool server.
// Produced by registry reads; the routing engine never mutates it.
type Server struct {
	// ID is the unique identifier within one registry snapshot.
	ID string `json:"id" yaml:"id"`
	// QualifiedName is the globally scoped name (e.g. "acme/weather-server").
	QualifiedName string `json:"qualifiedName" yaml:"qualified_name"`
	// DisplayName is the human-readable name.
	DisplayName string `json:"displayName" yaml:"display_name"`
	// Description is the human-readable server description.
	Description string `json:"description" yaml:"description"`
	// Category is the registry category (e.g. "Finance", "Weather").
	Category string `json:"category" yaml:"category"`
	// Capabilities lists the declared capability labels.
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	// Tools lists the tools the server declares.
	Tools []Tool `json:"tools" yaml:"tools"`
	// Endpoint is the server's MCP HTTP endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// TrustScore is the registry-assigned trust score in [0,100].
	TrustScore int `json:"trustScore" yaml:"trust_score"`
	// Verified indicates the registry has verified the server's publisher.
	Verified bool `json:"verified" yaml:"verified"`
	// UseCount is the registry-observed invocation count.
	UseCount int `json:"useCount" yaml:"use_count"`
	// Tags are free-form registry labels.
	Tags []string `json:"tags" yaml:"tags"`
	// Status is the lifecycle state.
	Status ServerStatus `json:"status" yaml:"status"`
}

// Validate checks that a registry record is usable for routing.
// Returns nil if valid, or an error describing the first failure.
// Called at the registry boundary so malformed rows never enter the pipeline.
func (s *Server) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("server id is required")
	}
	if s.Endpoint == "" {
		return fmt.Errorf("server %s: endpoint is required", s.ID)
	}
	parsed, err := url.Parse(s.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server %s: endpoint is not a valid URL", s.ID)
	}
	if s.TrustScore < 0 || s.TrustScore > 100 {
		return fmt.Errorf("server %s: trust score %d out of range [0,100]", s.ID, s.TrustScore)
	}
	if s.UseCount < 0 {
		return fmt.Errorf("server %s: negative use count", s.ID)
	}
	switch s.Status {
	case StatusActive, StatusInactive, StatusDeprecated, "":
	default:
		return fmt.Errorf("server %s: unknown status %q", s.ID, s.Status)
	}
	return nil
}

// Routable reports whether the server should be considered for routing.
func (s *Server) Routable() bool {
	return s.Status == StatusActive || s.Status == ""
}

// Filter restricts a registry discover call.
// Zero-value fields are not applied.
type Filter struct {
	// Capability matches servers declaring this capability label.
	Capability string
	// Category matches servers in this registry category.
	Category string
	// Verified, when non-nil, matches servers with this verification state.
	Verified *bool
}

// Matches reports whether the server satisfies every set filter field.
func (f Filter) Matches(s *Server) bool {
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.Verified != nil && s.Verified != *f.Verified {
		return false
	}
	if f.Capability != "" {
		found := false
		for _, c := range s.Capabilities {
			if c == f.Capability {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
