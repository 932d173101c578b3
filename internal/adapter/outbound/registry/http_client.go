package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
)

const (
	// defaultRegistryTimeout bounds a single registry read.
	defaultRegistryTimeout = 10 * time.Second

	// maxCatalogResponseSize caps a registry response body.
	maxCatalogResponseSize = 20 * 1024 * 1024 // 20MB
)

// HTTPRegistry implements outbound.RegistryClient against a remote registry
// service exposing the /v1/servers read API. Records failing validation are
// dropped at this boundary so malformed rows never reach the routing pipeline.
type HTTPRegistry struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPRegistryOption is a functional option for configuring HTTPRegistry.
type HTTPRegistryOption func(*HTTPRegistry)

// WithRegistryHTTPClient sets a custom HTTP client.
func WithRegistryHTTPClient(hc *http.Client) HTTPRegistryOption {
	return func(r *HTTPRegistry) { r.httpClient = hc }
}

// NewHTTPRegistry creates a registry client for the given base URL.
func NewHTTPRegistry(baseURL string, logger *slog.Logger, opts ...HTTPRegistryOption) *HTTPRegistry {
	r := &HTTPRegistry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRegistryTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the server with the given ID, or nil if the registry reports
// it unknown.
func (r *HTTPRegistry) Get(ctx context.Context, id string) (*descriptor.Server, error) {
	var server descriptor.Server
	found, err := r.getJSON(ctx, "/v1/servers/"+url.PathEscape(id), &server)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if err := server.Validate(); err != nil {
		return nil, fmt.Errorf("registry returned invalid record: %w", err)
	}
	return &server, nil
}

// Discover returns servers matching the filter.
func (r *HTTPRegistry) Discover(ctx context.Context, filter descriptor.Filter) ([]*descriptor.Server, error) {
	query := url.Values{}
	if filter.Capability != "" {
		query.Set("capability", filter.Capability)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Verified != nil {
		query.Set("verified", strconv.FormatBool(*filter.Verified))
	}

	path := "/v1/servers"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return r.list(ctx, path)
}

// GetAllServers returns the full registry snapshot.
func (r *HTTPRegistry) GetAllServers(ctx context.Context) ([]*descriptor.Server, error) {
	return r.list(ctx, "/v1/servers")
}

// listResponse is the wire shape of a registry list call.
type listResponse struct {
	Servers []descriptor.Server `json:"servers"`
}

func (r *HTTPRegistry) list(ctx context.Context, path string) ([]*descriptor.Server, error) {
	var resp listResponse
	if _, err := r.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	result := make([]*descriptor.Server, 0, len(resp.Servers))
	for i := range resp.Servers {
		s := resp.Servers[i]
		if err := s.Validate(); err != nil {
			r.logger.Warn("dropping invalid registry record", "error", err)
			continue
		}
		result = append(result, &s)
	}
	return result, nil
}

// getJSON performs one GET against the registry and decodes the JSON body
// into out. Returns found=false for a 404 without error.
func (r *HTTPRegistry) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("registry request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("registry request %s: status %d: %s",
			path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogResponseSize))
	if err != nil {
		return false, fmt.Errorf("read registry response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode registry response: %w", err)
	}
	return true, nil
}

// Compile-time check that HTTPRegistry implements the RegistryClient port.
var _ outbound.RegistryClient = (*HTTPRegistry)(nil)
