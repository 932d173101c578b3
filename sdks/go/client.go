package meridian

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client is the Meridian SDK client. It talks to a running Meridian engine
// over its REST surface.
type Client struct {
	serverAddr          string
	timeout             time.Duration
	httpClient          *http.Client
	defaultCapabilities []string
	defaultCategory     string

	logger *slog.Logger
}

// NewClient creates a new Meridian SDK client.
// It reads configuration from MERIDIAN_* environment variables by default.
// Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: os.Getenv("MERIDIAN_SERVER_ADDR"),
		timeout:    parseDurationEnv("MERIDIAN_TIMEOUT", 60*time.Second),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Route submits a query to the engine and returns the dispatched tool
// result together with routing metadata. When the engine finds no suitable
// server or tool it returns a *NoRouteError; transport-level failures are
// wrapped in *EngineUnreachableError.
func (c *Client) Route(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if len(req.Capabilities) == 0 {
		req.Capabilities = c.defaultCapabilities
	}
	if req.Category == "" {
		req.Category = c.defaultCategory
	}

	var resp RouteResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/route", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListServers returns the engine's registry catalog.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var resp listServersResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/servers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// doRequest performs an HTTP request against the engine and decodes the
// response, translating error statuses into SDK error types.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	url := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &EngineUnreachableError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return c.errorFromResponse(httpResp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// errorFromResponse maps an engine error response onto an SDK error type.
// A 404 from the routing surface means no server could handle the query.
func (c *Client) errorFromResponse(status int, body []byte) error {
	msg := errorMessage(body)
	if status == http.StatusNotFound {
		return &NoRouteError{Message: msg}
	}
	return &APIError{StatusCode: status, Message: msg}
}

// errorMessage extracts the "error" field from an engine error body,
// falling back to the raw body when it is not the expected shape.
func errorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}

// AsNoRoute reports whether err means the engine found no route, and
// returns the typed error when it does.
func AsNoRoute(err error) (*NoRouteError, bool) {
	var noRoute *NoRouteError
	if errors.As(err, &noRoute) {
		return noRoute, true
	}
	return nil, false
}

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	// Accept a bare integer as seconds.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}
