// Package mcp provides the outbound protocol client that invokes tools on
// downstream MCP servers over Streamable HTTP.
package mcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
	"github.com/meridian-mcp/meridian/pkg/mcp"
)

const (
	// defaultOverallTimeout bounds a whole tool call, handshake included.
	defaultOverallTimeout = 30 * time.Second

	// defaultChunkTimeout is the per-chunk read deadline for stream-framed
	// responses. Some servers hold the stream open indefinitely; the client
	// must not wait for them to close the connection.
	defaultChunkTimeout = 5 * time.Second

	// maxResponseBodySize caps the response body read from a downstream.
	// Prevents OOM from a malicious server sending unbounded responses.
	maxResponseBodySize = 10 * 1024 * 1024 // 10MB
)

// Client invokes tools on downstream MCP servers. It implements the
// outbound.ToolCaller port.
//
// Session tokens are treated as short-lived by policy: the client re-runs
// the initialize handshake before every tool call instead of trusting a
// cached token's continued validity. Tokens were observed to expire between
// calls; the extra round trip buys correctness.
type Client struct {
	httpClient  *http.Client
	credentials outbound.CredentialResolver
	logger      *slog.Logger

	overallTimeout time.Duration
	chunkTimeout   time.Duration

	// sessions records the last token issued per server ID, for
	// diagnostics only; dispatch always uses the fresh handshake token.
	mu       sync.Mutex
	sessions map[string]string
}

// ClientOption is a functional option for configuring Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithOverallTimeout sets the whole-call deadline.
func WithOverallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.overallTimeout = d }
}

// WithChunkTimeout sets the per-chunk read deadline for streamed responses.
func WithChunkTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.chunkTimeout = d }
}

// NewClient creates a protocol client. The credential resolver may be nil
// when no downstream requires authentication.
func NewClient(credentials outbound.CredentialResolver, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		credentials:    credentials,
		logger:         logger,
		overallTimeout: defaultOverallTimeout,
		chunkTimeout:   defaultChunkTimeout,
		sessions:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallTool performs the session handshake and then invokes the named tool,
// returning the raw JSON result. Failures follow the protocol taxonomy
// (TransportError, ProtocolError, EnvelopeError, ErrStreamTimeout,
// ErrMalformedStream); none are retried internally, retry policy belongs
// to the caller.
func (c *Client) CallTool(ctx context.Context, server *descriptor.Server, toolName string, args map[string]any) (json.RawMessage, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.overallTimeout)
		defer cancel()
	}

	token, err := c.initialize(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("handshake with %s: %w", server.ID, err)
	}

	correlationID := uuid.NewString()
	req := mcp.NewRequest(correlationID, "tools/call", mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})

	env, _, err := c.post(ctx, server, req, token)
	if err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, &EnvelopeError{Code: env.Error.Code, Message: env.Error.Message}
	}

	c.logger.Debug("tool call complete",
		"server", server.ID, "tool", toolName, "correlation_id", correlationID)

	return env.Result, nil
}

// initialize runs the session handshake and returns the server-issued token
// from the response header, or "" when the server issues none. A server that
// rejects initialize with a client-error status is treated as not requiring
// a handshake; transport failures still fail the call.
func (c *Client) initialize(ctx context.Context, server *descriptor.Server) (string, error) {
	req := mcp.NewRequest(uuid.NewString(), "initialize", mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      mcp.ClientInfo{Name: "meridian", Version: "1.0.0"},
	})

	_, header, err := c.post(ctx, server, req, "")
	if err != nil {
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) && protoErr.Status >= 400 && protoErr.Status < 500 {
			c.logger.Debug("server does not require handshake",
				"server", server.ID, "status", protoErr.Status)
			return "", nil
		}
		return "", err
	}

	token := header.Get(mcp.SessionHeader)
	if token != "" {
		c.mu.Lock()
		c.sessions[server.ID] = token
		c.mu.Unlock()
	}
	return token, nil
}

// post sends one JSON-RPC envelope and decodes the response, detecting
// plain-JSON versus event-stream framing from the response content type.
func (c *Client) post(ctx context.Context, server *descriptor.Server, envelope mcp.RequestEnvelope, sessionToken string) (*mcp.Envelope, http.Header, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, server.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	httpReq.Header.Set(mcp.ProtocolVersionHeader, mcp.ProtocolVersion)
	if sessionToken != "" {
		httpReq.Header.Set(mcp.SessionHeader, sessionToken)
	}

	if c.credentials != nil {
		token, err := c.credentials.Resolve(ctx, server.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve credential for %s: %w", server.ID, err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.Header, &ProtocolError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/event-stream") {
		env, err := c.readStream(ctx, resp.Body)
		if err != nil {
			return nil, resp.Header, err
		}
		return env, resp.Header, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, resp.Header, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	env, complete := mcp.ParseEnvelope(raw)
	if !complete {
		return nil, resp.Header, ErrMalformedStream
	}
	return env, resp.Header, nil
}

// Sessions returns a snapshot of the last-issued session token per server.
func (c *Client) Sessions() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.sessions))
	for k, v := range c.sessions {
		out[k] = v
	}
	return out
}

// Compile-time check that Client implements the ToolCaller port.
var _ outbound.ToolCaller = (*Client)(nil)
