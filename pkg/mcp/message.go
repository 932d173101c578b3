// Package mcp provides MCP wire envelope types and JSON-RPC codec utilities
// for the meridian routing engine.
package mcp

import (
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// ProtocolVersion is the MCP protocol version meridian speaks.
const ProtocolVersion = "2025-06-18"

// SessionHeader carries the opaque server-issued session token.
const SessionHeader = "Mcp-Session-Id"

// ProtocolVersionHeader declares the protocol version on HTTP requests.
const ProtocolVersionHeader = "MCP-Protocol-Version"

// ErrorDetail is the structured error carried in a response envelope.
type ErrorDetail struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Envelope is a decoded JSON-RPC response envelope from a downstream server.
// Exactly one of Result or Error is set on a complete envelope.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// Complete reports whether the envelope carries a result or an error.
// An envelope with neither is a fragment, not a response.
func (e *Envelope) Complete() bool {
	return e != nil && e.JSONRPC == "2.0" && (e.Result != nil || e.Error != nil)
}

// RequestEnvelope is the outbound JSON-RPC request wire shape.
// The ID doubles as the correlation ID mirrored by the response.
type RequestEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest builds a request envelope ready for marshaling.
func NewRequest(correlationID, method string, params any) RequestEnvelope {
	return RequestEnvelope{
		JSONRPC: "2.0",
		ID:      correlationID,
		Method:  method,
		Params:  params,
	}
}

// CallToolParams is the params shape for a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// InitializeParams is the params shape for the initialize handshake.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// ClientInfo identifies the calling client in the handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Message wraps a decoded inbound JSON-RPC message with routing metadata.
// It keeps both the raw bytes (for ID extraction that survives the SDK's ID
// marshaling quirks) and the decoded form (for method dispatch).
type Message struct {
	// Raw contains the original bytes of the message.
	Raw []byte

	// Decoded contains the parsed JSON-RPC message. May be nil if parsing
	// failed. The concrete type is *jsonrpc.Request or *jsonrpc.Response.
	Decoded jsonrpc.Message

	// Timestamp records when the message was received.
	Timestamp time.Time

	// ParsedParams holds the request params parsed on first use.
	ParsedParams map[string]any
}

// Method returns the method name if this is a request, "" otherwise.
func (m *Message) Method() string {
	req, ok := m.Decoded.(*jsonrpc.Request)
	if !ok {
		return ""
	}
	return req.Method
}

// IsToolCall reports whether this is a tools/call request.
func (m *Message) IsToolCall() bool {
	return m.Method() == "tools/call"
}

// ParseParams parses the request params and memoizes the result.
// Returns nil if this is not a request or parsing fails.
func (m *Message) ParseParams() map[string]any {
	if m.ParsedParams != nil {
		return m.ParsedParams
	}
	req, ok := m.Decoded.(*jsonrpc.Request)
	if !ok || req.Params == nil {
		return nil
	}
	var params map[string]any
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil
	}
	m.ParsedParams = params
	return params
}

// RawID extracts the request ID from the raw bytes as json.RawMessage,
// preserving the original format (number, string, or null).
func (m *Message) RawID() json.RawMessage {
	if m.Raw == nil {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(m.Raw, &raw); err != nil {
		return nil
	}
	return raw["id"]
}
