package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/pkg/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testServerDescriptor(endpoint string) *descriptor.Server {
	return &descriptor.Server{
		ID:       "srv-1",
		Endpoint: endpoint,
		Status:   descriptor.StatusActive,
	}
}

// decodeRequest reads the JSON-RPC request envelope from an HTTP request.
func decodeRequest(t *testing.T, r *http.Request) mcp.RequestEnvelope {
	t.Helper()
	var env mcp.RequestEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		t.Errorf("decode request envelope: %v", err)
	}
	return env
}

func writeResult(w http.ResponseWriter, id string, result any) {
	resultJSON, _ := json.Marshal(result)
	resp := map[string]any{"jsonrpc": "2.0", "id": id, "result": json.RawMessage(resultJSON)}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// TestCallTool_HandshakeSessionEcho verifies the handshake token from the
// initialize response header is echoed on the following tools/call request.
func TestCallTool_HandshakeSessionEcho(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var callSessionHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		switch env.Method {
		case "initialize":
			w.Header().Set(mcp.SessionHeader, "sess-123")
			writeResult(w, env.ID, map[string]any{"protocolVersion": mcp.ProtocolVersion})
		case "tools/call":
			mu.Lock()
			callSessionHeader = r.Header.Get(mcp.SessionHeader)
			mu.Unlock()
			writeResult(w, env.ID, map[string]any{"content": "42"})
		default:
			t.Errorf("unexpected method %q", env.Method)
		}
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))
	result, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "get_weather", map[string]any{"location": "Tokyo"})
	if err != nil {
		t.Fatalf("CallTool() error: %v", err)
	}
	if result == nil {
		t.Fatal("CallTool() result = nil")
	}

	mu.Lock()
	got := callSessionHeader
	mu.Unlock()
	if got != "sess-123" {
		t.Errorf("tools/call %s header = %q, want sess-123", mcp.SessionHeader, got)
	}

	if c.Sessions()["srv-1"] != "sess-123" {
		t.Errorf("session table = %v, want srv-1 -> sess-123", c.Sessions())
	}
}

// A server rejecting initialize with a 4xx is treated as not requiring a
// handshake; the tool call proceeds without a session header.
func TestCallTool_HandshakeOptional(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		switch env.Method {
		case "initialize":
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		case "tools/call":
			if r.Header.Get(mcp.SessionHeader) != "" {
				t.Errorf("unexpected session header %q", r.Header.Get(mcp.SessionHeader))
			}
			writeResult(w, env.ID, map[string]any{"ok": true})
		}
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))
	if _, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil); err != nil {
		t.Fatalf("CallTool() error: %v", err)
	}
}

// TestCallTool_EventStreamFraming covers the SSE leg: the envelope arrives
// in a data: event and the server then holds the stream open. The client
// must return as soon as the envelope is complete, not at connection close.
func TestCallTool_EventStreamFraming(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "initialize" {
			writeResult(w, env.ID, map[string]any{})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":%q,\"result\":{\"content\":\"streamed\"}}\n\n", env.ID)
		w.(http.Flusher).Flush()
		// Hold the stream open; the client closing the body ends this.
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))

	start := time.Now()
	result, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil)
	if err != nil {
		t.Fatalf("CallTool() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("call took %v; must return on envelope completion, not stream close", elapsed)
	}

	var payload map[string]any
	if err := json.Unmarshal(result, &payload); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if payload["content"] != "streamed" {
		t.Errorf("result content = %v, want streamed", payload["content"])
	}
}

func TestCallTool_EnvelopeError(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "initialize" {
			writeResult(w, env.ID, map[string]any{})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%q,"error":{"code":-32602,"message":"unknown tool"}}`, env.ID)
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))
	_, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "nope", nil)

	var envErr *EnvelopeError
	if !errors.As(err, &envErr) {
		t.Fatalf("error = %v, want *EnvelopeError", err)
	}
	if envErr.Code != -32602 {
		t.Errorf("Code = %d, want -32602", envErr.Code)
	}
}

func TestCallTool_ProtocolFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "initialize" {
			writeResult(w, env.ID, map[string]any{})
			return
		}
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))
	_, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil)

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if protoErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", protoErr.Status)
	}
}

func TestCallTool_TransportFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	// A server that is immediately closed guarantees connection refusal.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := NewClient(nil, testLogger())
	_, err := c.CallTool(context.Background(), testServerDescriptor(endpoint), "t", nil)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestCallTool_StreamTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "initialize" {
			writeResult(w, env.ID, map[string]any{})
			return
		}
		// Declare a stream but never send an envelope.
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(),
		WithHTTPClient(srv.Client()),
		WithChunkTimeout(100*time.Millisecond),
	)
	_, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil)
	if !errors.Is(err, ErrStreamTimeout) {
		t.Errorf("error = %v, want ErrStreamTimeout", err)
	}
}

func TestCallTool_MalformedStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "initialize" {
			writeResult(w, env.ID, map[string]any{})
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: this is not json\n\n")
	}))
	defer srv.Close()

	c := NewClient(nil, testLogger(), WithHTTPClient(srv.Client()))
	_, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil)
	if !errors.Is(err, ErrMalformedStream) {
		t.Errorf("error = %v, want ErrMalformedStream", err)
	}
}

// Bearer credentials from the resolver are placed on outbound requests.
func TestCallTool_BearerCredential(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := decodeRequest(t, r)
		if env.Method == "tools/call" {
			mu.Lock()
			gotAuth = r.Header.Get("Authorization")
			mu.Unlock()
		}
		writeResult(w, env.ID, map[string]any{})
	}))
	defer srv.Close()

	c := NewClient(staticResolver{"srv-1": "secret-token"}, testLogger(), WithHTTPClient(srv.Client()))
	if _, err := c.CallTool(context.Background(), testServerDescriptor(srv.URL), "t", nil); err != nil {
		t.Fatalf("CallTool() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", gotAuth)
	}
}

// staticResolver is a map-backed CredentialResolver for tests.
type staticResolver map[string]string

func (r staticResolver) Resolve(ctx context.Context, serverID string) (string, error) {
	return r[serverID], nil
}
