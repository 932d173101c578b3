package mcp

import (
	"encoding/json"
	"testing"
)

func TestWrapMessage_Request(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_weather","arguments":{"location":"Tokyo"}}}`)
	msg, err := WrapMessage(raw)
	if err != nil {
		t.Fatalf("WrapMessage() error: %v", err)
	}
	if !msg.IsToolCall() {
		t.Error("IsToolCall() = false, want true")
	}
	if msg.Method() != "tools/call" {
		t.Errorf("Method() = %q, want tools/call", msg.Method())
	}

	params := msg.ParseParams()
	if params == nil {
		t.Fatal("ParseParams() = nil")
	}
	if params["name"] != "get_weather" {
		t.Errorf("params[name] = %v, want get_weather", params["name"])
	}

	if string(msg.RawID()) != "1" {
		t.Errorf("RawID() = %s, want 1", msg.RawID())
	}
}

func TestWrapMessage_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := WrapMessage([]byte(`not json`)); err == nil {
		t.Error("WrapMessage(invalid) error = nil, want error")
	}
}

func TestParseEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		data         string
		wantComplete bool
	}{
		{"result envelope", `{"jsonrpc":"2.0","id":"r1","result":{"ok":true}}`, true},
		{"error envelope", `{"jsonrpc":"2.0","id":"r1","error":{"code":-32603,"message":"boom"}}`, true},
		{"fragment without result or error", `{"jsonrpc":"2.0","id":"r1"}`, false},
		{"wrong version", `{"jsonrpc":"1.0","id":"r1","result":{}}`, false},
		{"not json", `data: {`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, complete := ParseEnvelope([]byte(tt.data))
			if complete != tt.wantComplete {
				t.Errorf("ParseEnvelope(%q) complete = %v, want %v", tt.data, complete, tt.wantComplete)
			}
		})
	}
}

func TestRequestEnvelope_Marshal(t *testing.T) {
	t.Parallel()

	req := NewRequest("corr-1", "tools/call", CallToolParams{
		Name:      "get_weather",
		Arguments: map[string]any{"location": "Tokyo"},
	})
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var round map[string]any
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if round["jsonrpc"] != "2.0" {
		t.Errorf("jsonrpc = %v, want 2.0", round["jsonrpc"])
	}
	if round["id"] != "corr-1" {
		t.Errorf("id = %v, want corr-1", round["id"])
	}
	if round["method"] != "tools/call" {
		t.Errorf("method = %v, want tools/call", round["method"])
	}
}
