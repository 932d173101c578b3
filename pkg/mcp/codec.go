package mcp

import (
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// DecodeMessage deserializes JSON-RPC wire data into a jsonrpc.Message.
// It returns either a *jsonrpc.Request or *jsonrpc.Response based on the
// message content. Delegates to the MCP SDK's jsonrpc package.
func DecodeMessage(data []byte) (jsonrpc.Message, error) {
	return jsonrpc.DecodeMessage(data)
}

// EncodeMessage serializes a JSON-RPC message to its wire format.
func EncodeMessage(msg jsonrpc.Message) ([]byte, error) {
	return jsonrpc.EncodeMessage(msg)
}

// WrapMessage decodes raw JSON-RPC bytes into a Message with the current
// timestamp. Returns an error if the bytes are not a JSON-RPC message.
func WrapMessage(raw []byte) (*Message, error) {
	decoded, err := jsonrpc.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}
	return &Message{
		Raw:       raw,
		Decoded:   decoded,
		Timestamp: time.Now(),
	}, nil
}

// ParseEnvelope decodes a response envelope. Returns the envelope and
// whether it is syntactically complete (carries a result or error).
func ParseEnvelope(data []byte) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return &env, env.Complete()
}
