package outbound

import (
	"context"
	"encoding/json"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
)

// ToolCaller is the outbound port for invoking a tool on a downstream server.
// Adapters implement the wire protocol (handshake, framing, failure taxonomy).
type ToolCaller interface {
	// CallTool invokes the named tool on the server with the given arguments
	// and returns the raw JSON result. Errors follow the protocol failure
	// taxonomy; none are retried internally.
	CallTool(ctx context.Context, server *descriptor.Server, toolName string, args map[string]any) (json.RawMessage, error)
}

// CredentialResolver supplies bearer credentials for authenticating to
// downstream servers. Secret storage and rotation are external collaborators;
// the engine only places the resolved value on the outbound request.
type CredentialResolver interface {
	// Resolve returns the bearer token for the server, or "" if the server
	// needs no credential.
	Resolve(ctx context.Context, serverID string) (string, error)
}
