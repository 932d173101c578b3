package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/meridian-mcp/meridian/internal/domain/routing"
	"github.com/meridian-mcp/meridian/internal/port/inbound"
	"github.com/meridian-mcp/meridian/pkg/mcp"
)

// executeQueryTool is the single tool the MCP surface exposes: route a
// natural-language query to the best downstream server and return its result.
const executeQueryTool = "execute_query"

// JSON-RPC error codes used by the MCP surface.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// executeQuerySchema is the input schema advertised for execute_query.
var executeQuerySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string", "description": "Natural-language query to route"},
		"intent": {"type": "string", "description": "Optional pre-classified intent, skips classification"},
		"capabilities": {"type": "array", "items": {"type": "string"}, "description": "Optional capability labels restricting candidate servers"},
		"category": {"type": "string", "description": "Optional registry category override"},
		"context": {"type": "object", "description": "Optional arguments passed through to the dispatched tool"}
	},
	"required": ["query"]
}`)

// MCPHandler serves the MCP Streamable HTTP surface, presenting the whole
// routing engine as one MCP server with a single execute_query tool.
type MCPHandler struct {
	router  inbound.QueryRouter
	version string
	logger  *slog.Logger
}

// NewMCPHandler creates the MCP surface handler.
func NewMCPHandler(router inbound.QueryRouter, version string, logger *slog.Logger) *MCPHandler {
	return &MCPHandler{router: router, version: version, logger: logger}
}

// ServeHTTP handles POST <mcp endpoint> JSON-RPC messages.
func (h *MCPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	msg, err := mcp.WrapMessage(body)
	if err != nil {
		h.writeRPCError(w, nil, codeParseError, "parse error")
		return
	}

	switch msg.Method() {
	case "initialize":
		// Stateless surface: issue a token for clients that echo it, but
		// nothing is keyed on it.
		w.Header().Set(mcp.SessionHeader, uuid.NewString())
		h.writeRPCResult(w, msg.RawID(), map[string]any{
			"protocolVersion": mcp.ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "meridian", "version": h.version},
		})
	case "notifications/initialized":
		w.WriteHeader(http.StatusAccepted)
	case "tools/list":
		h.writeRPCResult(w, msg.RawID(), map[string]any{
			"tools": []map[string]any{{
				"name":        executeQueryTool,
				"description": "Route a natural-language query to the best tool server and execute it",
				"inputSchema": executeQuerySchema,
			}},
		})
	case "tools/call":
		h.handleToolCall(w, r, msg)
	default:
		h.writeRPCError(w, msg.RawID(), codeMethodNotFound, fmt.Sprintf("method %q not found", msg.Method()))
	}
}

func (h *MCPHandler) handleToolCall(w http.ResponseWriter, r *http.Request, msg *mcp.Message) {
	params := msg.ParseParams()
	if params == nil {
		h.writeRPCError(w, msg.RawID(), codeInvalidParams, "params required")
		return
	}
	name, _ := params["name"].(string)
	if name != executeQueryTool {
		h.writeRPCError(w, msg.RawID(), codeInvalidParams, fmt.Sprintf("unknown tool %q", name))
		return
	}

	args, _ := params["arguments"].(map[string]any)
	query, _ := args["query"].(string)
	if query == "" {
		h.writeRPCError(w, msg.RawID(), codeInvalidParams, "query argument is required")
		return
	}

	q := inbound.RouteQuery{Query: query}
	if intentName, ok := args["intent"].(string); ok {
		q.Intent = intentName
	}
	if category, ok := args["category"].(string); ok {
		q.Category = category
	}
	if callCtx, ok := args["context"].(map[string]any); ok {
		q.Context = callCtx
	}
	if rawCaps, ok := args["capabilities"].([]any); ok {
		for _, c := range rawCaps {
			if s, ok := c.(string); ok {
				q.Capabilities = append(q.Capabilities, s)
			}
		}
	}

	result, err := h.router.RouteQuery(r.Context(), q)
	if err != nil {
		if routing.IsNotFound(err) {
			h.writeRPCError(w, msg.RawID(), codeInvalidParams, "no suitable server found for query")
			return
		}
		h.logger.Warn("execute_query failed", "error", err)
		h.writeRPCError(w, msg.RawID(), codeInternalError, "routing failed")
		return
	}

	h.writeRPCResult(w, msg.RawID(), map[string]any{
		"content": []map[string]any{{
			"type": "text",
			"text": string(result.Result),
		}},
		"_meta": buildRouteResponse(result).Metadata,
	})
}

func (h *MCPHandler) writeRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		h.writeRPCError(w, id, codeInternalError, "marshal result failed")
		return
	}
	writeJSON(w, http.StatusOK, mcp.Envelope{
		JSONRPC: "2.0",
		ID:      id,
		Result:  resultJSON,
	})
}

func (h *MCPHandler) writeRPCError(w http.ResponseWriter, id json.RawMessage, code int64, message string) {
	writeJSON(w, http.StatusOK, mcp.Envelope{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &mcp.ErrorDetail{Code: code, Message: message},
	})
}
