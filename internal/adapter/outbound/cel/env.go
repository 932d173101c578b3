package cel

import (
	"path/filepath"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
)

// newCandidateEnvironment creates a CEL environment for candidate filtering.
// Variables:
//   - Server: server_id, qualified_name, display_name, category, endpoint,
//     capabilities, tags, tool_names, verified, trust_score, use_count, status
//   - Query: intent, query, query_category, query_capabilities
//
// Custom functions: glob(pattern, name) for wildcard matching.
func newCandidateEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),

		cel.Variable("server_id", cel.StringType),
		cel.Variable("qualified_name", cel.StringType),
		cel.Variable("display_name", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("endpoint", cel.StringType),
		cel.Variable("capabilities", cel.ListType(cel.StringType)),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("tool_names", cel.ListType(cel.StringType)),
		cel.Variable("verified", cel.BoolType),
		cel.Variable("trust_score", cel.IntType),
		cel.Variable("use_count", cel.IntType),
		cel.Variable("status", cel.StringType),

		cel.Variable("intent", cel.StringType),
		cel.Variable("query", cel.StringType),
		cel.Variable("query_category", cel.StringType),
		cel.Variable("query_capabilities", cel.ListType(cel.StringType)),

		// glob: wildcard matching, e.g. glob("acme/*", qualified_name)
		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p := pattern.Value().(string)
					n := name.Value().(string)
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),
	)
}

// buildActivation creates the CEL activation map for one candidate server
// and the classified query. Slices are never nil so list operators behave.
func buildActivation(server *descriptor.Server, req routing.Request) map[string]any {
	capabilities := server.Capabilities
	if capabilities == nil {
		capabilities = []string{}
	}
	tags := server.Tags
	if tags == nil {
		tags = []string{}
	}
	toolNames := make([]string, 0, len(server.Tools))
	for _, t := range server.Tools {
		toolNames = append(toolNames, t.Name)
	}
	queryCapabilities := req.Capabilities
	if queryCapabilities == nil {
		queryCapabilities = []string{}
	}

	return map[string]any{
		"server_id":      server.ID,
		"qualified_name": server.QualifiedName,
		"display_name":   server.DisplayName,
		"category":       server.Category,
		"endpoint":       server.Endpoint,
		"capabilities":   capabilities,
		"tags":           tags,
		"tool_names":     toolNames,
		"verified":       server.Verified,
		"trust_score":    int64(server.TrustScore),
		"use_count":      int64(server.UseCount),
		"status":         string(server.Status),

		"intent":             req.Intent,
		"query":              req.Query,
		"query_category":     req.Category,
		"query_capabilities": queryCapabilities,
	}
}
