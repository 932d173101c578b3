package routing

import (
	"context"
)

// CandidateFilter is the outbound port for operator-defined candidate
// policy. Implementations drop candidates the policy rejects; a nil filter
// admits everything.
type CandidateFilter interface {
	// Apply returns the candidates the policy admits, preserving order.
	Apply(ctx context.Context, candidates []Candidate, req Request) []Candidate
}
