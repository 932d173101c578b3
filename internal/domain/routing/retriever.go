package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/port/outbound"
)

// Default per-strategy result caps.
const (
	DefaultNarrowCap = 5
	DefaultExpandCap = 8
	DefaultBroadCap  = 5
)

// strategyFunc runs one retrieval strategy against the registry.
type strategyFunc func(ctx context.Context, req Request) ([]*descriptor.Server, error)

// namedStrategy pairs a strategy with its priority name. Slice order is
// merge priority.
type namedStrategy struct {
	name string
	run  strategyFunc
}

// Retriever fans a routing request out over its strategies concurrently and
// merges the results with settle-all semantics: every strategy finishes
// (success or failure) before merging, and one failing strategy never
// suppresses the others.
type Retriever struct {
	registry outbound.RegistryClient
	logger   *slog.Logger

	narrowCap int
	expandCap int
	broadCap  int

	strategies []namedStrategy
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithCaps overrides the per-strategy result caps.
func WithCaps(narrow, expand, broad int) RetrieverOption {
	return func(r *Retriever) {
		r.narrowCap = narrow
		r.expandCap = expand
		r.broadCap = broad
	}
}

// NewRetriever creates a Retriever with the standard three-strategy list:
// narrow, expanded, broad fallback (in merge priority order).
func NewRetriever(registry outbound.RegistryClient, logger *slog.Logger, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		registry:  registry,
		logger:    logger,
		narrowCap: DefaultNarrowCap,
		expandCap: DefaultExpandCap,
		broadCap:  DefaultBroadCap,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.strategies = []namedStrategy{
		{name: StrategyNarrow, run: r.narrow},
		{name: StrategyExpand, run: r.expanded},
		{name: StrategyBroad, run: r.broad},
	}
	return r
}

// Retrieve runs every strategy concurrently and merges the results.
// The merged list is deduplicated by server ID and ordered by strategy
// priority, not completion order. Returns ErrRetrievalFailure only when all
// strategies fail; a successful empty result is a legitimate empty list.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]Candidate, error) {
	type slot struct {
		servers []*descriptor.Server
		err     error
	}
	slots := make([]slot, len(r.strategies))

	var wg sync.WaitGroup
	for i, s := range r.strategies {
		wg.Add(1)
		go func(i int, s namedStrategy) {
			defer wg.Done()
			servers, err := s.run(ctx, req)
			if err != nil {
				r.logger.Warn("retrieval strategy failed", "strategy", s.name, "error", err)
			}
			slots[i] = slot{servers: servers, err: err}
		}(i, s)
	}
	wg.Wait()

	var errs []error
	failed := 0
	for i := range slots {
		if slots[i].err != nil {
			failed++
			errs = append(errs, fmt.Errorf("%s: %w", r.strategies[i].name, slots[i].err))
		}
	}
	if failed == len(r.strategies) {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailure, errors.Join(errs...))
	}

	// Merge in strategy priority order, deduplicating by server ID.
	seen := make(map[string]struct{})
	var merged []Candidate
	for i := range slots {
		for _, srv := range slots[i].servers {
			if _, dup := seen[srv.ID]; dup {
				continue
			}
			seen[srv.ID] = struct{}{}
			merged = append(merged, Candidate{
				Server:   srv,
				Strategy: r.strategies[i].name,
				Position: len(merged),
			})
		}
	}

	r.logger.Debug("candidates retrieved",
		"total", len(merged),
		"failed_strategies", failed)

	return merged, nil
}

// narrow filters by category plus the first requested capability, then
// requires a substring match of the query on name or description. Results
// are the top narrowCap by use count.
func (r *Retriever) narrow(ctx context.Context, req Request) ([]*descriptor.Server, error) {
	filter := descriptor.Filter{Category: req.Category}
	if len(req.Capabilities) > 0 {
		filter.Capability = req.Capabilities[0]
	}

	servers, err := r.registry.Discover(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(req.Query))
	var matched []*descriptor.Server
	for _, s := range servers {
		if !s.Routable() {
			continue
		}
		if q == "" || containsAnyToken(s.DisplayName+" "+s.Description, tokenize(q)) {
			matched = append(matched, s)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UseCount > matched[j].UseCount
	})
	return capResults(matched, r.narrowCap), nil
}

// expanded unions the intent's synonym set with the requested capabilities
// and the raw query tokens, then OR-matches the union as substrings over
// name, qualified name, and description.
func (r *Retriever) expanded(ctx context.Context, req Request) ([]*descriptor.Server, error) {
	servers, err := r.registry.GetAllServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all servers: %w", err)
	}

	tokens := synonymsFor(req.Intent)
	tokens = append(tokens, req.Capabilities...)
	tokens = append(tokens, tokenize(strings.ToLower(req.Query))...)

	var matched []*descriptor.Server
	for _, s := range servers {
		if !s.Routable() {
			continue
		}
		haystack := strings.ToLower(s.DisplayName + " " + s.QualifiedName + " " + s.Description)
		for _, tok := range tokens {
			if tok != "" && strings.Contains(haystack, strings.ToLower(tok)) {
				matched = append(matched, s)
				break
			}
		}
	}
	return capResults(matched, r.expandCap), nil
}

// broad is the last-resort strategy: substring match over tool names, tags,
// and description only, ordered by verified then use count.
func (r *Retriever) broad(ctx context.Context, req Request) ([]*descriptor.Server, error) {
	servers, err := r.registry.GetAllServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all servers: %w", err)
	}

	tokens := tokenize(strings.ToLower(req.Query))
	var matched []*descriptor.Server
	for _, s := range servers {
		if !s.Routable() {
			continue
		}
		var sb strings.Builder
		for _, t := range s.Tools {
			sb.WriteString(t.Name)
			sb.WriteString(" ")
		}
		for _, tag := range s.Tags {
			sb.WriteString(tag)
			sb.WriteString(" ")
		}
		sb.WriteString(s.Description)
		if containsAnyToken(sb.String(), tokens) {
			matched = append(matched, s)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Verified != matched[j].Verified {
			return matched[i].Verified
		}
		return matched[i].UseCount > matched[j].UseCount
	})
	return capResults(matched, r.broadCap), nil
}

// tokenize splits a lowercased query into search tokens, dropping short
// fragments that would match everything.
func tokenize(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// containsAnyToken reports whether the haystack contains any token as a
// substring (case-insensitive).
func containsAnyToken(haystack string, tokens []string) bool {
	h := strings.ToLower(haystack)
	for _, tok := range tokens {
		if tok != "" && strings.Contains(h, tok) {
			return true
		}
	}
	return false
}

func capResults(servers []*descriptor.Server, n int) []*descriptor.Server {
	if n > 0 && len(servers) > n {
		return servers[:n]
	}
	return servers
}
