package routing

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/intent"
)

// FallbackWindow is how many ranked candidates the selector tries before
// giving up with ErrNoUsableTool.
const FallbackWindow = 3

// MaxAlternatives bounds the runner-up list kept on a decision.
const MaxAlternatives = 2

// Weights parameterizes the candidate score. A single engine configured by
// weights replaces the parallel scoring variants the design notes call out.
type Weights struct {
	// StrategyBonus is the per-strategy source bonus.
	StrategyBonus map[string]float64
	// Verified is added when the server is registry-verified.
	Verified float64
	// UseCountScale multiplies log10(useCount+1).
	UseCountScale float64
	// NameMatch is added when a query token appears in the server name.
	NameMatch float64
	// DescMatch is added when a query token appears in the description.
	DescMatch float64
	// CategoryMatch is added when the server category equals the requested one.
	CategoryMatch float64
	// CapabilityToolMatch is added per requested capability found in the
	// server's declared tools.
	CapabilityToolMatch float64
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		StrategyBonus: map[string]float64{
			StrategyNarrow: 15,
			StrategyExpand: 10,
			StrategyBroad:  5,
		},
		Verified:            20,
		UseCountScale:       3,
		NameMatch:           25,
		DescMatch:           15,
		CategoryMatch:       20,
		CapabilityToolMatch: 10,
	}
}

// Ranker scores candidates deterministically and selects the (server, tool)
// pair, cascading to alternatives when the top candidate has no usable tool.
type Ranker struct {
	weights Weights
	logger  *slog.Logger
}

// NewRanker creates a Ranker with the given weights.
func NewRanker(weights Weights, logger *slog.Logger) *Ranker {
	return &Ranker{weights: weights, logger: logger}
}

// scored pairs a candidate with its computed score.
type scored struct {
	Candidate
	score float64
}

// Select ranks the candidates and picks the best usable (server, tool) pair.
// Returns ErrNoCandidateServer for an empty candidate list and
// ErrNoUsableTool when no candidate in the fallback window declares a tool.
func (r *Ranker) Select(candidates []Candidate, req Request) (*Decision, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidateServer
	}

	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{Candidate: c, score: r.Score(c, req)}
	}

	// Descending by score; ties by use count, then original discovery order
	// (the sort is stable and candidates carry their positions).
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].Server.UseCount > ranked[j].Server.UseCount
	})

	patterns := toolPatterns(req)

	window := FallbackWindow
	if window > len(ranked) {
		window = len(ranked)
	}
	for i := 0; i < window; i++ {
		top := ranked[i]
		tool, ok := selectTool(top.Server, patterns)
		if !ok {
			r.logger.Debug("candidate has no usable tool, cascading",
				"server", top.Server.ID, "rank", i)
			continue
		}

		decision := &Decision{
			Server:     top.Server,
			Tool:       tool,
			Confidence: normalizeScore(top.score),
			Strategy:   top.Strategy,
		}
		for _, alt := range ranked[i+1:] {
			if len(decision.Alternatives) == MaxAlternatives {
				break
			}
			decision.Alternatives = append(decision.Alternatives, Alternative{
				Server:     alt.Server,
				ServerID:   alt.Server.ID,
				Confidence: normalizeScore(alt.score),
			})
		}
		return decision, nil
	}

	return nil, ErrNoUsableTool
}

// Score computes the deterministic candidate score. No side effects.
func (r *Ranker) Score(c Candidate, req Request) float64 {
	s := c.Server
	score := r.weights.StrategyBonus[c.Strategy]

	if s.Verified {
		score += r.weights.Verified
	}
	score += r.weights.UseCountScale * math.Log10(float64(s.UseCount)+1)

	tokens := tokenize(strings.ToLower(req.Query))
	if containsAnyToken(s.DisplayName+" "+s.QualifiedName, tokens) {
		score += r.weights.NameMatch
	}
	if containsAnyToken(s.Description, tokens) {
		score += r.weights.DescMatch
	}
	if req.Category != "" && s.Category == req.Category {
		score += r.weights.CategoryMatch
	}

	for _, capability := range req.Capabilities {
		if capabilityInTools(s, capability) {
			score += r.weights.CapabilityToolMatch
		}
	}

	return score
}

// toolPatterns builds the tool-matching pattern set: intent keywords unioned
// with requested capabilities and the query's tokens.
func toolPatterns(req Request) []string {
	patterns := intent.Keywords(req.Intent)
	patterns = append(patterns, req.Capabilities...)
	patterns = append(patterns, tokenize(strings.ToLower(req.Query))...)
	return patterns
}

// selectTool scores each declared tool as 10*nameMatches + 5*descMatches
// summed over the pattern set and picks the maximum. When every tool scores
// zero the server's first declared tool is the fallback. Returns ok=false
// only when the server declares no tools at all.
func selectTool(s *descriptor.Server, patterns []string) (descriptor.Tool, bool) {
	if len(s.Tools) == 0 {
		return descriptor.Tool{}, false
	}

	best := 0
	bestIdx := -1
	for i, t := range s.Tools {
		score := 0
		name := strings.ToLower(t.Name)
		desc := strings.ToLower(t.Description)
		for _, p := range patterns {
			p = strings.ToLower(p)
			if p == "" {
				continue
			}
			if strings.Contains(name, p) {
				score += 10
			}
			if strings.Contains(desc, p) {
				score += 5
			}
		}
		if score > best {
			best = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return s.Tools[0], true
	}
	return s.Tools[bestIdx], true
}

// capabilityInTools reports whether a capability label appears in any of the
// server's tool names or descriptions.
func capabilityInTools(s *descriptor.Server, capability string) bool {
	c := strings.ToLower(capability)
	if c == "" {
		return false
	}
	for _, t := range s.Tools {
		if strings.Contains(strings.ToLower(t.Name), c) ||
			strings.Contains(strings.ToLower(t.Description), c) {
			return true
		}
	}
	return false
}

// normalizeScore maps a raw score to a confidence in [0,1].
func normalizeScore(score float64) float64 {
	return math.Min(score/100, 1.0)
}
