// Package cel provides a CEL-based candidate filter. Operators express
// routing policy as a boolean expression over the candidate server and the
// classified query; servers the expression rejects never reach ranking.
package cel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
)

// maxExpressionLength is the maximum allowed length for filter expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion DoS.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout is the maximum time allowed for a single evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Filter compiles a CEL expression once and evaluates it per candidate.
// A nil *Filter admits every candidate, so callers can treat the policy as
// optional.
type Filter struct {
	program cel.Program
	expr    string
	logger  *slog.Logger
}

// NewFilter compiles the given expression against the candidate environment.
// An empty expression returns a nil filter.
func NewFilter(expression string, logger *slog.Logger) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}
	if err := validateExpression(expression); err != nil {
		return nil, err
	}

	env, err := newCandidateEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create filter environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter expression: %w", issues.Err())
	}

	program, err := env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}

	return &Filter{program: program, expr: expression, logger: logger}, nil
}

// Allow evaluates the filter for one candidate server. A non-boolean result
// or evaluation error rejects the candidate and is reported to the caller.
func (f *Filter) Allow(ctx context.Context, server *descriptor.Server, req routing.Request) (bool, error) {
	if f == nil {
		return true, nil
	}

	evalCtx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	result, _, err := f.program.ContextEval(evalCtx, buildActivation(server, req))
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter expression returned %T, want bool", result.Value())
	}
	return allowed, nil
}

// Apply filters a candidate list in place order. Candidates whose evaluation
// fails are dropped and logged rather than failing the whole route: a broken
// policy row should degrade selection, not take the engine down.
func (f *Filter) Apply(ctx context.Context, candidates []routing.Candidate, req routing.Request) []routing.Candidate {
	if f == nil {
		return candidates
	}

	kept := make([]routing.Candidate, 0, len(candidates))
	for _, c := range candidates {
		allowed, err := f.Allow(ctx, c.Server, req)
		if err != nil {
			f.logger.Warn("candidate filter evaluation failed",
				"server", c.Server.ID, "error", err)
			continue
		}
		if allowed {
			kept = append(kept, c)
		}
	}
	return kept
}

// Expression returns the source expression, "" for a nil filter.
func (f *Filter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// validateExpression enforces the safety limits before compilation.
func validateExpression(expr string) error {
	if expr == "" {
		return errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	return validateNesting(expr)
}

// validateNesting checks that the expression does not exceed the maximum
// allowed nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Compile-time check that Filter implements the CandidateFilter port.
var _ routing.CandidateFilter = (*Filter)(nil)
