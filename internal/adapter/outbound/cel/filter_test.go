package cel

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
	"github.com/meridian-mcp/meridian/internal/domain/routing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func weatherServer() *descriptor.Server {
	return &descriptor.Server{
		ID:            "weather-1",
		QualifiedName: "acme/weather-server",
		DisplayName:   "Weather Server",
		Category:      "Weather",
		Capabilities:  []string{"weather_query"},
		Tools:         []descriptor.Tool{{Name: "get_weather"}},
		Endpoint:      "https://weather.example.com/mcp",
		TrustScore:    80,
		Verified:      true,
		UseCount:      100,
		Status:        descriptor.StatusActive,
	}
}

func TestFilter_Allow(t *testing.T) {
	t.Parallel()

	req := routing.Request{
		Query:        "weather in Tokyo",
		Intent:       "weather_query",
		Capabilities: []string{"weather_query"},
		Category:     "Weather",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"verified only", `verified`, true},
		{"trust threshold met", `trust_score >= 50`, true},
		{"trust threshold failed", `trust_score >= 90`, false},
		{"capability membership", `"weather_query" in capabilities`, true},
		{"category match", `category == query_category`, true},
		{"glob on qualified name", `glob("acme/*", qualified_name)`, true},
		{"glob miss", `glob("evil/*", qualified_name)`, false},
		{"tool name membership", `"get_weather" in tool_names`, true},
		{"intent gate", `intent == "weather_query" && status == "active"`, true},
		{"compound rejection", `verified && use_count > 1000`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewFilter(tt.expr, testLogger())
			if err != nil {
				t.Fatalf("NewFilter(%q) error: %v", tt.expr, err)
			}

			got, err := f.Allow(context.Background(), weatherServer(), req)
			if err != nil {
				t.Fatalf("Allow() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow() with %q = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestFilter_NilAdmitsAll(t *testing.T) {
	t.Parallel()

	f, err := NewFilter("", testLogger())
	if err != nil {
		t.Fatalf("NewFilter(empty) error: %v", err)
	}
	if f != nil {
		t.Fatal("NewFilter(empty) != nil, want nil filter")
	}

	allowed, err := f.Allow(context.Background(), weatherServer(), routing.Request{})
	if err != nil {
		t.Fatalf("Allow() on nil filter error: %v", err)
	}
	if !allowed {
		t.Error("nil filter rejected a candidate")
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	unverified := weatherServer()
	unverified.ID = "weather-2"
	unverified.Verified = false

	candidates := []routing.Candidate{
		{Server: weatherServer(), Strategy: routing.StrategyNarrow},
		{Server: unverified, Strategy: routing.StrategyExpand},
	}

	f, err := NewFilter(`verified`, testLogger())
	if err != nil {
		t.Fatalf("NewFilter() error: %v", err)
	}

	kept := f.Apply(context.Background(), candidates, routing.Request{})
	if len(kept) != 1 {
		t.Fatalf("Apply() kept %d candidates, want 1", len(kept))
	}
	if kept[0].Server.ID != "weather-1" {
		t.Errorf("Apply() kept %s, want weather-1", kept[0].Server.ID)
	}
}

func TestNewFilter_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", `verified &&`},
		{"unknown variable", `no_such_variable == "x"`},
		{"too long", strings.Repeat("verified && ", 200) + "verified"},
		{"too deeply nested", strings.Repeat("(", 60) + "verified" + strings.Repeat(")", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewFilter(tt.expr, testLogger()); err == nil {
				t.Errorf("NewFilter(%q) error = nil, want error", tt.expr)
			}
		})
	}
}

func TestFilter_NonBooleanResult(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(`display_name`, testLogger())
	if err != nil {
		t.Fatalf("NewFilter() error: %v", err)
	}

	if _, err := f.Allow(context.Background(), weatherServer(), routing.Request{}); err == nil {
		t.Error("Allow() error = nil for non-boolean expression, want error")
	}
}
