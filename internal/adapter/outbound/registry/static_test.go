package registry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func catalogServers() []descriptor.Server {
	return []descriptor.Server{
		{
			ID:           "weather-1",
			DisplayName:  "Weather Server",
			Category:     "Weather",
			Capabilities: []string{"weather_query"},
			Endpoint:     "https://weather.example.com/mcp",
			Verified:     true,
			Status:       descriptor.StatusActive,
			Tools:        []descriptor.Tool{{Name: "get_weather"}},
		},
		{
			ID:           "crypto-1",
			DisplayName:  "Crypto Prices",
			Category:     "Finance",
			Capabilities: []string{"cryptocurrency_price_query"},
			Endpoint:     "https://crypto.example.com/mcp",
			Status:       descriptor.StatusActive,
		},
	}
}

func TestStaticRegistry_GetAndDiscover(t *testing.T) {
	t.Parallel()

	r, err := NewStaticRegistry(catalogServers(), testLogger())
	if err != nil {
		t.Fatalf("NewStaticRegistry() error: %v", err)
	}

	got, err := r.Get(context.Background(), "weather-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.DisplayName != "Weather Server" {
		t.Errorf("Get(weather-1) = %+v, want Weather Server", got)
	}

	missing, err := r.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get(nope) error: %v", err)
	}
	if missing != nil {
		t.Errorf("Get(nope) = %+v, want nil", missing)
	}

	finance, err := r.Discover(context.Background(), descriptor.Filter{Category: "Finance"})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(finance) != 1 || finance[0].ID != "crypto-1" {
		t.Errorf("Discover(Finance) = %v servers, want [crypto-1]", len(finance))
	}

	all, err := r.GetAllServers(context.Background())
	if err != nil {
		t.Fatalf("GetAllServers() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("GetAllServers() = %d servers, want 2", len(all))
	}
}

func TestStaticRegistry_CopyOnRead(t *testing.T) {
	t.Parallel()

	r, err := NewStaticRegistry(catalogServers(), testLogger())
	if err != nil {
		t.Fatalf("NewStaticRegistry() error: %v", err)
	}

	first, _ := r.Get(context.Background(), "weather-1")
	first.Capabilities[0] = "mutated"
	first.Tools[0].Name = "mutated"

	second, _ := r.Get(context.Background(), "weather-1")
	if second.Capabilities[0] != "weather_query" {
		t.Error("catalog capability mutated through returned copy")
	}
	if second.Tools[0].Name != "get_weather" {
		t.Error("catalog tool mutated through returned copy")
	}
}

func TestStaticRegistry_RejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		servers []descriptor.Server
	}{
		{"missing endpoint", []descriptor.Server{{ID: "a"}}},
		{"bad trust score", []descriptor.Server{{ID: "a", Endpoint: "https://a.example.com", TrustScore: 200}}},
		{"duplicate id", []descriptor.Server{
			{ID: "a", Endpoint: "https://a.example.com"},
			{ID: "a", Endpoint: "https://b.example.com"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewStaticRegistry(tt.servers, testLogger()); err == nil {
				t.Error("NewStaticRegistry() error = nil, want error")
			}
		})
	}
}

func TestLoadStaticRegistry_YAML(t *testing.T) {
	t.Parallel()

	catalog := `
servers:
  - id: news-1
    qualified_name: acme/news-server
    display_name: News Server
    category: News
    capabilities: [news_query]
    endpoint: https://news.example.com/mcp
    verified: true
    use_count: 42
    status: active
    tools:
      - name: get_headlines
        description: Latest headlines by topic
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	r, err := LoadStaticRegistry(path, testLogger())
	if err != nil {
		t.Fatalf("LoadStaticRegistry() error: %v", err)
	}

	s, err := r.Get(context.Background(), "news-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if s == nil {
		t.Fatal("Get(news-1) = nil")
	}
	if s.QualifiedName != "acme/news-server" {
		t.Errorf("QualifiedName = %q, want acme/news-server", s.QualifiedName)
	}
	if s.UseCount != 42 {
		t.Errorf("UseCount = %d, want 42", s.UseCount)
	}
	if len(s.Tools) != 1 || s.Tools[0].Name != "get_headlines" {
		t.Errorf("Tools = %+v, want [get_headlines]", s.Tools)
	}
}

func TestLoadStaticRegistry_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadStaticRegistry(filepath.Join(t.TempDir(), "absent.yaml"), testLogger()); err == nil {
		t.Error("LoadStaticRegistry(absent) error = nil, want error")
	}
}
