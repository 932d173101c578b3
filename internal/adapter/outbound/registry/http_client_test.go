package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-mcp/meridian/internal/domain/descriptor"
)

func registryHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	servers := map[string]any{
		"weather-1": map[string]any{
			"id":           "weather-1",
			"displayName":  "Weather Server",
			"category":     "Weather",
			"capabilities": []string{"weather_query"},
			"endpoint":     "https://weather.example.com/mcp",
			"verified":     true,
			"status":       "active",
		},
		"crypto-1": map[string]any{
			"id":           "crypto-1",
			"displayName":  "Crypto Prices",
			"category":     "Finance",
			"capabilities": []string{"cryptocurrency_price_query"},
			"endpoint":     "https://crypto.example.com/mcp",
			"status":       "active",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/servers":
			var list []any
			if capability := r.URL.Query().Get("capability"); capability != "" {
				for _, s := range servers {
					for _, c := range s.(map[string]any)["capabilities"].([]string) {
						if c == capability {
							list = append(list, s)
						}
					}
				}
			} else {
				for _, s := range servers {
					list = append(list, s)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"servers": list})
		case "/v1/servers/weather-1":
			_ = json.NewEncoder(w).Encode(servers["weather-1"])
		default:
			http.NotFound(w, r)
		}
	}
}

func TestHTTPRegistry_Get(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(registryHandler(t))
	defer srv.Close()

	r := NewHTTPRegistry(srv.URL, testLogger(), WithRegistryHTTPClient(srv.Client()))

	s, err := r.Get(context.Background(), "weather-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if s == nil || s.DisplayName != "Weather Server" {
		t.Errorf("Get(weather-1) = %+v, want Weather Server", s)
	}

	missing, err := r.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get(absent) error: %v", err)
	}
	if missing != nil {
		t.Errorf("Get(absent) = %+v, want nil", missing)
	}
}

func TestHTTPRegistry_Discover(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(registryHandler(t))
	defer srv.Close()

	r := NewHTTPRegistry(srv.URL, testLogger(), WithRegistryHTTPClient(srv.Client()))

	got, err := r.Discover(context.Background(), descriptor.Filter{Capability: "weather_query"})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "weather-1" {
		t.Errorf("Discover(weather_query) = %d servers, want [weather-1]", len(got))
	}
}

func TestHTTPRegistry_DropsInvalidRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"servers":[
			{"id":"good","endpoint":"https://good.example.com/mcp"},
			{"id":"bad","endpoint":""}
		]}`))
	}))
	defer srv.Close()

	r := NewHTTPRegistry(srv.URL, testLogger(), WithRegistryHTTPClient(srv.Client()))

	got, err := r.GetAllServers(context.Background())
	if err != nil {
		t.Fatalf("GetAllServers() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Errorf("GetAllServers() = %d servers, want only the valid record", len(got))
	}
}

func TestHTTPRegistry_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "registry down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRegistry(srv.URL, testLogger(), WithRegistryHTTPClient(srv.Client()))
	if _, err := r.GetAllServers(context.Background()); err == nil {
		t.Error("GetAllServers() error = nil, want error")
	}
}
