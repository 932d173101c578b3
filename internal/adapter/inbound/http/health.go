package http

import (
	"net/http"
	"runtime"
)

// HealthResponse is the JSON response from the /healthz endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version,omitempty"`
	GoVersion    string `json:"go_version"`
	CacheEntries int    `json:"cache_entries"`
	CatalogSize  int    `json:"catalog_size"`
}

// HealthChecker reports process liveness plus routing engine gauges.
type HealthChecker struct {
	version     string
	cacheLen    func() int
	catalogSize func() int
}

// NewHealthChecker creates a HealthChecker. The size callbacks may be nil.
func NewHealthChecker(version string, cacheLen, catalogSize func() int) *HealthChecker {
	return &HealthChecker{version: version, cacheLen: cacheLen, catalogSize: catalogSize}
}

// ServeHTTP serves GET /healthz.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
	}
	if h.cacheLen != nil {
		resp.CacheEntries = h.cacheLen()
	}
	if h.catalogSize != nil {
		resp.CatalogSize = h.catalogSize()
	}
	writeJSON(w, http.StatusOK, resp)
}
