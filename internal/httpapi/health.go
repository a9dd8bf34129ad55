package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/sawpanic/regimescope/internal/cache"
	"github.com/sawpanic/regimescope/internal/provider"
)

// healthHandler serves /health and /cache/stats, grounded on the teacher's
// HealthHandler: overall status derived from provider circuit-breaker
// state plus a runtime snapshot, with the teacher's multi-provider
// registry collapsed to this core's single DataProvider.
type healthHandler struct {
	cache      *cache.Manager
	provider   *provider.Provider
	startTime  time.Time
	version    string
	buildStamp string
}

func newHealthHandler(cacheMgr *cache.Manager, prov *provider.Provider, version, buildStamp string) *healthHandler {
	return &healthHandler{cache: cacheMgr, provider: prov, startTime: time.Now(), version: version, buildStamp: buildStamp}
}

// systemInfo is the Go-runtime snapshot included in every health response.
type systemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAllocBytes uint64 `json:"mem_alloc_bytes"`
}

// providerHealth is the DataProvider's circuit-breaker snapshot.
type providerHealth struct {
	Name     string `json:"name"`
	State    string `json:"state"` // "closed", "half-open", "open"
	Requests int64  `json:"requests"`
	Failures int64  `json:"failures"`
}

type healthResponse struct {
	Status     string         `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time      `json:"timestamp"`
	Uptime     string         `json:"uptime"`
	Version    string         `json:"version"`
	BuildStamp string         `json:"build_stamp,omitempty"`
	System     systemInfo     `json:"system"`
	Provider   providerHealth `json:"provider"`
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.gather()
	switch resp.Status {
	case "healthy", "degraded":
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *healthHandler) gather() healthResponse {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	name, state, requests, failures := h.provider.Health()
	ph := providerHealth{Name: name, State: state, Requests: requests, Failures: failures}

	status := "healthy"
	switch ph.State {
	case "open":
		status = "unhealthy"
	case "half-open":
		status = "degraded"
	}

	return healthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime).String(),
		Version:    h.version,
		BuildStamp: h.buildStamp,
		System: systemInfo{
			GoVersion:     runtime.Version(),
			NumGoroutines: runtime.NumGoroutine(),
			MemAllocBytes: mem.Alloc,
		},
		Provider: ph,
	}
}

func (h *healthHandler) cacheStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.cache.GetStats(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}
