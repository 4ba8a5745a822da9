package handlers

import (
	"net/http"
	"runtime"
	"time"

	"disk-indexer/internal/database"
	"disk-indexer/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Database info
	Database      string          `json:"database"`
	DatabaseError string          `json:"databaseError,omitempty"`
	Schema        database.Schema `json:"schema"`

	// Scan info
	ActiveScans int `json:"activeScans"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalDisks int    `json:"totalDisks"`
	TotalFiles int64  `json:"totalFiles"`
	TotalBytes int64  `json:"totalBytes"`
	LastScan   string `json:"lastScan,omitempty"`
}

// HealthCheck returns the health status of the service. A legacy schema
// reports degraded; an unreachable database reports unhealthy with 503.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.db.GetStats()
	schema := h.db.Schema()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Database:     "ok",
		Schema:       schema,
		ActiveScans:  len(h.scans.Active()),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		TotalDisks:   stats.TotalDisks,
		TotalFiles:   stats.TotalFiles,
		TotalBytes:   stats.TotalBytes,
		LastScan:     stats.LastScan,
	}

	if schema.Degraded() {
		response.Status = statusDegraded
	}

	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		response.Status = statusUnhealthy
		response.Ready = false
		response.Database = "unreachable"
		response.DatabaseError = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSONStatusCode(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the database can be reached
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}

	writeJSONStatusCode(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
