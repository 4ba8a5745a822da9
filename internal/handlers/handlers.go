package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"disk-indexer/internal/database"
	"disk-indexer/internal/scanner"
)

// Handlers serves the disk indexer HTTP API.
type Handlers struct {
	db        *database.Database
	scans     *scanner.Manager
	startTime time.Time
}

// New creates the API handlers.
func New(db *database.Database, scans *scanner.Manager) *Handlers {
	return &Handlers{
		db:        db,
		scans:     scans,
		startTime: time.Now(),
	}
}

// Register adds every API route to r.
func (h *Handlers) Register(r *mux.Router) {
	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	// Scans
	r.HandleFunc("/scan", h.StartScan).Methods(http.MethodPost)
	r.HandleFunc("/scan/{disk}/cancel", h.CancelScan).Methods(http.MethodPost)
	r.HandleFunc("/scans", h.ListScans).Methods(http.MethodGet)

	// Index
	r.HandleFunc("/disks", h.ListDisks).Methods(http.MethodGet)
	r.HandleFunc("/disks/{disk}", h.GetDisk).Methods(http.MethodGet)
	r.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
