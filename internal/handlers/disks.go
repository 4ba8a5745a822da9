package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"disk-indexer/internal/logging"
)

// ListDisks returns every disk's scan state, most recently scanned first.
func (h *Handlers) ListDisks(w http.ResponseWriter, r *http.Request) {
	disks, err := h.db.ListDisks(r.Context())
	if err != nil {
		logging.Error("Failed to list disks: %v", err)
		writeJSONError(w, "Failed to list disks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, disks)
}

// GetDisk returns one disk's scan state.
func (h *Handlers) GetDisk(w http.ResponseWriter, r *http.Request) {
	disk, err := h.db.GetDisk(r.Context(), mux.Vars(r)["disk"])
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeJSONError(w, "Disk not found", http.StatusNotFound)
		return
	case err != nil:
		logging.Error("Failed to get disk: %v", err)
		writeJSONError(w, "Failed to get disk", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, disk)
}

// GetStats returns the cached index statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatusCode(w, http.StatusOK, h.db.GetStats())
}
