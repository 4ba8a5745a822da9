package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"disk-indexer/internal/logging"
	"disk-indexer/internal/scanner"
)

// maxScanRequestBytes bounds the POST /scan body.
const maxScanRequestBytes = 1 << 20

// ScanRequest is the POST /scan body.
type ScanRequest struct {
	DiskName string `json:"disk_name"`
	Folder   string `json:"folder"`
}

// StartScan accepts a scan and returns before it runs. A body that is not
// valid JSON is treated as empty.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScanRequestBytes)).Decode(&req); err != nil {
		logging.Debug("Ignoring unreadable scan request body: %v", err)
		req = ScanRequest{}
	}

	handle, err := h.scans.Start(req.DiskName, req.Folder)
	switch {
	case errors.Is(err, scanner.ErrMissingFields):
		writeJSONError(w, "disk_name and folder are required", http.StatusBadRequest)
		return
	case errors.Is(err, scanner.ErrScanInProgress):
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, scanner.ErrManagerClosed):
		writeJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	case err != nil:
		logging.Error("Failed to start scan of disk %q: %v", req.DiskName, err)
		writeJSONError(w, "Failed to start scan", http.StatusInternalServerError)
		return
	}

	writeJSONStatusCode(w, http.StatusOK, StatusResponse{
		Status:  statusOK,
		Message: "Scan started",
		ScanID:  handle.ID,
	})
}

// CancelScan asks the running scan of a disk to stop. The disk ends in the
// error state once the scan notices.
func (h *Handlers) CancelScan(w http.ResponseWriter, r *http.Request) {
	disk := mux.Vars(r)["disk"]

	if !h.scans.Cancel(disk) {
		writeJSONError(w, "No scan in progress for disk", http.StatusNotFound)
		return
	}

	writeJSONStatusCode(w, http.StatusOK, StatusResponse{Status: statusOK, Message: "Cancellation requested"})
}

// ListScans returns the scans running in this process.
func (h *Handlers) ListScans(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatusCode(w, http.StatusOK, h.scans.Active())
}
