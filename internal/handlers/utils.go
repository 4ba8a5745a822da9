package handlers

import (
	"encoding/json"
	"net/http"

	"disk-indexer/internal/logging"
)

// Response status values
const (
	statusOK    = "ok"
	statusError = "error"
)

// StatusResponse is the body of scan acknowledgements and every error.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ScanID  string `json:"scan_id,omitempty"`
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes {"status":"error","message":...} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatusCode(w, statusCode, StatusResponse{Status: statusError, Message: message})
}
