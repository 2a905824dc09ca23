// Package handlers implements the scanner's read/write observability API:
// blacklist management, runtime settings, notification history, and
// aggregate stats. Each handler wraps a narrow interface satisfied by the
// corresponding internal/service type.
package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON shape returned on any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse wraps a message-only acknowledgement body.
type SuccessResponse struct {
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
