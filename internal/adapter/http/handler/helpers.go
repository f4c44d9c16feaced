package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/payreplay/internal/adapter/http/dto"
	"github.com/iho/payreplay/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapReplayError maps replay errors to HTTP status codes. A malformed log
// is the caller's fault; anything else that kills a run is ours.
func mapReplayError(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
