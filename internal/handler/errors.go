package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkondratev/eventprog/internal/domain"
)

// errorResponse is the JSON envelope for every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes v as the JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes a structured error body.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// respondServiceError maps the domain sentinel wrapped in a service error to
// its HTTP status: 404 for ErrNotFound, 422 for ErrValidation, 503 for
// ErrUnavailable, 500 otherwise.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", clientMessage(err, "not found"))
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusUnprocessableEntity, "validation_error", clientMessage(err, "validation error"))
	case errors.Is(err, domain.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "unavailable", clientMessage(err, "data unavailable"))
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// requestError writes a bad-request error rejected before reaching the
// service layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// clientMessage returns the display message carried by a domain.Error in
// the chain. Bare wrapped sentinels fall back to the generic text; the
// layer-by-layer wrapping detail stays in the logs.
func clientMessage(err error, fallback string) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
