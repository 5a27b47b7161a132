// Package httpx provides JSON response helpers for the REST API.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the envelope for every API failure.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// DecodeJSON decodes the request body into target. Malformed or oversized
// bodies come back as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return shared.NewValidationError("", "Request body is required")
		case errors.As(err, &maxErr):
			return shared.NewValidationError("", "Request body is too large")
		default:
			return shared.NewValidationError("", "Invalid JSON body")
		}
	}
	return nil
}
