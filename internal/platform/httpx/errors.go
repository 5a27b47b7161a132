package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-crm/internal/shared"
)

// Status maps a domain error onto an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the {"error": ...} body for err. Validation messages
// are passed through, a missing record yields "<resource> not found", and
// everything else collapses to "Failed to <action>" so storage detail never
// reaches the client.
func RespondError(w http.ResponseWriter, err error, resource, action string) {
	status := Status(err)
	switch status {
	case http.StatusBadRequest:
		msg := "Invalid request"
		if verr, ok := shared.AsValidation(err); ok {
			msg = verr.Message
		}
		Error(w, status, msg)
	case http.StatusNotFound:
		Error(w, status, resource+" not found")
	default:
		Error(w, status, "Failed to "+action)
	}
}
