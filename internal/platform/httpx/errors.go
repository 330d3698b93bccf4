// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/surveydesk/backoffice/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unexpected errors are reported without detail so internals do not leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidQuery):
		Problem(w, http.StatusBadRequest, "Invalid Query", err.Error())
	case errors.Is(err, shared.ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
