// Package handlers implements the HTTP handlers of the API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
	"github.com/RonitKhanna333/sih-final-2/internal/api/validation"
	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
)

// decodeJSONBody decodes and validates the request body into dst. On failure it
// writes the 400 response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		slog.WarnContext(r.Context(), "Invalid request body", "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondBadRequest(w, "Invalid request body")

		return false
	}

	if err := validation.ValidateStruct(dst); err != nil {
		validation.RespondValidationError(w, err)

		return false
	}

	return true
}

// respondServiceError maps service errors to problem responses. Unexpected
// errors are logged and hidden behind a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		response.RespondNotFound(w, err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		response.RespondBadRequest(w, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Failed to "+op, "method", r.Method, "path", r.URL.Path, "error", err)
		response.RespondInternalServerError(w, "An unexpected error occurred")
	}
}
