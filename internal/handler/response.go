package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so all error
// bodies share one shape:
//
//	{"error": "not_found", "message": "Không tìm thấy thực phẩm."}
//
// "error" is machine-readable; "message" is shown to the user as is.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/model"
)

// maxBodyBytes leaves room for a 5MB image after base64 expansion.
const maxBodyBytes = 8 << 20

// ErrorResponse is the error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input field, for validation errors
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything set afterwards is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// errors.Is walks the Unwrap chain, so a wrapped AppError still maps:
//
//	fmt.Errorf("deleting: %w", apperror.NotFound(...)) → 404
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnavailable):
			status = http.StatusServiceUnavailable
			errorType = "unavailable"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Never leak internal details (paths, SQL, bucket names) to clients.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: model.MsgGeneric,
	})
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
