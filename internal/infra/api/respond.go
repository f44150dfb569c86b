package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hosting-payments/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	default:
		// ErrConfiguration, ErrPersistence and storage failures
		return http.StatusInternalServerError
	}
}

// publicMessage keeps internals out of 5xx bodies.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		if errors.Is(err, domain.ErrConfiguration) {
			return domain.ErrConfiguration.Error()
		}
		return "internal error"
	}
	return err.Error()
}
