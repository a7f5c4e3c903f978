package api

import (
	"errors"
	"net/http"

	"github.com/eulerhq/euler-api/internal/api/shared"
	"github.com/eulerhq/euler-api/internal/queue"
	"github.com/eulerhq/euler-api/internal/service"
	"github.com/eulerhq/euler-api/internal/service/auth"
	"github.com/eulerhq/euler-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrSolveRequestNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrDocumentNotProcessable),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Backpressure: the queue cannot accept work right now
	case errors.Is(err, queue.ErrQueueUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrDocumentNotFound):
		return "Document not found"
	case errors.Is(err, service.ErrSolveRequestNotFound):
		return "Solve request not found"
	case errors.Is(err, queue.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, service.ErrDocumentNotProcessable):
		return "Document cannot be processed in its current state"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	case errors.Is(err, queue.ErrQueueUnavailable):
		return "Service temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// RespondWithMappedError maps err to a status code and safe message, then
// writes the response.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
