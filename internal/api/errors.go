package api

import (
	"errors"
	"net/http"

	"taskpanel/internal/api/shared"
	"taskpanel/internal/domain"
	"taskpanel/internal/service"
	"taskpanel/internal/service/auth"
	"taskpanel/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
// This keeps the existence-vs-authorization ordering decided in the
// service layer and prevents leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrTaskNotOwned),
		errors.Is(err, service.ErrAdminRequired):
		return http.StatusForbidden

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Persistence failures: the mutation may not be durable, so this
	// must never look like a client mistake or a silent success.
	case errors.Is(err, store.ErrWriteFailed):
		return http.StatusInternalServerError

	// Bad request errors
	case errors.Is(err, service.ErrCannotDeleteSelf),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, store.ErrDuplicate),
		isDomainValidation(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, service.ErrTaskNotOwned):
		return "Access denied"
	case errors.Is(err, service.ErrAdminRequired):
		return "Admin access required"
	case errors.Is(err, service.ErrCannotDeleteSelf):
		return "Cannot delete your own account"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	case errors.Is(err, store.ErrWriteFailed):
		return "Failed to persist changes"
	case errors.Is(err, domain.ErrInvalidAction):
		return "Invalid control action"
	case errors.Is(err, domain.ErrValidation), isDomainValidation(err):
		return err.Error()
	default:
		return "An unexpected error occurred"
	}
}

// HandleServiceError writes the mapped status and safe message for an
// error coming out of the service layer.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
}

// isDomainValidation reports whether err is one of the domain entity
// validation sentinels (empty name, missing messages and friends).
func isDomainValidation(err error) bool {
	return errors.Is(err, domain.ErrEmptyTaskName) ||
		errors.Is(err, domain.ErrEmptyTaskOwner) ||
		errors.Is(err, domain.ErrEmptyThreadID) ||
		errors.Is(err, domain.ErrEmptyMessages) ||
		errors.Is(err, domain.ErrNegativeDelay) ||
		errors.Is(err, domain.ErrEmptyUsername) ||
		errors.Is(err, domain.ErrInvalidRole)
}
