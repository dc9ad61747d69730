// Package service contains the application's orchestration layer:
// authorization checks, cross-store consistency and event publishing.
package service

import "errors"

// Service-level errors.
var (
	// ErrTaskNotOwned is returned when an authenticated principal is
	// neither the task's owner nor an admin.
	ErrTaskNotOwned = errors.New("task not owned by user")

	// ErrAdminRequired is returned when a non-admin principal invokes
	// an admin-scoped operation.
	ErrAdminRequired = errors.New("admin access required")

	// ErrCannotDeleteSelf is returned when an admin attempts to delete
	// their own account.
	ErrCannotDeleteSelf = errors.New("cannot delete own account")
)
