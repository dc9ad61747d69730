package store

import (
	"context"

	"taskpanel/internal/domain"
)

// UserStore defines the interface for user account persistence. Like
// the task registry it is in-memory authoritative with a synchronous
// durable write on every mutation.
type UserStore interface {
	// Get retrieves a user by username.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user still carries the password hash; read paths
	// that leave the process must strip it.
	Get(ctx context.Context, username string) (*domain.User, error)

	// List returns every registered user.
	List(ctx context.Context) ([]*domain.User, error)

	// Create saves a new user.
	// Returns ErrUsernameExists if the username is already taken.
	Create(ctx context.Context, user *domain.User) error

	// RecordLogin stamps the user's lastLogin with the current time.
	// Returns ErrUserNotFound if the user does not exist.
	RecordLogin(ctx context.Context, username string) error

	// AddTask appends a task ID to the user's owned-task set. The
	// caller is responsible for keeping this consistent with the task
	// registry's owner field.
	// Returns ErrUserNotFound if the user does not exist.
	AddTask(ctx context.Context, username, taskID string) error

	// RemoveTask removes a task ID from the user's owned-task set.
	// Removing an ID that is not present is not an error.
	// Returns ErrUserNotFound if the user does not exist.
	RemoveTask(ctx context.Context, username, taskID string) error

	// Delete removes a user. Owned tasks are not cascade-deleted; they
	// stay in the task registry with an owner that no longer resolves,
	// which makes them reachable by admins only.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, username string) error

	// Flush forces a durable write of the whole registry.
	Flush(ctx context.Context) error
}
