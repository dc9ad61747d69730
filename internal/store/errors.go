package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. Entity-specific variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a
	// duplicate of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrWriteFailed is returned when a durable write fails after an
	// in-memory mutation. Callers must surface it rather than report
	// success; the registry on disk may be behind the one in memory
	// until the next successful flush.
	ErrWriteFailed = errors.New("durable write failed")

	// ErrCorruptState is returned at startup when a persisted document
	// exists but cannot be decoded. The process must fail fast instead
	// of silently resetting to an empty registry.
	ErrCorruptState = errors.New("persisted state is corrupt")

	// ErrTaskNotFound indicates that the requested task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskExists indicates a task with the same ID already exists.
	ErrTaskExists = fmt.Errorf("%w: task", ErrDuplicate)

	// ErrUsernameExists indicates a user with the same username already
	// exists.
	ErrUsernameExists = fmt.Errorf("%w: username", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
