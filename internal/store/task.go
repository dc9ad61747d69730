package store

import (
	"context"

	"taskpanel/internal/domain"
)

// TaskStore defines the interface for task persistence. The registry
// is in-memory authoritative; every mutating call performs a
// synchronous durable write before returning, so a clean restart
// observes the latest committed state.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrTaskExists if the ID is already taken and
	// ErrWriteFailed if the durable write fails.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns every task in the registry, unfiltered. Visibility
	// filtering is the service layer's concern.
	List(ctx context.Context) ([]*domain.Task, error)

	// Update applies the mutator to the stored task and persists the
	// result. If the mutator returns an error the task is left
	// untouched and the error is returned verbatim.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error)

	// Delete removes a task from the registry.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id string) error

	// Flush forces a durable write of the whole registry. The periodic
	// persistence scheduler calls this to bound the loss window for
	// any mutation path that skipped its sync write.
	Flush(ctx context.Context) error
}

// CredentialStore persists the opaque credential blob attached to each
// task, one artifact per task ID, created at task creation and removed
// at task deletion.
type CredentialStore interface {
	// Write stores the credential blob for the given task.
	Write(ctx context.Context, taskID, content string) error

	// Read returns the stored credential blob.
	// Returns ErrNotFound if no blob exists for the task.
	Read(ctx context.Context, taskID string) (string, error)

	// Delete removes the credential blob. Deleting a missing blob is
	// not an error; task deletion must be able to proceed.
	Delete(ctx context.Context, taskID string) error
}
