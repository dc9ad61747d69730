package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"taskpanel/internal/store"
)

// CredentialStore keeps one opaque credential blob per task under a
// dedicated directory, at a path derived from the task ID.
type CredentialStore struct {
	dir    string
	logger *slog.Logger
}

var _ store.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore creates the credentials directory if needed.
func NewCredentialStore(dir string, logger *slog.Logger) (*CredentialStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credentials dir %s: %w", dir, err)
	}
	return &CredentialStore{
		dir:    dir,
		logger: logger.With("component", "credential_store"),
	}, nil
}

// Path returns the artifact path for a task's credential blob.
func (s *CredentialStore) Path(taskID string) string {
	return filepath.Join(s.dir, "cookie_"+taskID+".txt")
}

// Write stores the credential blob for the given task.
func (s *CredentialStore) Write(ctx context.Context, taskID, content string) error {
	path := s.Path(taskID)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		s.logger.Error("failed to write credential blob", "error", err, "task_id", taskID)
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// Read returns the stored credential blob.
func (s *CredentialStore) Read(ctx context.Context, taskID string) (string, error) {
	data, err := os.ReadFile(s.Path(taskID))
	if os.IsNotExist(err) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read credential blob for task %s: %w", taskID, err)
	}
	return string(data), nil
}

// Delete removes the credential blob. A missing blob is not an error.
func (s *CredentialStore) Delete(ctx context.Context, taskID string) error {
	err := os.Remove(s.Path(taskID))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to delete credential blob", "error", err, "task_id", taskID)
		return fmt.Errorf("delete credential blob for task %s: %w", taskID, err)
	}
	return nil
}
