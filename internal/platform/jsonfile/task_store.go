package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taskpanel/internal/domain"
	"taskpanel/internal/store"
)

// TaskStore is the file-backed implementation of store.TaskStore. The
// persisted document maps task ID to task.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	path   string
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// OpenTaskStore loads the task registry from path. A missing file
// yields an empty registry; a file that exists but cannot be decoded
// aborts startup with store.ErrCorruptState so data loss never goes
// unnoticed.
func OpenTaskStore(path string, logger *slog.Logger) (*TaskStore, error) {
	tasks := make(map[string]*domain.Task)
	found, err := loadFile(path, &tasks)
	if err != nil {
		if found {
			return nil, fmt.Errorf("%w: %v", store.ErrCorruptState, err)
		}
		return nil, err
	}

	logger = logger.With("component", "task_store")
	logger.Info("task registry loaded", "path", path, "tasks", len(tasks))

	return &TaskStore{
		tasks:  tasks,
		path:   path,
		logger: logger,
	}, nil
}

// save persists the whole registry. Callers must hold the write lock.
func (s *TaskStore) save() error {
	if err := writeFileAtomic(s.path, s.tasks); err != nil {
		s.logger.Error("failed to persist task registry", "error", err, "path", s.path)
		return fmt.Errorf("%w: %v", store.ErrWriteFailed, err)
	}
	return nil
}

// Create saves a new task and synchronously persists the registry.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return store.ErrTaskExists
	}

	s.tasks[task.ID] = task.Clone()
	return s.save()
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns every task in the registry.
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

// Update applies the mutator to the stored task and persists the
// result. The mutation and the durable write happen under the store
// lock, so concurrent updates to the same task serialize.
func (s *TaskStore) Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	updated := task.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}

	s.tasks[id] = updated
	if err := s.save(); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete removes a task and persists the registry.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}

	delete(s.tasks, id)
	return s.save()
}

// Flush forces a durable write of the registry.
func (s *TaskStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}
