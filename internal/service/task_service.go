package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taskpanel/internal/domain"
	"taskpanel/internal/events"
	"taskpanel/internal/store"
)

// ControlAction is a lifecycle command applied to a task.
type ControlAction string

const (
	ActionStart   ControlAction = "start"
	ActionStop    ControlAction = "stop"
	ActionRestart ControlAction = "restart"
)

// CreateTaskParams carries the caller-supplied fields for a new task.
// Messages is the raw uploaded text; it is split on newlines with
// blank lines discarded.
type CreateTaskParams struct {
	Name              string
	Config            domain.TaskConfig
	CredentialContent string
	Messages          string
}

// TaskService orchestrates every task-scoped operation: it enforces
// owner-or-admin authorization, keeps the task registry and the
// owners' task sets mutually consistent, and publishes events after
// each mutation.
//
// All consistency-linked mutations run under one coarse mutex. That
// also makes append-then-broadcast atomic per task: subscribers
// observe log entries in exactly the order they were appended.
type TaskService struct {
	mu     sync.Mutex
	tasks  store.TaskStore
	users  store.UserStore
	creds  store.CredentialStore
	bus    *events.Bus
	logger *slog.Logger
}

// NewTaskService creates a TaskService with the given dependencies.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	creds store.CredentialStore,
	bus *events.Bus,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:  tasks,
		users:  users,
		creds:  creds,
		bus:    bus,
		logger: logger.With("component", "task_service"),
	}
}

// authorize checks the uniform owner-or-admin rule. Existence is
// established before this is called, so the ordering of NotFound vs
// Forbidden is the same on every operation.
func (s *TaskService) authorize(principal domain.Principal, task *domain.Task) error {
	if !principal.CanAccess(task) {
		return ErrTaskNotOwned
	}
	return nil
}

// Create validates the parameters, stores the credential blob, saves
// the task and records it in the owner's task set.
func (s *TaskService) Create(ctx context.Context, principal domain.Principal, params CreateTaskParams) (*domain.Task, error) {
	messages := domain.SplitMessages(params.Messages)

	task, err := domain.NewTask(params.Name, principal.Username, params.Config, messages)
	if err != nil {
		return nil, err
	}
	if params.CredentialContent == "" {
		return nil, domain.NewValidationError("credentialContent", "is required", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.creds.Write(ctx, task.ID, params.CredentialContent); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		// Roll the blob back so no orphan artifact survives a failed create.
		if derr := s.creds.Delete(ctx, task.ID); derr != nil {
			s.logger.Error("failed to remove credential blob after create failure",
				"error", derr, "task_id", task.ID)
		}
		return nil, err
	}

	if err := s.users.AddTask(ctx, principal.Username, task.ID); err != nil {
		// Unwind the registry entry and the blob; a task the owner's
		// task set does not know about must not survive.
		if derr := s.tasks.Delete(ctx, task.ID); derr != nil {
			s.logger.Error("failed to remove task after owner update failure",
				"error", derr, "task_id", task.ID)
		}
		if derr := s.creds.Delete(ctx, task.ID); derr != nil {
			s.logger.Error("failed to remove credential blob after owner update failure",
				"error", derr, "task_id", task.ID)
		}
		return nil, fmt.Errorf("record task for owner %q: %w", principal.Username, err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"name", task.Name,
		"owner", task.Owner)

	return task, nil
}

// Get returns the task including its buffered logs. Unknown IDs yield
// store.ErrTaskNotFound; known IDs with a foreign principal yield
// ErrTaskNotOwned.
func (s *TaskService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns the tasks visible to the principal, keyed by ID: all of
// them for admins, owned ones for everyone else.
func (s *TaskService) List(ctx context.Context, principal domain.Principal) (map[string]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make(map[string]*domain.Task)
	for _, task := range tasks {
		if principal.CanAccess(task) {
			visible[task.ID] = task
		}
	}
	return visible, nil
}

// Control applies a lifecycle action. Transitions are idempotent at
// the status level: starting a running task is accepted and still
// appends a log entry. The append and the broadcast happen under the
// service lock, so subscribers see entries in append order.
func (s *TaskService) Control(ctx context.Context, principal domain.Principal, id string, action ControlAction) (domain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.tasks.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.authorize(principal, current); err != nil {
		return "", err
	}

	var entry domain.LogEntry
	updated, err := s.tasks.Update(ctx, id, func(task *domain.Task) error {
		switch action {
		case ActionStart:
			entry = task.Start()
		case ActionStop:
			entry = task.Stop()
		case ActionRestart:
			entry = task.Restart()
		default:
			return domain.ErrInvalidAction
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("task control applied",
		"task_id", id,
		"action", string(action),
		"status", string(updated.Status),
		"principal", principal.Username)

	s.bus.Publish(id, events.NewLogEvent(id, entry))
	s.bus.Publish(id, events.NewTaskUpdateEvent(updated))

	return updated.Status, nil
}

// AppendLog records an operational event on a task and broadcasts it.
// This is the hook the (externally implemented) send loop reports
// through; it is not principal-scoped.
func (s *TaskService) AppendLog(ctx context.Context, id, message string, typ domain.LogType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry domain.LogEntry
	if _, err := s.tasks.Update(ctx, id, func(task *domain.Task) error {
		entry = task.AppendLog(message, typ)
		return nil
	}); err != nil {
		return err
	}

	s.bus.Publish(id, events.NewLogEvent(id, entry))
	return nil
}

// Delete removes the task, its credential blob and its entry in the
// owner's task set. A departed owner is tolerated: the registry entry
// and blob still go away.
func (s *TaskService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(principal, task); err != nil {
		return err
	}

	if err := s.users.RemoveTask(ctx, task.Owner, id); err != nil && !store.IsNotFoundError(err) {
		return fmt.Errorf("remove task from owner %q: %w", task.Owner, err)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		// Restore the owner's entry so the task set and the registry
		// stay in step. A departed owner has no entry to restore.
		if aerr := s.users.AddTask(ctx, task.Owner, id); aerr != nil && !store.IsNotFoundError(aerr) {
			s.logger.Error("failed to restore owner task entry after delete failure",
				"error", aerr, "task_id", id, "owner", task.Owner)
		}
		return err
	}

	// The blob goes last: if its removal fails the task is already
	// gone, so log the orphaned artifact instead of reporting a
	// half-done delete.
	if err := s.creds.Delete(ctx, id); err != nil {
		s.logger.Error("failed to remove credential blob for deleted task",
			"error", err, "task_id", id)
	}

	s.logger.Info("task deleted",
		"task_id", id,
		"owner", task.Owner,
		"principal", principal.Username)

	return nil
}

// Snapshot returns the task for an authorized subscriber without
// taking the mutation lock; the websocket hub sends it as the
// full-state message that precedes the live stream.
func (s *TaskService) Snapshot(ctx context.Context, principal domain.Principal, id string) (*domain.Task, error) {
	return s.Get(ctx, principal, id)
}
