package service

import (
	"context"
	"log/slog"
	"time"

	"taskpanel/internal/domain"
	"taskpanel/internal/store"
)

// ConnectionCounter reports how many duplex connections are live. The
// websocket hub implements it; admin stats include the count.
type ConnectionCounter interface {
	ActiveConnections() int
}

// UserSummary is the admin-facing view of an account. It carries no
// credential material.
type UserSummary struct {
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	TaskCount int         `json:"tasks"`
	Created   time.Time   `json:"created"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
}

// SystemStats is the admin dashboard snapshot.
type SystemStats struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalTasks        int     `json:"totalTasks"`
	RunningTasks      int     `json:"runningTasks"`
	ActiveConnections int     `json:"activeConnections"`
	UptimeSeconds     float64 `json:"serverUptime"`
}

// AdminService implements the admin-scoped operations. Every method
// checks the admin role itself so the rule holds even if a route is
// wired without the admin middleware.
type AdminService struct {
	users       store.UserStore
	tasks       store.TaskStore
	connections ConnectionCounter
	startedAt   time.Time
	logger      *slog.Logger
}

// NewAdminService creates an AdminService. startedAt anchors the
// uptime figure in the stats snapshot.
func NewAdminService(
	users store.UserStore,
	tasks store.TaskStore,
	connections ConnectionCounter,
	startedAt time.Time,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:       users,
		tasks:       tasks,
		connections: connections,
		startedAt:   startedAt,
		logger:      logger.With("component", "admin_service"),
	}
}

// authorize enforces the admin-only rule.
func (s *AdminService) authorize(principal domain.Principal) error {
	if !principal.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// ListUsers returns a summary of every account.
func (s *AdminService) ListUsers(ctx context.Context, principal domain.Principal) ([]UserSummary, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, UserSummary{
			Username:  user.Username,
			Role:      user.Role,
			TaskCount: len(user.TaskIDs),
			Created:   user.Created,
			LastLogin: user.LastLogin,
		})
	}
	return summaries, nil
}

// Stats returns the system counters.
func (s *AdminService) Stats(ctx context.Context, principal domain.Principal) (*SystemStats, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	running := 0
	for _, task := range tasks {
		if task.Status == domain.StatusRunning {
			running++
		}
	}

	return &SystemStats{
		TotalUsers:        len(users),
		TotalTasks:        len(tasks),
		RunningTasks:      running,
		ActiveConnections: s.connections.ActiveConnections(),
		UptimeSeconds:     time.Since(s.startedAt).Seconds(),
	}, nil
}

// DeleteUser removes an account. Admins cannot delete themselves, and
// the departed user's tasks are left in place (admin-only from then
// on) rather than cascade-deleted.
func (s *AdminService) DeleteUser(ctx context.Context, principal domain.Principal, username string) error {
	if err := s.authorize(principal); err != nil {
		return err
	}
	if username == principal.Username {
		return ErrCannotDeleteSelf
	}

	if err := s.users.Delete(ctx, username); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		"username", username,
		"deleted_by", principal.Username)

	return nil
}
