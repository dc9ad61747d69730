package api

import (
	"taskpanel/internal/domain"
	"taskpanel/internal/service"
)

// Common request/response structures

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    domain.Principal `json:"user"`
}

// CurrentUserResponse wraps the authenticated principal.
type CurrentUserResponse struct {
	User domain.Principal `json:"user"`
}

// CreateTaskRequest defines the payload for task creation. Messages is
// the uploaded text blob; it is split into the message list on the
// server.
type CreateTaskRequest struct {
	Name          string `json:"name"          validate:"required"`
	ThreadID      string `json:"threadID"      validate:"required"`
	Delay         int    `json:"delay"         validate:"omitempty,gte=0"`
	HatersName    string `json:"hatersName"`
	LastHereName  string `json:"lastHereName"`
	CookieContent string `json:"cookieContent" validate:"required"`
	Messages      string `json:"messages"      validate:"required"`
	MaxMessages   int    `json:"maxMessages"   validate:"omitempty,gte=0"`
	AutoRestart   bool   `json:"autoRestart"`
}

// CreateTaskResponse returns the new task and its ID.
type CreateTaskResponse struct {
	Success bool         `json:"success"`
	TaskID  string       `json:"taskId"`
	Task    *domain.Task `json:"task"`
}

// ListTasksResponse maps task ID to task, filtered to what the
// principal may see.
type ListTasksResponse struct {
	Tasks map[string]*domain.Task `json:"tasks"`
}

// GetTaskResponse wraps a single task, logs included.
type GetTaskResponse struct {
	Task *domain.Task `json:"task"`
}

// ControlTaskRequest defines the payload for the task control endpoint.
type ControlTaskRequest struct {
	Action string `json:"action" validate:"required,oneof=start stop restart"`
}

// ControlTaskResponse returns the status after the transition.
type ControlTaskResponse struct {
	Success bool          `json:"success"`
	Status  domain.Status `json:"status"`
}

// SuccessResponse is the generic acknowledgement payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListUsersResponse wraps the admin user listing.
type ListUsersResponse struct {
	Users []service.UserSummary `json:"users"`
}
