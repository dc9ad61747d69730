package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"taskpanel/internal/api/shared"
	"taskpanel/internal/domain"
	"taskpanel/internal/service"
)

// TaskHandler handles task-scoped API requests. Authorization lives in
// the task service; the handler only translates between HTTP and the
// service calls.
type TaskHandler struct {
	tasks     *service.TaskService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:     tasks,
		validator: validator.New(),
		logger:    logger.With("component", "task_handler"),
	}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("failed to list tasks", "error", err, "principal", principal.Username)
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListTasksResponse{Tasks: tasks})
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}

	task, err := h.tasks.Create(r.Context(), principal, service.CreateTaskParams{
		Name: req.Name,
		Config: domain.TaskConfig{
			ThreadID:     req.ThreadID,
			Delay:        req.Delay,
			HatersName:   req.HatersName,
			LastHereName: req.LastHereName,
			MaxMessages:  req.MaxMessages,
			AutoRestart:  req.AutoRestart,
		},
		CredentialContent: req.CookieContent,
		Messages:          req.Messages,
	})
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "principal", principal.Username)
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CreateTaskResponse{
		Success: true,
		TaskID:  task.ID,
		Task:    task,
	})
}

// Get handles GET /api/tasks/{taskID}, returning the task with its
// buffered logs.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), principal, chi.URLParam(r, "taskID"))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GetTaskResponse{Task: task})
}

// Control handles POST /api/tasks/{taskID}/control.
func (h *TaskHandler) Control(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req ControlTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Action must be start, stop or restart")
		return
	}

	status, err := h.tasks.Control(r.Context(), principal, chi.URLParam(r, "taskID"), service.ControlAction(req.Action))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ControlTaskResponse{
		Success: true,
		Status:  status,
	})
}

// Delete handles DELETE /api/tasks/{taskID}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), principal, chi.URLParam(r, "taskID")); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SuccessResponse{Success: true})
}
