package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskpanel/internal/api/shared"
	"taskpanel/internal/service"
)

// AdminHandler handles admin-scoped API requests.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger.With("component", "admin_handler"),
	}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	users, err := h.admin.ListUsers(r.Context(), principal)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ListUsersResponse{Users: users})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	stats, err := h.admin.Stats(r.Context(), principal)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// DeleteUser handles DELETE /api/admin/users/{username}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.admin.DeleteUser(r.Context(), principal, username); err != nil {
		h.logger.Warn("user deletion rejected",
			"error", err,
			"username", username,
			"principal", principal.Username)
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SuccessResponse{Success: true})
}
