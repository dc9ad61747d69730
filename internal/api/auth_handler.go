package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"taskpanel/internal/api/shared"
	"taskpanel/internal/domain"
	"taskpanel/internal/service/auth"
	"taskpanel/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		validator:        validator.New(),
		logger:           logger.With("component", "auth_handler"),
	}
}

// Login handles POST /api/login. A bad username and a bad password are
// indistinguishable in the response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Username and password required")
		return
	}

	user, err := h.userStore.Get(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("failed to load user for login", "error", err, "username", req.Username)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.userStore.RecordLogin(r.Context(), req.Username); err != nil {
		// Login still succeeds; the stamp is advisory.
		h.logger.Warn("failed to record login time", "error", err, "username", req.Username)
	}

	principal := domain.Principal{Username: user.Username, Role: user.Role}

	token, err := h.jwtService.GenerateToken(r.Context(), principal)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err, "username", user.Username)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		User:    principal,
	})
}

// Logout handles POST /api/logout. Tokens are stateless, so there is
// nothing to revoke server-side; the endpoint acknowledges and the
// client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, SuccessResponse{Success: true})
}

// CurrentUser handles GET /api/user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CurrentUserResponse{User: principal})
}
