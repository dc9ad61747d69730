package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apiMiddleware "taskpanel/internal/api/middleware"
	"taskpanel/internal/domain"
	"taskpanel/internal/events"
	"taskpanel/internal/platform/jsonfile"
	"taskpanel/internal/service"
	"taskpanel/internal/service/auth"
	"taskpanel/internal/store"
)

const testSecret = "api-test-secret-that-is-32-chars-long!!"

type testServer struct {
	router http.Handler
	jwt    auth.JWTService
	tasks  *service.TaskService
}

// staticCounter satisfies service.ConnectionCounter for tests.
type staticCounter int

func (c staticCounter) ActiveConnections() int { return int(c) }

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// newTestServer wires stores, services and handlers into a router the
// same way cmd/server does.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	users, err := jsonfile.OpenUserStore(filepath.Join(dir, "users.json"), []jsonfile.SeedAccount{
		{Username: "admin", HashedPassword: hashPassword(t, "adminpass"), Role: domain.RoleAdmin},
		{Username: "user1", HashedPassword: hashPassword(t, "password1"), Role: domain.RoleUser},
		{Username: "user2", HashedPassword: hashPassword(t, "password2"), Role: domain.RoleUser},
	}, logger)
	require.NoError(t, err)

	tasks, err := jsonfile.OpenTaskStore(filepath.Join(dir, "tasks.json"), logger)
	require.NoError(t, err)

	creds, err := jsonfile.NewCredentialStore(filepath.Join(dir, "cookies"), logger)
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	bus := events.NewBus(logger)
	taskService := service.NewTaskService(tasks, users, creds, bus, logger)
	adminService := service.NewAdminService(users, tasks, staticCounter(0), time.Now(), logger)

	authHandler := NewAuthHandler(users, jwtService, auth.NewBcryptHasher(), logger)
	taskHandler := NewTaskHandler(taskService, logger)
	adminHandler := NewAdminHandler(adminService, logger)
	authMW := apiMiddleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Get("/user", authHandler.CurrentUser)
			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks/{taskID}", taskHandler.Get)
			r.Post("/tasks/{taskID}/control", taskHandler.Control)
			r.Delete("/tasks/{taskID}", taskHandler.Delete)
			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAdmin)
				r.Get("/admin/users", adminHandler.ListUsers)
				r.Get("/admin/stats", adminHandler.Stats)
				r.Delete("/admin/users/{username}", adminHandler.DeleteUser)
			})
		})
	})

	return &testServer{router: r, jwt: jwtService, tasks: taskService}
}

func (ts *testServer) tokenFor(t *testing.T, username string, role domain.Role) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken(context.Background(), domain.Principal{Username: username, Role: role})
	require.NoError(t, err)
	return token
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func createTaskPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":          "greeter",
		"threadID":      "t-100",
		"cookieContent": "cookie-blob",
		"messages":      "hi\nbye\n\n",
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStatus int
	}{
		{"valid credentials", map[string]interface{}{"username": "user1", "password": "password1"}, http.StatusOK},
		{"wrong password", map[string]interface{}{"username": "user1", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]interface{}{"username": "ghost", "password": "x"}, http.StatusUnauthorized},
		{"missing password", map[string]interface{}{"username": "user1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(t, http.MethodPost, "/api/login", "", tt.payload)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var resp LoginResponse
				decodeBody(t, rec, &resp)
				assert.True(t, resp.Success)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, "user1", resp.User.Username)
			}
		})
	}
}

func TestCurrentUserEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	t.Run("authenticated", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/user", ts.tokenFor(t, "user1", domain.RoleUser), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CurrentUserResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "user1", resp.User.Username)
	})

	t.Run("no token", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/user", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/user", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTaskEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ownerToken := ts.tokenFor(t, "user1", domain.RoleUser)
	otherToken := ts.tokenFor(t, "user2", domain.RoleUser)
	adminToken := ts.tokenFor(t, "admin", domain.RoleAdmin)

	// Create
	rec := ts.request(t, http.MethodPost, "/api/tasks", ownerToken, createTaskPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	var created CreateTaskResponse
	decodeBody(t, rec, &created)
	require.True(t, created.Success)
	require.NotEmpty(t, created.TaskID)
	assert.Equal(t, []string{"hi", "bye"}, created.Task.Messages)
	assert.Equal(t, domain.StatusStopped, created.Task.Status)

	taskID := created.TaskID

	t.Run("create rejects missing fields", func(t *testing.T) {
		payload := createTaskPayload()
		delete(payload, "cookieContent")
		rec := ts.request(t, http.MethodPost, "/api/tasks", ownerToken, payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list is visibility filtered", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/tasks", otherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ListTasksResponse
		decodeBody(t, rec, &resp)
		assert.Empty(t, resp.Tasks)

		rec = ts.request(t, http.MethodGet, "/api/tasks", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &resp)
		assert.Contains(t, resp.Tasks, taskID)
	})

	t.Run("get includes logs and enforces ownership", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/tasks/"+taskID, ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp GetTaskResponse
		decodeBody(t, rec, &resp)
		assert.NotNil(t, resp.Task.Logs)

		rec = ts.request(t, http.MethodGet, "/api/tasks/"+taskID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.request(t, http.MethodGet, "/api/tasks/unknown-id", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("control", func(t *testing.T) {
		rec := ts.request(t, http.MethodPost, "/api/tasks/"+taskID+"/control", ownerToken,
			map[string]interface{}{"action": "start"})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp ControlTaskResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, domain.StatusRunning, resp.Status)

		rec = ts.request(t, http.MethodPost, "/api/tasks/"+taskID+"/control", ownerToken,
			map[string]interface{}{"action": "explode"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.request(t, http.MethodPost, "/api/tasks/"+taskID+"/control", otherToken,
			map[string]interface{}{"action": "stop"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.request(t, http.MethodDelete, "/api/tasks/"+taskID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.request(t, http.MethodDelete, "/api/tasks/"+taskID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.request(t, http.MethodGet, "/api/tasks/"+taskID, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	userToken := ts.tokenFor(t, "user1", domain.RoleUser)
	adminToken := ts.tokenFor(t, "admin", domain.RoleAdmin)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		for _, path := range []string{"/api/admin/users", "/api/admin/stats"} {
			rec := ts.request(t, http.MethodGet, path, userToken, nil)
			assert.Equal(t, http.StatusForbidden, rec.Code, path)
		}
	})

	t.Run("list users omits credentials", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/admin/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "$2a$")

		var resp ListUsersResponse
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Users, 3)
	})

	t.Run("stats", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats service.SystemStats
		decodeBody(t, rec, &stats)
		assert.Equal(t, 3, stats.TotalUsers)
	})

	t.Run("delete user", func(t *testing.T) {
		rec := ts.request(t, http.MethodDelete, "/api/admin/users/admin", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.request(t, http.MethodDelete, "/api/admin/users/ghost", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = ts.request(t, http.MethodDelete, "/api/admin/users/user2", adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestWriteFailureMapsToServerError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: disk full", store.ErrWriteFailed)
	assert.Equal(t, http.StatusInternalServerError, MapErrorToStatusCode(err))
	assert.Equal(t, "Failed to persist changes", GetSafeErrorMessage(err))
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SuccessResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
}
