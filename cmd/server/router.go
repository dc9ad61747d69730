package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskpanel/internal/api"
	apiMiddleware "taskpanel/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.verifier, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	adminHandler := api.NewAdminHandler(app.adminSvc, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/user", authHandler.CurrentUser)

			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Get("/tasks/{taskID}", taskHandler.Get)
			r.Post("/tasks/{taskID}/control", taskHandler.Control)
			r.Delete("/tasks/{taskID}", taskHandler.Delete)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAdmin)

				r.Get("/admin/users", adminHandler.ListUsers)
				r.Get("/admin/stats", adminHandler.Stats)
				r.Delete("/admin/users/{username}", adminHandler.DeleteUser)
			})
		})
	})

	// Duplex event channel; authentication happens in-protocol.
	r.Get("/ws", app.hub.ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
