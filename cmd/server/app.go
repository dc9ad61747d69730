package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"taskpanel/internal/config"
	"taskpanel/internal/events"
	"taskpanel/internal/platform/flush"
	"taskpanel/internal/platform/jsonfile"
	"taskpanel/internal/service"
	"taskpanel/internal/service/auth"
	"taskpanel/internal/ws"
)

// application bundles the process-scoped dependencies. Everything is
// constructed here at startup and flushed at shutdown; there are no
// ambient globals.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	userStore   *jsonfile.UserStore
	taskStore   *jsonfile.TaskStore
	credStore   *jsonfile.CredentialStore
	jwtService  auth.JWTService
	verifier    auth.PasswordVerifier
	taskService *service.TaskService
	adminSvc    *service.AdminService
	bus         *events.Bus
	hub         *ws.Hub
	flusher     *flush.Scheduler
}

// newApplication wires the full dependency graph from configuration.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.Storage.DataDir, err)
	}

	hasher := auth.NewBcryptHasher()

	seeds, err := jsonfile.DefaultSeedAccounts(hasher)
	if err != nil {
		return nil, err
	}

	userStore, err := jsonfile.OpenUserStore(
		filepath.Join(cfg.Storage.DataDir, "users.json"), seeds, logger)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}

	taskStore, err := jsonfile.OpenTaskStore(
		filepath.Join(cfg.Storage.DataDir, "tasks.json"), logger)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}

	credStore, err := jsonfile.NewCredentialStore(cfg.Storage.CredentialsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	jwtService, err := auth.NewJWTService(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenLifetimeMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("create jwt service: %w", err)
	}

	bus := events.NewBus(logger)
	taskService := service.NewTaskService(taskStore, userStore, credStore, bus, logger)
	hub := ws.NewHub(bus, taskService, jwtService, logger)
	adminSvc := service.NewAdminService(userStore, taskStore, hub, time.Now(), logger)
	flusher := flush.NewScheduler(cfg.Storage.FlushInterval, logger, taskStore, userStore)

	return &application{
		config:      cfg,
		logger:      logger,
		userStore:   userStore,
		taskStore:   taskStore,
		credStore:   credStore,
		jwtService:  jwtService,
		verifier:    hasher,
		taskService: taskService,
		adminSvc:    adminSvc,
		bus:         bus,
		hub:         hub,
		flusher:     flusher,
	}, nil
}
