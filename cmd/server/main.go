// Command server runs the task panel: the REST API, the websocket
// event channel and the periodic persistence flush.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskpanel/internal/config"
	"taskpanel/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logger.Setup(cfg.Server)

	app, err := newApplication(cfg, logg)
	if err != nil {
		logg.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.flusher.Start(); err != nil {
		logg.Error("failed to start persistence scheduler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("server listening", "port", cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err)
	}

	// Final flush happens inside Stop so committed state survives.
	app.flusher.Stop()
	logg.Info("shutdown complete")
}
