// internal/app/bootstrap/server.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	sessionstore "github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/workers"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Run starts the service and blocks until SIGINT/SIGTERM or a listener
// failure, then shuts down in reverse order: HTTP server, background
// workers, MongoDB client.
func Run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := LoadConfig(logger)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	deps, err := ConnectDB(connectCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := deps.Client.Disconnect(disconnectCtx); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
		}
	}()

	if err := EnsureSchema(connectCtx, deps, logger); err != nil {
		return err
	}

	handler, err := BuildHandler(cfg, deps, logger)
	if err != nil {
		return err
	}

	cleanup := workers.NewSessionCleanup(sessionstore.New(deps.Database), logger,
		cfg.SessionCleanupInterval, cfg.SessionInactiveThreshold)
	cleanup.Start()
	defer cleanup.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "context canceled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
