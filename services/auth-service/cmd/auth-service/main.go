package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BizBooksPlatform/pkg/config"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/services/auth-service/internal/app"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML or JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, app.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, appLogger, app.Options{})
	stop()
	if err != nil {
		appLogger.Error("Auth service failed", logger.Error(err))
	}
	_ = appLogger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is done or the listener fails. Every resource opened
// here is released before it returns.
func run(ctx context.Context, cfg *config.Config, appLogger logger.Logger, opts app.Options) error {
	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	application, err := app.New(startCtx, cfg, appLogger, opts)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to start auth service: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			appLogger.Error("Failed to close connections", logger.Error(err))
		}
	}()

	stopMaintenance, err := application.StartMaintenance(ctx, cfg.Auth.CodeTTL.Duration())
	if err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}
	defer stopMaintenance()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           application.Router(),
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting auth service server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var failure error
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			failure = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", logger.Error(err))
	}

	appLogger.Info("Server stopped")
	return failure
}
