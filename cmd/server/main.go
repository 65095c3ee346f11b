package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/rasync/internal/api"
	"github.com/mcoot/rasync/internal/config"
	"github.com/mcoot/rasync/internal/factory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg.Factory(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Background loops outlive the signal so Shutdown can flush submissions
	app.Start(context.Background())

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		APIToken:          cfg.APIToken,
		AccountService:    app.AccountService,
		SessionController: app.SessionController,
		Hub:               app.Hub,
	})

	// Create server
	serverConfig := cfg.Server()
	server := api.NewServer(router, serverConfig, logger)

	// Bind before reporting the daemon as started
	if err := server.Listen(); err != nil {
		logger.Error("failed to bind", slog.String("error", err.Error()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		_ = app.Shutdown(shutdownCtx)
		shutdownCancel()
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("hardcore", cfg.HardcoreMode),
		slog.Bool("api_token", cfg.APIToken != ""))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Close SSE streams first so the HTTP server can drain
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("application shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
