package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubledger/reconcile/internal/api"
	"github.com/clubledger/reconcile/internal/infrastructure/config"
	"github.com/clubledger/reconcile/internal/infrastructure/logging"
)

// LoggerFor builds the command logger, forcing debug level when verbose.
func LoggerFor(cfg *config.Config, system string, verbose bool) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerWithSystem(loggingCfg, system)
}

// RunServe runs the API server.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	logger := LoggerFor(cfg, "api", flags.Verbose)

	app, err := Bootstrap(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	// Create API config
	apiCfg := api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if flags.Port > 0 {
		apiCfg.Port = flags.Port
	}
	if len(apiCfg.AllowedOrigins) == 0 {
		apiCfg.AllowedOrigins = api.DefaultConfig().AllowedOrigins
	}

	// Create and start server
	server := api.NewServer(apiCfg, app.Service, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
