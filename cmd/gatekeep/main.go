package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mavelar/gatekeep/internal/auth"
	"github.com/mavelar/gatekeep/internal/cli"
	"github.com/mavelar/gatekeep/internal/config"
	"github.com/mavelar/gatekeep/internal/keychain"
	"github.com/mavelar/gatekeep/internal/kvstore"
	"github.com/mavelar/gatekeep/internal/services"
	"github.com/mavelar/gatekeep/internal/store"
	pkglogger "github.com/mavelar/gatekeep/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// Initialize storage backends
	kc, err := keychain.Open(cfg.App.DataDir, logger)
	if err != nil {
		logger.Error("failed to open keychain", slog.Any("error", err))
		os.Exit(1)
	}

	kv, err := kvstore.Open(cfg.App.DataDir)
	if err != nil {
		logger.Error("failed to open key-value store", slog.Any("error", err))
		os.Exit(1)
	}

	// Credential & session store
	credStore := store.New(kc, kv, store.Config{
		MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
		LockoutWindow:     cfg.Lockout.Window,
	}, logger)

	// Services
	auditLogger := pkglogger.NewAuditLogger(logger)
	sessionManager := auth.NewSessionManager(kc.DeviceSecret(), cfg.Session.TTL)
	lockoutService := services.NewLockoutService(credStore, services.LockoutPolicy{
		MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
		Window:            cfg.Lockout.Window,
	}, logger)
	authService := services.NewAuthService(credStore, lockoutService, sessionManager, logger, auditLogger)

	app := cli.New(authService, lockoutService, cfg.Lockout.PollInterval, logger)

	if err := app.RootCmd().ExecuteContext(context.Background()); err != nil {
		// Command errors are user-facing; keep them off the structured log.
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
