package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/arbitrage-pro/dashboard/internal/app"
	"github.com/arbitrage-pro/dashboard/pkg/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// loadDotEnv loads .env into the environment. Variables already set win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// loadConfig loads the config and a logger at the configured level.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

// connect builds the backend clients and restores the saved session,
// logging in with AUTH_EMAIL/AUTH_PASSWORD when there is none.
func connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.Backend, error) {
	backend, err := app.NewBackend(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	err = backend.Authenticate(ctx, cfg.AuthEmail, cfg.AuthPassword, logger)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return backend, nil
}
