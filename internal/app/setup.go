package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/dashboard"
	"github.com/arbitrage-pro/dashboard/internal/opportunities"
	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/internal/storage"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/cache"
	"github.com/arbitrage-pro/dashboard/pkg/config"
	"github.com/arbitrage-pro/dashboard/pkg/healthprobe"
	"github.com/arbitrage-pro/dashboard/pkg/httpserver"
	"github.com/arbitrage-pro/dashboard/pkg/stream"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
)

// chartCacheBudget bounds the chart cache in price points.
const chartCacheBudget = 200_000

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup backend: %w", err)
	}

	if !opts.SkipLogin {
		err = backend.Authenticate(ctx, cfg.AuthEmail, cfg.AuthPassword, logger)
		if err != nil {
			logger.Warn("startup-login-failed", zap.Error(err))
		}
	}

	// Setup storage
	oppStorage, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	// Setup cache
	chartCache, err := cache.New(cfg.CacheBackend, chartCacheBudget, logger)
	if err != nil {
		cancel()
		_ = oppStorage.Close()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		storage: oppStorage,
		ctx:     ctx,
		cancel:  cancel,
	}

	a.healthChecker = setupHealthChecker()
	a.hub = setupStream(logger)
	a.tokenService = setupTokenService(cfg, logger, backend)
	a.opportunityService = setupOpportunityService(cfg, logger, backend, a.recordOpportunities)
	a.rates = setupRates(cfg, logger)
	a.chartCache = chartCache
	a.charts = setupCharts(cfg, logger, backend, chartCache)
	a.dashboard = setupDashboard(cfg, logger, a)
	a.httpServer = setupHTTPServer(cfg, logger, a.healthChecker, a.dashboard, a.hub)

	registerChecks(a)

	return a, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupStream(logger *zap.Logger) *stream.Hub {
	return stream.New(&stream.Config{
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		BufferSize:   16,
		Logger:       logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	dash *dashboard.Service,
	hub *stream.Hub,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Dashboard:     dash,
		Stream:        hub,
	})
}

func setupTokenService(cfg *config.Config, logger *zap.Logger, backend *Backend) *tokens.Service {
	return tokens.New(&tokens.Config{
		Source:       backend.Tokens,
		PollInterval: cfg.TokensPollInterval,
		Logger:       logger,
	})
}

func setupOpportunityService(
	cfg *config.Config,
	logger *zap.Logger,
	backend *Backend,
	onUpdate func([]types.Opportunity),
) *opportunities.Service {
	return opportunities.New(&opportunities.Config{
		Source: backend.Opportunities,
		Query: opportunities.Query{
			SortBy:    "score",
			SortOrder: "desc",
			Limit:     cfg.OpportunitiesLimit,
		},
		PollInterval: cfg.OpportunitiesPollInterval,
		Logger:       logger,
		OnUpdate:     onUpdate,
	})
}

func setupRates(cfg *config.Config, logger *zap.Logger) *currency.Service {
	return currency.New(&currency.Config{
		URL:      cfg.ExchangeRatesURL,
		TTL:      cfg.ExchangeRatesTTL,
		StateDir: cfg.StateDir,
		Logger:   logger,
	})
}

func setupCharts(cfg *config.Config, logger *zap.Logger, backend *Backend, chartCache cache.Cache) *charts.Service {
	return charts.New(&charts.Config{
		Source: backend.Tokens,
		Cache:  chartCache,
		TTL:    cfg.ChartCacheTTL,
		Logger: logger,
	})
}

func setupDashboard(cfg *config.Config, logger *zap.Logger, a *App) *dashboard.Service {
	return dashboard.New(&dashboard.Config{
		Tokens:          a.tokenService,
		Opportunities:   a.opportunityService,
		Rates:           a.rates,
		Charts:          a.charts,
		Publisher:       a.hub,
		DefaultCurrency: cfg.DisplayCurrency,
		Logger:          logger,
	})
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageMode {
	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(ctx, &storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	case "console":
		return storage.NewConsoleStorage(logger), nil
	default:
		return storage.NoopStorage{}, nil
	}
}

// registerChecks makes /ready fail while a list has never loaded or the
// storage backend is unreachable.
func registerChecks(a *App) {
	a.healthChecker.AddCheck("tokens", func() error {
		snap := a.tokenService.Snapshot()
		return neverLoaded(&snap)
	})
	a.healthChecker.AddCheck("opportunities", func() error {
		snap := a.opportunityService.Snapshot()
		return neverLoaded(&snap)
	})
	a.healthChecker.AddCheck("storage", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return a.storage.Ping(ctx)
	})
}

func neverLoaded[T any](snap *poller.Snapshot[T]) error {
	if !snap.UpdatedAt.IsZero() {
		return nil
	}
	if snap.Err != nil {
		return snap.Err
	}
	return errors.New("not loaded yet")
}

// recordOpportunities stores each applied opportunity list.
func (a *App) recordOpportunities(opps []types.Opportunity) {
	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()

	err := a.storage.StoreOpportunities(ctx, opps, time.Now())
	if err != nil {
		a.logger.Error("store-opportunities-failed", zap.Error(err))
	}
}
