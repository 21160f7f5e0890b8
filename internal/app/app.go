package app

import (
	"context"
	"sync"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/dashboard"
	"github.com/arbitrage-pro/dashboard/internal/opportunities"
	"github.com/arbitrage-pro/dashboard/internal/storage"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/cache"
	"github.com/arbitrage-pro/dashboard/pkg/config"
	"github.com/arbitrage-pro/dashboard/pkg/healthprobe"
	"github.com/arbitrage-pro/dashboard/pkg/httpserver"
	"github.com/arbitrage-pro/dashboard/pkg/stream"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg                *config.Config
	logger             *zap.Logger
	backend            *Backend
	healthChecker      *healthprobe.HealthChecker
	httpServer         *httpserver.Server
	tokenService       *tokens.Service
	opportunityService *opportunities.Service
	rates              *currency.Service
	charts             *charts.Service
	chartCache         cache.Cache
	dashboard          *dashboard.Service
	hub                *stream.Hub
	storage            storage.Storage
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// SkipLogin disables the AUTH_EMAIL/AUTH_PASSWORD login at startup.
	SkipLogin bool
}
