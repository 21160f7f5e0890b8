package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("api-base-url", a.cfg.APIBaseURL),
		zap.String("display-currency", a.cfg.DisplayCurrency),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Bool("authenticated", a.backend.Session.IsAuthenticated()))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Warm the exchange rates so the first snapshot does not wait on them
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.rates.Load(a.ctx)
	}()

	// Publisher subscribes before the pollers start so no change is missed
	a.runLoop("dashboard-publisher", a.dashboard.Run)
	a.runLoop("token-poller", a.tokenService.Run)
	a.runLoop("opportunity-poller", a.opportunityService.Run)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

// runLoop runs fn in a goroutine until the app context is cancelled.
func (a *App) runLoop(name string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := fn(a.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("component-error", zap.String("component", name), zap.Error(err))
		}
	}()
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
