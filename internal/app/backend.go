package app

import (
	"context"
	"fmt"
	"net/http/cookiejar"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/arbitrage-pro/dashboard/internal/auth"
	"github.com/arbitrage-pro/dashboard/internal/opportunities"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/config"
	"go.uber.org/zap"
)

// Backend bundles the authenticated REST client and the endpoint clients
// built on it. CLI commands use it directly; the App builds its services on it.
type Backend struct {
	API           *apiclient.Client
	Session       *auth.Session
	Tokens        *tokens.Client
	Opportunities *opportunities.Client
}

// NewBackend creates the API client, the session persisted under
// cfg.StateDir and the endpoint clients.
func NewBackend(cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	api := apiclient.New(&apiclient.Config{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		Jar:            jar,
		Logger:         logger,
	})

	session := auth.NewSession(&auth.Config{
		Client: api,
		Store:  auth.NewFileTokenStore(cfg.StateDir),
		Logger: logger,
	})
	session.OnLogout(func() {
		logger.Warn("session-ended", zap.String("action", "login required"))
	})

	return &Backend{
		API:           api,
		Session:       session,
		Tokens:        tokens.NewClient(api),
		Opportunities: opportunities.NewClient(api),
	}, nil
}

// Authenticate restores the persisted session. If none is usable and
// credentials are given, it logs in with them. A backend that serves the
// dashboard endpoints anonymously still works when both fail.
func (b *Backend) Authenticate(ctx context.Context, email, password string, logger *zap.Logger) error {
	err := b.Session.Restore(ctx)
	if err != nil {
		logger.Warn("session-restore-failed", zap.Error(err))
	}
	if b.Session.IsAuthenticated() {
		return nil
	}

	if email == "" || password == "" {
		logger.Info("running-without-session",
			zap.String("note", "set AUTH_EMAIL and AUTH_PASSWORD or run the login command"))
		return nil
	}

	user, err := b.Session.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login as %s: %w", email, err)
	}

	logger.Info("logged-in", zap.String("email", user.Email))
	return nil
}
