package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
)

// Source is the subset of the backend the token service needs.
type Source interface {
	ListTokens(ctx context.Context, q Query) ([]types.TokenDto, error)
	TriggerRefresh(ctx context.Context) error
}

// Service keeps the polled token list.
type Service struct {
	source Source
	poller *poller.Poller[types.TokenDto]
	logger *zap.Logger
}

// Config holds token service configuration.
type Config struct {
	Source       Source
	Query        Query
	PollInterval time.Duration
	Logger       *zap.Logger
	OnUpdate     func(tokens []types.TokenDto)
}

// New creates a token service. Call Run to start polling.
func New(cfg *Config) *Service {
	s := &Service{
		source: cfg.Source,
		logger: cfg.Logger,
	}

	query := cfg.Query
	s.poller = poller.New(&poller.Config[types.TokenDto]{
		Name:     "tokens",
		Interval: cfg.PollInterval,
		Logger:   cfg.Logger,
		OnUpdate: cfg.OnUpdate,
		Fetch: func(ctx context.Context) ([]types.TokenDto, error) {
			return cfg.Source.ListTokens(ctx, query)
		},
	})

	return s
}

// Run polls until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	return s.poller.Run(ctx)
}

// Refresh re-fetches the token list now.
func (s *Service) Refresh(ctx context.Context) error {
	return s.poller.Refresh(ctx)
}

// RefreshPrices asks the backend to pull fresh upstream prices, then re-fetches.
func (s *Service) RefreshPrices(ctx context.Context) error {
	err := s.source.TriggerRefresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}

	s.logger.Info("server-price-refresh-triggered")

	return s.poller.Refresh(ctx)
}

// Snapshot returns the current tokens and load state.
func (s *Service) Snapshot() poller.Snapshot[types.TokenDto] {
	return s.poller.Snapshot()
}

// Subscribe signals every state change.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	return s.poller.Subscribe()
}
