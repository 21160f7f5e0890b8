package opportunities

import (
	"context"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
)

// Source is the subset of the backend the opportunity service needs.
type Source interface {
	ListOpportunities(ctx context.Context, q Query) ([]types.Opportunity, error)
}

// Service keeps the polled opportunity list. Until the backend answers once,
// failures are papered over with SampleOpportunities.
type Service struct {
	poller *poller.Poller[types.Opportunity]
}

// Config holds opportunity service configuration.
type Config struct {
	Source       Source
	Query        Query
	PollInterval time.Duration
	Logger       *zap.Logger
	OnUpdate     func(opps []types.Opportunity)
	// DisableFallback turns off sample data, e.g. for one-shot CLI commands.
	DisableFallback bool
}

// New creates an opportunity service. Call Run to start polling.
func New(cfg *Config) *Service {
	var fallback func() []types.Opportunity
	if !cfg.DisableFallback {
		fallback = SampleOpportunities
	}

	query := cfg.Query
	source := cfg.Source

	return &Service{
		poller: poller.New(&poller.Config[types.Opportunity]{
			Name:     "opportunities",
			Interval: cfg.PollInterval,
			Logger:   cfg.Logger,
			OnUpdate: cfg.OnUpdate,
			Fallback: fallback,
			Fetch: func(ctx context.Context) ([]types.Opportunity, error) {
				return source.ListOpportunities(ctx, query)
			},
		}),
	}
}

// Run polls until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	return s.poller.Run(ctx)
}

// Refresh re-fetches the opportunity list now.
func (s *Service) Refresh(ctx context.Context) error {
	return s.poller.Refresh(ctx)
}

// Snapshot returns the current opportunities and load state.
func (s *Service) Snapshot() poller.Snapshot[types.Opportunity] {
	return s.poller.Snapshot()
}

// Subscribe signals every state change.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	return s.poller.Subscribe()
}
