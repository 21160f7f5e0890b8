// Package dashboard combines the polled token and opportunity lists, derived
// statistics, exchange rates and chart history into renderable snapshots.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/internal/stats"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventSnapshot is the stream event carrying a Snapshot.
const EventSnapshot = "snapshot"

// TokenSource is the token service.
type TokenSource interface {
	Snapshot() poller.Snapshot[types.TokenDto]
	Subscribe() (<-chan struct{}, func())
	Refresh(ctx context.Context) error
	RefreshPrices(ctx context.Context) error
}

// OpportunitySource is the opportunity service.
type OpportunitySource interface {
	Snapshot() poller.Snapshot[types.Opportunity]
	Subscribe() (<-chan struct{}, func())
	Refresh(ctx context.Context) error
}

// RateSource loads the session's exchange rates.
type RateSource interface {
	Load(ctx context.Context) *currency.Table
}

// HistorySource serves chart history.
type HistorySource interface {
	History(ctx context.Context, symbol string, chains []string, timeframe string, points int) (*charts.History, error)
}

// Publisher fans snapshots out to live subscribers.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Service builds dashboard snapshots.
type Service struct {
	tokens          TokenSource
	opportunities   OpportunitySource
	rates           RateSource
	charts          HistorySource
	publisher       Publisher
	defaultCurrency string
	logger          *zap.Logger
	now             func() time.Time
}

// Config holds dashboard configuration.
type Config struct {
	Tokens          TokenSource
	Opportunities   OpportunitySource
	Rates           RateSource
	Charts          HistorySource
	Publisher       Publisher // Optional
	DefaultCurrency string
	Logger          *zap.Logger
	Now             func() time.Time
}

// New creates a dashboard service.
func New(cfg *Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	code := cfg.DefaultCurrency
	if !currency.IsSupported(code) {
		code = currency.USD
	}

	return &Service{
		tokens:          cfg.Tokens,
		opportunities:   cfg.Opportunities,
		rates:           cfg.Rates,
		charts:          cfg.Charts,
		publisher:       cfg.Publisher,
		defaultCurrency: code,
		logger:          cfg.Logger,
		now:             now,
	}
}

// DefaultCurrency returns the currency used when none is requested.
func (s *Service) DefaultCurrency() string {
	return s.defaultCurrency
}

// Snapshot renders the current state in code. Empty code means the default
// currency.
func (s *Service) Snapshot(ctx context.Context, code string) (*Snapshot, error) {
	if strings.TrimSpace(code) == "" {
		code = s.defaultCurrency
	}
	code, err := currency.ParseCode(code)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	table := s.rates.Load(ctx)
	tokenSnap := s.tokens.Snapshot()
	oppSnap := s.opportunities.Snapshot()

	snap := &Snapshot{
		Currency:           code,
		RatesSource:        table.Source,
		Tokens:             make([]TokenView, 0, len(tokenSnap.Items)),
		Opportunities:      make([]OpportunityView, 0, len(oppSnap.Items)),
		Stats:              stats.Derive(oppSnap.Items),
		TokenSummary:       stats.Summarize(tokenSnap.Items),
		TokensState:        stateOf(&tokenSnap),
		OpportunitiesState: stateOf(&oppSnap),
		GeneratedAt:        s.now().UTC(),
	}

	for i := range tokenSnap.Items {
		snap.Tokens = append(snap.Tokens, tokenView(table, &tokenSnap.Items[i], code))
	}
	for i := range oppSnap.Items {
		snap.Opportunities = append(snap.Opportunities, opportunityView(table, &oppSnap.Items[i], code))
	}

	return snap, nil
}

// Stats derives statistics from the current opportunity list.
func (s *Service) Stats() types.DashboardStats {
	snap := s.opportunities.Snapshot()
	return stats.Derive(snap.Items)
}

// Rates returns the session's exchange rates.
func (s *Service) Rates(ctx context.Context) *currency.Table {
	return s.rates.Load(ctx)
}

// Refresh re-polls both lists concurrently. With serverPrices the backend is
// first asked to pull fresh upstream prices.
func (s *Service) Refresh(ctx context.Context, serverPrices bool) error {
	var g errgroup.Group
	var tokenErr, oppErr error

	g.Go(func() error {
		if serverPrices {
			tokenErr = s.tokens.RefreshPrices(ctx)
		} else {
			tokenErr = s.tokens.Refresh(ctx)
		}
		return nil
	})
	g.Go(func() error {
		oppErr = s.opportunities.Refresh(ctx)
		return nil
	})
	_ = g.Wait()

	return errors.Join(tokenErr, oppErr)
}

// History returns chart history for symbol. Without explicit chains every
// chain the symbol is currently listed on is used.
func (s *Service) History(ctx context.Context, symbol string, chains []string, timeframe string, points int) (*charts.History, error) {
	if len(chains) == 0 {
		chains = s.chainsFor(symbol)
	}
	return s.charts.History(ctx, symbol, chains, timeframe, points)
}

func (s *Service) chainsFor(symbol string) []string {
	snap := s.tokens.Snapshot()
	seen := make(map[string]struct{})
	var chains []string

	for i := range snap.Items {
		t := &snap.Items[i]
		if !strings.EqualFold(t.Symbol, symbol) {
			continue
		}
		key := strings.ToLower(t.Chain)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		chains = append(chains, t.Chain)
	}

	return chains
}

// Run publishes a snapshot in the default currency after every change of
// either list, until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	tokenCh, unsubTokens := s.tokens.Subscribe()
	defer unsubTokens()
	oppCh, unsubOpps := s.opportunities.Subscribe()
	defer unsubOpps()

	s.logger.Info("dashboard-publisher-starting",
		zap.String("currency", s.defaultCurrency))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dashboard-publisher-stopping")
			return ctx.Err()
		case <-tokenCh:
			s.publish(ctx)
		case <-oppCh:
			s.publish(ctx)
		}
	}
}

func (s *Service) publish(ctx context.Context) {
	if s.publisher == nil {
		return
	}

	snap, err := s.Snapshot(ctx, s.defaultCurrency)
	if err != nil {
		s.logger.Error("snapshot-build-failed", zap.Error(err))
		return
	}

	s.publisher.Publish(EventSnapshot, snap)
	SnapshotsPublishedTotal.Inc()
}
