package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTokens struct {
	snap         poller.Snapshot[types.TokenDto]
	ch           chan struct{}
	refreshErr   error
	priceRefresh bool
	plainRefresh bool
	mu           sync.Mutex
}

func (f *fakeTokens) Snapshot() poller.Snapshot[types.TokenDto] { return f.snap }
func (f *fakeTokens) Subscribe() (<-chan struct{}, func())      { return f.ch, func() {} }

func (f *fakeTokens) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plainRefresh = true
	return f.refreshErr
}

func (f *fakeTokens) RefreshPrices(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceRefresh = true
	return f.refreshErr
}

type fakeOpps struct {
	snap       poller.Snapshot[types.Opportunity]
	ch         chan struct{}
	refreshErr error
}

func (f *fakeOpps) Snapshot() poller.Snapshot[types.Opportunity] { return f.snap }
func (f *fakeOpps) Subscribe() (<-chan struct{}, func())         { return f.ch, func() {} }
func (f *fakeOpps) Refresh(ctx context.Context) error            { return f.refreshErr }

type fakeRates struct{}

func (fakeRates) Load(ctx context.Context) *currency.Table {
	return &currency.Table{
		Rates:  map[string]float64{currency.USD: 1, currency.EUR: 0.92, currency.JPY: 150},
		Source: currency.SourceFallback,
	}
}

type fakeCharts struct {
	gotChains []string
}

func (f *fakeCharts) History(ctx context.Context, symbol string, chains []string, timeframe string, points int) (*charts.History, error) {
	f.gotChains = chains
	return &charts.History{Symbol: symbol, Timeframe: timeframe}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	last   interface{}
}

func (r *recordingPublisher) Publish(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func f64(v float64) *float64 { return &v }

func fixture() (*fakeTokens, *fakeOpps) {
	tokens := &fakeTokens{
		ch: make(chan struct{}, 1),
		snap: poller.Snapshot[types.TokenDto]{Items: []types.TokenDto{
			{Symbol: "ETH", Chain: "ethereum", CurrentPrice: 2000, DexPrice: f64(2010)},
			{Symbol: "ETH", Chain: "arbitrum", CurrentPrice: 1995},
			{Symbol: "USDC", Chain: "polygon", CurrentPrice: 1},
		}},
	}
	opps := &fakeOpps{
		ch: make(chan struct{}, 1),
		snap: poller.Snapshot[types.Opportunity]{
			Loading: true,
			Err:     errors.New("timeout"),
			Items: []types.Opportunity{
				{ID: "a", TokenSymbol: "ETH", NetProfitUSD: 100, PriceDiffUSD: 110, GasCostUSD: 10,
					PriceDiffPercent: 5.25, HasPriceDiffPercent: true, ChainFrom: "ethereum", ChainTo: "arbitrum"},
				{ID: "b", TokenSymbol: "USDC", NetProfitUSD: -1},
			},
		},
	}
	return tokens, opps
}

func newTestService(tokens TokenSource, opps OpportunitySource, pub Publisher, hc HistorySource) *Service {
	return New(&Config{
		Tokens:          tokens,
		Opportunities:   opps,
		Rates:           fakeRates{},
		Charts:          hc,
		Publisher:       pub,
		DefaultCurrency: "EUR",
		Logger:          zap.NewNop(),
		Now:             func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) },
	})
}

func TestSnapshot(t *testing.T) {
	tokens, opps := fixture()
	svc := newTestService(tokens, opps, nil, &fakeCharts{})

	snap, err := svc.Snapshot(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, currency.EUR, snap.Currency)
	assert.Equal(t, currency.SourceFallback, snap.RatesSource)
	require.Len(t, snap.Tokens, 3)
	assert.Equal(t, "€1,840", snap.Tokens[0].Price.Display)
	require.NotNil(t, snap.Tokens[0].SpreadPercent)
	assert.InDelta(t, 0.5, *snap.Tokens[0].SpreadPercent, 1e-9)
	assert.Equal(t, "0.50%", snap.Tokens[0].SpreadDisplay)
	assert.Equal(t, "—", snap.Tokens[1].SpreadDisplay)

	require.Len(t, snap.Opportunities, 2)
	assert.Equal(t, 100.0, snap.Opportunities[0].NetProfit.USD)
	assert.Equal(t, 92.0, snap.Opportunities[0].NetProfit.Value)
	assert.Equal(t, "€92.00", snap.Opportunities[0].NetProfit.Display)
	assert.Equal(t, "5.25%", snap.Opportunities[0].PriceDiffDisplay)
	assert.Equal(t, "—", snap.Opportunities[0].ROIDisplay)

	require.NotNil(t, snap.Stats.BestOpportunity)
	assert.Equal(t, "a", snap.Stats.BestOpportunity.ID)
	assert.Equal(t, 3, snap.TokenSummary.TokenCount)
	assert.Equal(t, 3, snap.TokenSummary.UniqueChains)

	assert.True(t, snap.OpportunitiesState.Loading)
	assert.Equal(t, "timeout", snap.OpportunitiesState.Error)
	assert.False(t, snap.TokensState.Loading)
}

func TestSnapshot_ExplicitAndInvalidCurrency(t *testing.T) {
	tokens, opps := fixture()
	svc := newTestService(tokens, opps, nil, &fakeCharts{})

	snap, err := svc.Snapshot(context.Background(), "jpy")
	require.NoError(t, err)
	assert.Equal(t, currency.JPY, snap.Currency)
	assert.Equal(t, "¥15,000", snap.Opportunities[0].NetProfit.Display)

	_, err = svc.Snapshot(context.Background(), "DOGE")
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	tokens, opps := fixture()
	opps.refreshErr = errors.New("opportunities down")
	svc := newTestService(tokens, opps, nil, &fakeCharts{})

	err := svc.Refresh(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opportunities down")
	assert.True(t, tokens.priceRefresh)
	assert.False(t, tokens.plainRefresh)

	opps.refreshErr = nil
	require.NoError(t, svc.Refresh(context.Background(), false))
	assert.True(t, tokens.plainRefresh)
}

func TestHistory_DefaultsToListedChains(t *testing.T) {
	tokens, opps := fixture()
	hc := &fakeCharts{}
	svc := newTestService(tokens, opps, nil, hc)

	_, err := svc.History(context.Background(), "eth", nil, "24h", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"ethereum", "arbitrum"}, hc.gotChains)

	_, err = svc.History(context.Background(), "eth", []string{"base"}, "24h", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, hc.gotChains)
}

func TestRun_PublishesOnChange(t *testing.T) {
	tokens, opps := fixture()
	pub := &recordingPublisher{}
	svc := newTestService(tokens, opps, pub, &fakeCharts{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	tokens.ch <- struct{}{}
	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)

	opps.ch <- struct{}{}
	require.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{EventSnapshot, EventSnapshot}, pub.events)
	snap, ok := pub.last.(*Snapshot)
	require.True(t, ok)
	assert.Equal(t, currency.EUR, snap.Currency)
}
