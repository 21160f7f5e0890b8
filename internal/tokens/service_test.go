package tokens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/stats"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	mu           sync.Mutex
	tokens       []types.TokenDto
	err          error
	release      chan struct{}
	listCalls    int
	refreshCalls int
}

func (m *mockSource) ListTokens(ctx context.Context, q Query) ([]types.TokenDto, error) {
	m.mu.Lock()
	m.listCalls++
	release := m.release
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]types.TokenDto(nil), m.tokens...), nil
}

func (m *mockSource) TriggerRefresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return nil
}

func (m *mockSource) calls() (list, refresh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.refreshCalls
}

func sampleTokens() []types.TokenDto {
	now := time.Now().UTC()
	return []types.TokenDto{
		{Symbol: "ETH", Chain: "ethereum", CurrentPrice: 2500, LastUpdated: now},
		{Symbol: "ETH", Chain: "polygon", CurrentPrice: 2498, LastUpdated: now},
		{Symbol: "USDC", Chain: "ethereum", CurrentPrice: 1, LastUpdated: now},
	}
}

func TestService_LoadsTokensAcrossChains(t *testing.T) {
	source := &mockSource{tokens: sampleTokens(), release: make(chan struct{})}
	svc := New(&Config{
		Source:       source,
		PollInterval: time.Hour,
		Logger:       zap.NewNop(),
	})

	assert.True(t, svc.Snapshot().Loading, "loading before the first poll")

	done := make(chan error, 1)
	go func() { done <- svc.Refresh(context.Background()) }()

	require.Eventually(t, func() bool {
		list, _ := source.calls()
		return list == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, svc.Snapshot().Loading, "loading while the poll is in flight")

	close(source.release)
	require.NoError(t, <-done)

	snap := svc.Snapshot()
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	require.Len(t, snap.Items, 3)
	assert.Equal(t, 2, stats.Summarize(snap.Items).UniqueChains)
}

func TestService_ErrorKeepsLastGoodList(t *testing.T) {
	source := &mockSource{tokens: sampleTokens()}
	svc := New(&Config{
		Source:       source,
		PollInterval: time.Hour,
		Logger:       zap.NewNop(),
	})

	require.NoError(t, svc.Refresh(context.Background()))

	source.mu.Lock()
	source.err = errors.New("backend down")
	source.mu.Unlock()

	err := svc.Refresh(context.Background())
	require.Error(t, err)

	snap := svc.Snapshot()
	assert.Len(t, snap.Items, 3)
	assert.EqualError(t, snap.Err, "backend down")
	assert.False(t, snap.Fallback)
}

func TestService_RefreshPrices(t *testing.T) {
	source := &mockSource{tokens: sampleTokens()}
	var updates int
	var mu sync.Mutex
	svc := New(&Config{
		Source:       source,
		PollInterval: time.Hour,
		Logger:       zap.NewNop(),
		OnUpdate: func(tokens []types.TokenDto) {
			mu.Lock()
			updates++
			mu.Unlock()
		},
	})

	require.NoError(t, svc.RefreshPrices(context.Background()))

	list, refresh := source.calls()
	assert.Equal(t, 1, refresh)
	assert.Equal(t, 1, list)

	mu.Lock()
	assert.Equal(t, 1, updates)
	mu.Unlock()
}
