package opportunities

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	mu   sync.Mutex
	opps []types.Opportunity
	err  error
}

func (m *mockSource) ListOpportunities(ctx context.Context, q Query) ([]types.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]types.Opportunity(nil), m.opps...), nil
}

func (m *mockSource) set(opps []types.Opportunity, err error) {
	m.mu.Lock()
	m.opps = opps
	m.err = err
	m.mu.Unlock()
}

func newService(source Source, disableFallback bool) *Service {
	return New(&Config{
		Source:          source,
		PollInterval:    time.Hour,
		Logger:          zap.NewNop(),
		DisableFallback: disableFallback,
	})
}

func TestService_FallbackWhenNeverLoaded(t *testing.T) {
	source := &mockSource{err: errors.New("connection refused")}
	svc := newService(source, false)

	err := svc.Refresh(context.Background())
	require.Error(t, err)

	snap := svc.Snapshot()
	assert.True(t, snap.Fallback)
	assert.Len(t, snap.Items, len(sampleRows))
	assert.EqualError(t, snap.Err, "connection refused")
	assert.False(t, snap.Loading)
}

func TestService_NoFallbackAfterSuccess(t *testing.T) {
	source := &mockSource{opps: []types.Opportunity{{ID: "live", TokenSymbol: "ETH"}}}
	svc := newService(source, false)

	require.NoError(t, svc.Refresh(context.Background()))

	source.set(nil, errors.New("timeout"))
	require.Error(t, svc.Refresh(context.Background()))

	snap := svc.Snapshot()
	assert.False(t, snap.Fallback)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "live", snap.Items[0].ID)
}

func TestService_FallbackDisabled(t *testing.T) {
	svc := newService(&mockSource{err: errors.New("boom")}, true)

	require.Error(t, svc.Refresh(context.Background()))

	snap := svc.Snapshot()
	assert.False(t, snap.Fallback)
	assert.Empty(t, snap.Items)
}

func TestSampleOpportunities(t *testing.T) {
	first := SampleOpportunities()
	second := SampleOpportunities()

	require.Len(t, first, len(sampleRows))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "sample IDs are stable")
		assert.NotEmpty(t, first[i].Route)
	}

	var flagged int
	for _, o := range first {
		if o.Flagged {
			flagged++
			assert.NotEmpty(t, o.FlagReasons)
		}
	}
	assert.Equal(t, 1, flagged)
}
