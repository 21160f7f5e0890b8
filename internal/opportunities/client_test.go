package opportunities

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/opportunities", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(apiclient.New(&apiclient.Config{
		BaseURL: server.URL,
		Logger:  zap.NewNop(),
	}))
}

func TestQueryValues(t *testing.T) {
	minProfit := 2.5
	minScore := 60.0

	v := Query{
		Status:    "active",
		SortBy:    "netProfitUsd",
		SortOrder: "desc",
		MinProfit: &minProfit,
		MinScore:  &minScore,
		Limit:     25,
	}.Values()

	assert.Equal(t, "active", v.Get("status"))
	assert.Equal(t, "netProfitUsd", v.Get("sortBy"))
	assert.Equal(t, "desc", v.Get("sortOrder"))
	assert.Equal(t, "2.5", v.Get("minProfit"))
	assert.Equal(t, "60", v.Get("minScore"))
	assert.Equal(t, "25", v.Get("limit"))
	assert.False(t, v.Has("maxGasCost"))
	assert.False(t, v.Has("minROI"))
}

func TestListOpportunities(t *testing.T) {
	const item = `{"_id":"65f1","tokenSymbol":"ETH","chainFrom":"ethereum","chainTo":"arbitrum",
		"priceDiffUsd":12,"priceDiffPercent":0.5,"gasCostUsd":4,"netProfitUsd":8,
		"estimatedProfitUsd":8,"score":77,"flagged":false}`

	tests := []struct {
		name string
		body string
	}{
		{name: "bare-array", body: "[" + item + "]"},
		{name: "data-wrapper", body: `{"data":[` + item + `],"total":1}`},
		{name: "opportunities-wrapper", body: `{"opportunities":[` + item + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.body)

			opps, err := client.ListOpportunities(context.Background(), Query{})
			require.NoError(t, err)
			require.Len(t, opps, 1)

			o := opps[0]
			assert.Equal(t, "65f1", o.ID)
			assert.Equal(t, "ETH", o.TokenName)
			assert.Equal(t, "ethereum → arbitrum", o.Route)
			assert.True(t, o.HasPriceDiffPercent)
			assert.False(t, o.HasROI)
			assert.NotNil(t, o.FlagReasons)
		})
	}
}
