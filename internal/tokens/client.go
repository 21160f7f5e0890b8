package tokens

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
)

// Query holds the optional GET /tokens filters. Zero values are omitted.
type Query struct {
	Fields []string
	Symbol string
	Chain  string
	Limit  int
	Skip   int
}

// Values encodes the query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(q.Fields, ","))
	}
	if q.Symbol != "" {
		v.Set("symbol", q.Symbol)
	}
	if q.Chain != "" {
		v.Set("chain", q.Chain)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	return v
}

// Client wraps the token endpoints of the backend.
type Client struct {
	api *apiclient.Client
}

// NewClient creates a token endpoint client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// ListTokens fetches GET /tokens. Contract addresses are checksummed.
func (c *Client) ListTokens(ctx context.Context, q Query) ([]types.TokenDto, error) {
	var raw json.RawMessage
	err := c.api.Get(ctx, "/tokens", q.Values(), &raw)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	tokens, err := apiclient.DecodeList[types.TokenDto](raw, "data", "tokens")
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	for i := range tokens {
		tokens[i].NormalizeContractAddress()
	}

	return tokens, nil
}

// TriggerRefresh asks the backend to re-fetch prices from its upstream sources.
func (c *Client) TriggerRefresh(ctx context.Context) error {
	err := c.api.Post(ctx, "/tokens/refresh", nil, nil)
	if err != nil {
		return fmt.Errorf("trigger token refresh: %w", err)
	}
	return nil
}

// History fetches GET /tokens/:symbol/history for one chain and timeframe.
func (c *Client) History(ctx context.Context, symbol, chain, timeframe string) ([]types.PricePoint, error) {
	path := "/tokens/" + url.PathEscape(symbol) + "/history"
	query := url.Values{}
	query.Set("chain", chain)
	query.Set("timeframe", timeframe)

	var raw json.RawMessage
	err := c.api.Get(ctx, path, query, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history on %s: %w", symbol, chain, err)
	}

	points, err := apiclient.DecodeList[types.PricePoint](raw, "data", "history", "prices")
	if err != nil {
		return nil, fmt.Errorf("fetch %s history on %s: %w", symbol, chain, err)
	}

	return points, nil
}
