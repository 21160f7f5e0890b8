package opportunities

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
)

// Query holds the optional GET /opportunities filters. Nil and zero values
// are omitted.
type Query struct {
	Status     string
	SortBy     string
	SortOrder  string // "asc" or "desc"
	MinProfit  *float64
	MaxGasCost *float64
	MinROI     *float64
	MinScore   *float64
	Limit      int
}

// Values encodes the query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	setFloat(v, "minProfit", q.MinProfit)
	setFloat(v, "maxGasCost", q.MaxGasCost)
	setFloat(v, "minROI", q.MinROI)
	setFloat(v, "minScore", q.MinScore)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func setFloat(v url.Values, key string, f *float64) {
	if f == nil {
		return
	}
	v.Set(key, strconv.FormatFloat(*f, 'f', -1, 64))
}

// Client wraps the opportunity endpoints of the backend.
type Client struct {
	api *apiclient.Client
}

// NewClient creates an opportunity endpoint client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// ListOpportunities fetches GET /opportunities and normalizes the DTOs into
// view models. The body may be a bare array or wrapped under "data" or
// "opportunities".
func (c *Client) ListOpportunities(ctx context.Context, q Query) ([]types.Opportunity, error) {
	var raw json.RawMessage
	err := c.api.Get(ctx, "/opportunities", q.Values(), &raw)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	dtos, err := apiclient.DecodeList[types.OpportunityDto](raw, "data", "opportunities")
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	return types.NewOpportunities(dtos), nil
}
