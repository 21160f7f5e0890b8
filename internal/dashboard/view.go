package dashboard

import (
	"time"

	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/poller"
	"github.com/arbitrage-pro/dashboard/pkg/types"
)

// Money is a USD amount with its display-currency conversion.
type Money struct {
	USD     float64 `json:"usd"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// TokenView is a token row with converted prices.
type TokenView struct {
	types.TokenDto
	Price         Money    `json:"price"`
	DexPriceValue *Money   `json:"dexPriceValue,omitempty"`
	SpreadPercent *float64 `json:"spreadPercent,omitempty"`
	SpreadDisplay string   `json:"spreadDisplay"`
}

// OpportunityView is an opportunity row with converted amounts.
type OpportunityView struct {
	types.Opportunity
	PriceDiff        Money  `json:"priceDiff"`
	GasCost          Money  `json:"gasCost"`
	NetProfit        Money  `json:"netProfit"`
	EstimatedProfit  Money  `json:"estimatedProfit"`
	PriceDiffDisplay string `json:"priceDiffPercentDisplay"`
	ROIDisplay       string `json:"roiDisplay"`
}

// ListState is the load state of one polled list.
type ListState struct {
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	Fallback  bool      `json:"fallback"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is everything the dashboard renders, in one currency.
type Snapshot struct {
	Currency           string               `json:"currency"`
	RatesSource        string               `json:"ratesSource"`
	Tokens             []TokenView          `json:"tokens"`
	Opportunities      []OpportunityView    `json:"opportunities"`
	Stats              types.DashboardStats `json:"stats"`
	TokenSummary       types.TokenSummary   `json:"tokenSummary"`
	TokensState        ListState            `json:"tokensState"`
	OpportunitiesState ListState            `json:"opportunitiesState"`
	GeneratedAt        time.Time            `json:"generatedAt"`
}

func money(table *currency.Table, usd float64, code string) Money {
	return Money{
		USD:     usd,
		Value:   table.ConvertFromUSD(usd, code),
		Display: table.Format(usd, code),
	}
}

func tokenView(table *currency.Table, t *types.TokenDto, code string) TokenView {
	view := TokenView{
		TokenDto: *t,
		Price:    money(table, t.CurrentPrice, code),
	}

	if t.DexPrice != nil {
		dex := money(table, *t.DexPrice, code)
		view.DexPriceValue = &dex
	}

	if spread, ok := t.Spread(); ok {
		view.SpreadPercent = &spread
	}
	view.SpreadDisplay = currency.FormatPercent(view.SpreadPercent)

	return view
}

func opportunityView(table *currency.Table, o *types.Opportunity, code string) OpportunityView {
	view := OpportunityView{
		Opportunity:     *o,
		PriceDiff:       money(table, o.PriceDiffUSD, code),
		GasCost:         money(table, o.GasCostUSD, code),
		NetProfit:       money(table, o.NetProfitUSD, code),
		EstimatedProfit: money(table, o.EstimatedProfitUSD, code),
	}

	var pct, roi *float64
	if o.HasPriceDiffPercent {
		pct = &o.PriceDiffPercent
	}
	if o.HasROI {
		roi = &o.ROI
	}
	view.PriceDiffDisplay = currency.FormatPercent(pct)
	view.ROIDisplay = currency.FormatPercent(roi)

	return view
}

func stateOf[T any](snap *poller.Snapshot[T]) ListState {
	state := ListState{
		Loading:   snap.Loading,
		Fallback:  snap.Fallback,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Err != nil {
		state.Error = snap.Err.Error()
	}
	return state
}
