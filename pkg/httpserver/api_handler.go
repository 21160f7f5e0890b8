package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/dashboard"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	defaultTimeframe = charts.Timeframe24H
	defaultPoints    = 50
	maxPoints        = 1000
)

// Dashboard is what the API handlers read from.
type Dashboard interface {
	Snapshot(ctx context.Context, code string) (*dashboard.Snapshot, error)
	Rates(ctx context.Context) *currency.Table
	Refresh(ctx context.Context, serverPrices bool) error
	History(ctx context.Context, symbol string, chains []string, timeframe string, points int) (*charts.History, error)
}

// APIHandler serves the dashboard JSON API.
type APIHandler struct {
	dashboard Dashboard
	logger    *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(d Dashboard, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		dashboard: d,
		logger:    logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TokensResponse is the body of GET /api/tokens.
type TokensResponse struct {
	Currency string                `json:"currency"`
	Tokens   []dashboard.TokenView `json:"tokens"`
	Summary  types.TokenSummary    `json:"summary"`
	State    dashboard.ListState   `json:"state"`
}

// OpportunitiesResponse is the body of GET /api/opportunities.
type OpportunitiesResponse struct {
	Currency      string                      `json:"currency"`
	Opportunities []dashboard.OpportunityView `json:"opportunities"`
	State         dashboard.ListState         `json:"state"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	types.DashboardStats
	TokenSummary types.TokenSummary `json:"tokenSummary"`
}

// RatesResponse is the body of GET /api/rates.
type RatesResponse struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Supported []string           `json:"supported"`
}

// RefreshResponse is the body of POST /api/refresh.
type RefreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

// HandleDashboard handles GET /api/dashboard?currency=EUR.
func (h *APIHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// HandleTokens handles GET /api/tokens?currency=EUR.
func (h *APIHandler) HandleTokens(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, TokensResponse{
		Currency: snap.Currency,
		Tokens:   snap.Tokens,
		Summary:  snap.TokenSummary,
		State:    snap.TokensState,
	})
}

// HandleOpportunities handles GET /api/opportunities?currency=EUR.
func (h *APIHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, OpportunitiesResponse{
		Currency:      snap.Currency,
		Opportunities: snap.Opportunities,
		State:         snap.OpportunitiesState,
	})
}

// HandleStats handles GET /api/stats.
func (h *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, StatsResponse{
		DashboardStats: snap.Stats,
		TokenSummary:   snap.TokenSummary,
	})
}

// HandleRates handles GET /api/rates.
func (h *APIHandler) HandleRates(w http.ResponseWriter, r *http.Request) {
	table := h.dashboard.Rates(r.Context())
	h.writeJSON(w, http.StatusOK, RatesResponse{
		Base:      currency.USD,
		Rates:     table.Rates,
		Source:    table.Source,
		FetchedAt: table.FetchedAt,
		Supported: currency.Supported,
	})
}

// HandleHistory handles GET /api/history/{symbol}?chains=a,b&timeframe=24h&points=50.
func (h *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		h.writeError(w, "missing symbol", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()

	timeframe := q.Get("timeframe")
	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	points := defaultPoints
	if raw := q.Get("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPoints {
			h.writeError(w, "points must be an integer between 1 and 1000", http.StatusBadRequest)
			return
		}
		points = n
	}

	var chains []string
	for _, c := range strings.Split(q.Get("chains"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			chains = append(chains, c)
		}
	}

	history, err := h.dashboard.History(r.Context(), symbol, chains, timeframe, points)
	if errors.Is(err, charts.ErrInvalidTimeframe) {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("history-request-failed", zap.String("symbol", symbol), zap.Error(err))
		h.writeError(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// HandleRefresh handles POST /api/refresh?prices=true. With prices the
// backend is asked to re-pull upstream prices first.
func (h *APIHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	serverPrices, _ := strconv.ParseBool(r.URL.Query().Get("prices"))

	err := h.dashboard.Refresh(r.Context(), serverPrices)
	if err != nil {
		h.logger.Warn("manual-refresh-failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, types.ErrSessionExpired) || errors.Is(err, types.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		h.writeJSON(w, status, RefreshResponse{Error: err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, RefreshResponse{Refreshed: true})
}

func (h *APIHandler) snapshot(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := h.dashboard.Snapshot(r.Context(), r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return snap, true
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
