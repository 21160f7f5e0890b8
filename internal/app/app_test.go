package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/config"
	"go.uber.org/zap"
)

const (
	tokensBody = `[
		{"symbol":"ETH","chain":"ethereum","currentPrice":1800,"lastUpdated":"2026-01-01T00:00:00Z"},
		{"symbol":"ETH","chain":"arbitrum","currentPrice":1812,"lastUpdated":"2026-01-01T00:00:00Z"}
	]`
	opportunitiesBody = `{"data":[
		{"_id":"a1","tokenSymbol":"ETH","chainFrom":"ethereum","chainTo":"arbitrum",
		 "priceDiffUsd":12,"priceDiffPercent":0.6,"gasCostUsd":2,"netProfitUsd":10,
		 "estimatedProfitUsd":10,"score":80}
	]}`
	ratesBody = `{"result":"success","base_code":"USD","rates":{"EUR":0.9}}`
)

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tokens", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tokensBody))
	})
	mux.HandleFunc("/api/opportunities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(opportunitiesBody))
	})
	mux.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ratesBody))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()

	return &config.Config{
		LogLevel:                  "info",
		HTTPPort:                  "0",
		StateDir:                  t.TempDir(),
		APIBaseURL:                backendURL + "/api",
		APITimeout:                5 * time.Second,
		APIRateLimitRPS:           100,
		APIRateLimitBurst:         10,
		TokensPollInterval:        time.Hour,
		OpportunitiesPollInterval: time.Hour,
		OpportunitiesLimit:        100,
		ExchangeRatesURL:          backendURL + "/rates",
		ExchangeRatesTTL:          time.Hour,
		DisplayCurrency:           "EUR",
		ChartCacheTTL:             time.Minute,
		CacheBackend:              "memory",
		StorageMode:               "none",
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestApp_PollsAndServesDashboard(t *testing.T) {
	srv := newBackendServer(t)
	cfg := testConfig(t, srv.URL)

	a, err := New(cfg, zap.NewNop(), &Options{SkipLogin: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	a.startComponents()
	a.healthChecker.SetReady(true)

	waitFor(t, func() bool {
		return !a.tokenService.Snapshot().UpdatedAt.IsZero() &&
			!a.opportunityService.Snapshot().UpdatedAt.IsZero()
	})

	handler := a.httpServer.Handler()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/ready status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/dashboard status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"currency":"EUR"`) {
		t.Errorf("dashboard body missing default currency: %s", body)
	}
	if !strings.Contains(body, `"ratesSource":"network"`) {
		t.Errorf("dashboard body missing network rates: %s", body)
	}
	if !strings.Contains(body, `"fallback":false`) {
		t.Errorf("dashboard body should not use sample data: %s", body)
	}

	err = a.Shutdown()
	if err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if a.healthChecker.IsReady() {
		t.Error("expected not ready after shutdown")
	}
}

func TestApp_ReadyFailsBeforeFirstLoad(t *testing.T) {
	srv := newBackendServer(t)
	cfg := testConfig(t, srv.URL)

	a, err := New(cfg, zap.NewNop(), &Options{SkipLogin: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.chartCache.Close()

	a.healthChecker.SetReady(true)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	a.httpServer.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestNew_RejectsUnreachablePostgres(t *testing.T) {
	srv := newBackendServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.StorageMode = "postgres"
	cfg.PostgresHost = "127.0.0.1"
	cfg.PostgresPort = "1"
	cfg.PostgresSSL = "disable"

	_, err := New(cfg, zap.NewNop(), &Options{SkipLogin: true})
	if err == nil {
		t.Fatal("expected error for unreachable postgres")
	}
}
