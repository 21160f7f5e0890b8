package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rate sources reported by Table.Source.
const (
	SourceCache    = "cache"
	SourceNetwork  = "network"
	SourceFallback = "fallback"
)

const cacheFileName = "exchange-rates.json"

// Table is a USD-based rate snapshot.
type Table struct {
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Source    string             `json:"source"`
}

// Rate returns the USD rate of code. Unknown codes convert at 1.
func (t *Table) Rate(code string) float64 {
	if rate, ok := t.Rates[code]; ok && rate > 0 {
		return rate
	}
	return 1
}

// ConvertFromUSD converts a USD amount into code using decimal arithmetic,
// so 100 USD at 0.92 is exactly 92.
func (t *Table) ConvertFromUSD(value float64, code string) float64 {
	if code == USD || !finite(value) {
		return value
	}
	converted := decimal.NewFromFloat(value).Mul(decimal.NewFromFloat(t.Rate(code)))
	return converted.InexactFloat64()
}

// Format converts a USD amount and renders it in code.
func (t *Table) Format(value float64, code string) string {
	return FormatCurrency(t.ConvertFromUSD(value, code), code)
}

// Service loads exchange rates once per process.
type Service struct {
	url        string
	ttl        time.Duration
	cachePath  string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	once  sync.Once
	table *Table
}

// Config holds currency service configuration.
type Config struct {
	URL      string        // USD-based latest rates endpoint
	TTL      time.Duration // Max age of the on-disk cache
	StateDir string        // Empty disables the on-disk cache
	Timeout  time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

// New creates a currency service.
func New(cfg *Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var cachePath string
	if cfg.StateDir != "" {
		cachePath = filepath.Join(cfg.StateDir, cacheFileName)
	}

	return &Service{
		url:        cfg.URL,
		ttl:        cfg.TTL,
		cachePath:  cachePath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		now:        now,
	}
}

// Load returns the session's rate table. The first call reads a fresh disk
// cache or fetches the rates API, falling back to hardcoded rates on failure;
// later calls return the same table without any I/O. Load never fails.
//
// The one load is detached from ctx and bounded by the client timeout, so a
// caller that has already given up cannot pin the fallback rates.
func (s *Service) Load(ctx context.Context) *Table {
	s.once.Do(func() {
		s.table = s.load(context.WithoutCancel(ctx))
		RatesLoadedTotal.WithLabelValues(s.table.Source).Inc()
		s.logger.Info("exchange-rates-loaded",
			zap.String("source", s.table.Source),
			zap.Time("fetched-at", s.table.FetchedAt))
	})
	return s.table
}

func (s *Service) load(ctx context.Context) *Table {
	cached, err := s.readCache()
	if err != nil {
		s.logger.Warn("exchange-rate-cache-unreadable", zap.Error(err))
	}
	if cached != nil && s.now().Sub(cached.FetchedAt) < s.ttl {
		cached.Source = SourceCache
		return cached
	}

	fetched, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("exchange-rate-fetch-failed", zap.Error(err))
		return &Table{Rates: FallbackRates(), FetchedAt: s.now(), Source: SourceFallback}
	}

	err = s.writeCache(fetched)
	if err != nil {
		s.logger.Warn("exchange-rate-cache-write-failed", zap.Error(err))
	}

	return fetched
}

// ratesResponse is the open.er-api.com payload.
type ratesResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rates body: %w", err)
	}

	var payload ratesResponse
	err = json.Unmarshal(body, &payload)
	if err != nil {
		return nil, fmt.Errorf("unmarshal rates: %w", err)
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, fmt.Errorf("rates api returned result %q", payload.Result)
	}
	if payload.BaseCode != "" && payload.BaseCode != USD {
		return nil, fmt.Errorf("rates api returned base %q", payload.BaseCode)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("rates api returned no rates")
	}

	rates := make(map[string]float64, len(Supported))
	for _, code := range Supported {
		rate, ok := payload.Rates[code]
		if !ok || rate <= 0 {
			rate = fallbackRates[code]
		}
		rates[code] = rate
	}
	rates[USD] = 1

	return &Table{Rates: rates, FetchedAt: s.now(), Source: SourceNetwork}, nil
}

func (s *Service) readCache() (*Table, error) {
	if s.cachePath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rate cache: %w", err)
	}

	var table Table
	err = json.Unmarshal(data, &table)
	if err != nil {
		return nil, fmt.Errorf("unmarshal rate cache: %w", err)
	}
	if len(table.Rates) == 0 {
		return nil, nil
	}
	table.Rates[USD] = 1

	return &table, nil
}

func (s *Service) writeCache(table *Table) error {
	if s.cachePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rate cache: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(s.cachePath), 0o700)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := s.cachePath + ".tmp"
	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return fmt.Errorf("write rate cache: %w", err)
	}

	return os.Rename(tmp, s.cachePath)
}
