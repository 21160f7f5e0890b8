// Package charts serves per-chain price history for a token, cached per
// (symbol, chain, timeframe) and downsampled to a requested point count.
package charts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/cache"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Supported timeframes.
const (
	Timeframe1H  = "1h"
	Timeframe24H = "24h"
	Timeframe7D  = "7d"
	Timeframe30D = "30d"
)

// DefaultTTL is how long a fetched series is served from cache.
const DefaultTTL = 5 * time.Minute

const maxConcurrentFetches = 4

// ErrInvalidTimeframe is returned for timeframes other than 1h, 24h, 7d and 30d.
var ErrInvalidTimeframe = errors.New("invalid timeframe")

// HistorySource fetches a raw price series.
type HistorySource interface {
	History(ctx context.Context, symbol, chain, timeframe string) ([]types.PricePoint, error)
}

// Entry is one cached series.
type Entry struct {
	Data      []float64
	Message   string
	FetchedAt time.Time
}

// CacheCost charges one unit per price point.
func (e Entry) CacheCost() int64 {
	return int64(len(e.Data)) + 1
}

// Series is the (possibly downsampled) history of one chain. Message is set
// when the chain could not be loaded.
type Series struct {
	Chain   string    `json:"chain"`
	Data    []float64 `json:"data"`
	Message string    `json:"message,omitempty"`
}

// History is the chart payload for one token.
type History struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Series    []Series `json:"series"`
	Notice    string   `json:"notice,omitempty"`
}

// Service fetches and caches chart history.
type Service struct {
	source  HistorySource
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
	fetches singleflight.Group // keyed by CacheKey
}

// Config holds chart service configuration.
type Config struct {
	Source HistorySource
	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// New creates a chart service.
func New(cfg *Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		source: cfg.Source,
		cache:  cfg.Cache,
		ttl:    ttl,
		logger: cfg.Logger,
		now:    now,
	}
}

// ValidTimeframe reports whether tf is a supported timeframe.
func ValidTimeframe(tf string) bool {
	switch tf {
	case Timeframe1H, Timeframe24H, Timeframe7D, Timeframe30D:
		return true
	default:
		return false
	}
}

// CacheKey returns the "symbol::chain::timeframe" cache key.
func CacheKey(symbol, chain, timeframe string) string {
	return strings.ToUpper(symbol) + "::" + strings.ToLower(chain) + "::" + timeframe
}

// Notice is shown when no chain has data.
func Notice(symbol, timeframe string) string {
	return fmt.Sprintf("Historical data unavailable for %s (%s)", strings.ToUpper(symbol), timeframe)
}

// History returns one series per chain, in the order given. Chains are
// fetched concurrently; a chain that fails yields an empty series instead of
// an error. points <= 0 disables downsampling.
func (s *Service) History(ctx context.Context, symbol string, chains []string, timeframe string, points int) (*History, error) {
	if !ValidTimeframe(timeframe) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeframe, timeframe)
	}

	result := &History{
		Symbol:    strings.ToUpper(symbol),
		Timeframe: timeframe,
		Series:    make([]Series, len(chains)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, chain := range chains {
		g.Go(func() error {
			entry := s.entry(gctx, symbol, chain, timeframe)
			result.Series[i] = Series{
				Chain:   chain,
				Data:    Downsample(entry.Data, points),
				Message: entry.Message,
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", symbol, err)
	}

	if !hasData(result.Series) {
		result.Notice = Notice(symbol, timeframe)
	}

	return result, nil
}

// entry returns a fresh cached series or fetches it. Concurrent misses on one
// key share a single fetch, which is detached from ctx so a departing caller
// does not fail the others. Failed fetches are not cached.
func (s *Service) entry(ctx context.Context, symbol, chain, timeframe string) Entry {
	key := CacheKey(symbol, chain, timeframe)

	if cached, ok := s.cached(key); ok {
		HistoryLookupsTotal.WithLabelValues("hit").Inc()
		return cached
	}
	HistoryLookupsTotal.WithLabelValues("miss").Inc()

	ch := s.fetches.DoChan(key, func() (interface{}, error) {
		// A flight that just finished may have filled the cache.
		if cached, ok := s.cached(key); ok {
			return cached, nil
		}
		return s.fetch(context.WithoutCancel(ctx), key, symbol, chain, timeframe), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Entry)
	case <-ctx.Done():
		return Entry{Data: []float64{}, Message: ctx.Err().Error(), FetchedAt: s.now()}
	}
}

// cached returns the entry under key if it is younger than the TTL. Older
// entries are dropped.
func (s *Service) cached(key string) (Entry, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return Entry{}, false
	}
	if entry, ok := v.(Entry); ok && s.now().Sub(entry.FetchedAt) < s.ttl {
		return entry, true
	}
	s.cache.Delete(key)
	return Entry{}, false
}

func (s *Service) fetch(ctx context.Context, key, symbol, chain, timeframe string) Entry {
	points, err := s.source.History(ctx, symbol, chain, timeframe)
	if err != nil {
		HistoryFetchErrorsTotal.Inc()
		s.logger.Warn("history-fetch-failed",
			zap.String("symbol", symbol),
			zap.String("chain", chain),
			zap.String("timeframe", timeframe),
			zap.Error(err))
		return Entry{Data: []float64{}, Message: err.Error(), FetchedAt: s.now()}
	}

	data := make([]float64, len(points))
	for i := range points {
		data[i] = points[i].Price
	}

	fresh := Entry{Data: data, FetchedAt: s.now()}
	s.cache.Set(key, fresh, s.ttl)

	return fresh
}

// Downsample picks points samples at a fixed stride of len(data)/points,
// kept as a fraction so the picks span the whole series. Series no longer
// than points are returned as is.
func Downsample(data []float64, points int) []float64 {
	if points <= 0 || len(data) <= points {
		return data
	}

	out := make([]float64, points)
	for i := range out {
		out[i] = data[i*len(data)/points]
	}
	return out
}

func hasData(series []Series) bool {
	for i := range series {
		if len(series[i].Data) > 0 {
			return true
		}
	}
	return false
}
