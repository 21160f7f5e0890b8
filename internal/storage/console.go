package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/stats"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"go.uber.org/zap"
)

const consoleTopN = 5

// ConsoleStorage implements Storage by pretty-printing a summary of each list.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageWriter(os.Stdout, logger)
}

// NewConsoleStorageWriter creates a console storage writing to out.
func NewConsoleStorageWriter(out io.Writer, logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    out,
		logger: logger,
	}
}

// StoreOpportunities prints the list size, the derived stats and the most
// profitable entries.
func (c *ConsoleStorage) StoreOpportunities(ctx context.Context, opps []types.Opportunity, observedAt time.Time) error {
	rule := strings.Repeat("━", 72)
	derived := stats.Derive(opps)

	var b strings.Builder
	fmt.Fprintln(&b, "\n"+rule)
	fmt.Fprintf(&b, "🎯 OPPORTUNITIES UPDATED (%d)\n", len(opps))
	fmt.Fprintf(&b, "Time:     %s\n", observedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, rule)

	if best := derived.BestOpportunity; best != nil {
		fmt.Fprintf(&b, "💰 BEST:  %s %s net %s\n", best.TokenSymbol, best.Route, currency.FormatUSD(&best.NetProfitUSD))
	} else {
		fmt.Fprintln(&b, "💰 BEST:  none profitable")
	}
	if top := derived.TopToken; top != nil {
		fmt.Fprintf(&b, "📊 TOP:   %s avg spread %s on %s\n", top.Symbol, currency.FormatPercent(&top.AverageSpread), strings.Join(top.Chains, ", "))
	}
	fmt.Fprintln(&b, rule)

	ranked := append([]types.Opportunity(nil), opps...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NetProfitUSD > ranked[j].NetProfitUSD
	})
	if len(ranked) > consoleTopN {
		ranked = ranked[:consoleTopN]
	}

	for i := range ranked {
		o := &ranked[i]
		flag := ""
		if o.Flagged {
			flag = " ⚠ " + strings.Join(o.FlagReasons, "; ")
		}
		fmt.Fprintf(&b, "  %-8s %-28s net %12s  score %5.1f%s\n",
			o.TokenSymbol, o.Route, currency.FormatUSD(&o.NetProfitUSD), o.Score, flag)
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(c.out, b.String())
	if err != nil {
		return fmt.Errorf("write console summary: %w", err)
	}

	return nil
}

// Ping always succeeds.
func (c *ConsoleStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
