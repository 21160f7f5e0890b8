package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/charts"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/cache"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "Show price history for a token",
	Long: `Fetches the price history of a token on each chain for one timeframe
(1h, 24h, 7d or 30d) and prints the first and last price per chain.
Without --chain, every chain the token is listed on is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringSlice("chain", nil, "Chain to include (repeatable)")
	historyCmd.Flags().StringP("timeframe", "t", charts.Timeframe24H, "Timeframe: 1h, 24h, 7d, 30d")
	historyCmd.Flags().IntP("points", "p", 50, "Maximum points per series")
	historyCmd.Flags().StringP("currency", "c", "", "Display currency (default DISPLAY_CURRENCY)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	symbol := strings.ToUpper(args[0])
	chains, _ := cmd.Flags().GetStringSlice("chain")
	timeframe, _ := cmd.Flags().GetString("timeframe")
	points, _ := cmd.Flags().GetInt("points")

	if !charts.ValidTimeframe(timeframe) {
		return fmt.Errorf("invalid timeframe: %s. Valid options: 1h, 24h, 7d, 30d", timeframe)
	}
	code, err := displayCurrency(cmd, cfg)
	if err != nil {
		return err
	}

	backend, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if len(chains) == 0 {
		listed, listErr := backend.Tokens.ListTokens(ctx, tokens.Query{Symbol: symbol})
		if listErr != nil {
			return fmt.Errorf("fetch %s listings: %w", symbol, listErr)
		}
		chains = chainsOf(listed)
		if len(chains) == 0 {
			return fmt.Errorf("%s is not listed on any chain", symbol)
		}
	}

	memCache := cache.NewMemoryCache(time.Minute, logger)
	defer memCache.Close()

	svc := charts.New(&charts.Config{
		Source: backend.Tokens,
		Cache:  memCache,
		TTL:    cfg.ChartCacheTTL,
		Logger: logger,
	})

	history, err := svc.History(ctx, symbol, chains, timeframe, points)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	rates := loadRates(ctx, cfg, logger)
	fmt.Printf("%s price history (%s)\n\n", symbol, timeframe)
	return printHistory(os.Stdout, history, rates, code)
}

// chainsOf returns the distinct chains of toks in first-seen order.
func chainsOf(toks []types.TokenDto) []string {
	seen := make(map[string]bool, len(toks))
	chains := make([]string, 0, len(toks))
	for i := range toks {
		key := strings.ToLower(toks[i].Chain)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		chains = append(chains, toks[i].Chain)
	}
	return chains
}
