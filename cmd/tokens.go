package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/currency"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List tracked token prices",
	Long:  `Fetches GET /tokens once and prints every symbol/chain observation in the display currency.`,
	RunE:  runTokens,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().String("symbol", "", "Only show this token symbol")
	tokensCmd.Flags().String("chain", "", "Only show this chain")
	tokensCmd.Flags().IntP("limit", "l", 0, "Maximum number of tokens to fetch (0 = server default)")
	tokensCmd.Flags().StringP("currency", "c", "", "Display currency (default DISPLAY_CURRENCY)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	symbol, _ := cmd.Flags().GetString("symbol")
	chain, _ := cmd.Flags().GetString("chain")
	limit, _ := cmd.Flags().GetInt("limit")
	code, err := displayCurrency(cmd, cfg)
	if err != nil {
		return err
	}

	backend, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	toks, err := backend.Tokens.ListTokens(ctx, tokens.Query{
		Symbol: symbol,
		Chain:  chain,
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("fetch tokens: %w", err)
	}

	if len(toks) == 0 {
		fmt.Println("No tokens found.")
		return nil
	}

	rates := loadRates(ctx, cfg, logger)
	return printTokens(os.Stdout, toks, rates, code)
}

// displayCurrency resolves --currency, falling back to DISPLAY_CURRENCY.
func displayCurrency(cmd *cobra.Command, cfg *config.Config) (string, error) {
	code, _ := cmd.Flags().GetString("currency")
	if code == "" {
		code = cfg.DisplayCurrency
	}
	code, err := currency.ParseCode(code)
	if err != nil {
		return "", fmt.Errorf("parse currency: %w", err)
	}
	return code, nil
}

func loadRates(ctx context.Context, cfg *config.Config, logger *zap.Logger) *currency.Table {
	rates := currency.New(&currency.Config{
		URL:      cfg.ExchangeRatesURL,
		TTL:      cfg.ExchangeRatesTTL,
		StateDir: cfg.StateDir,
		Logger:   logger,
	})
	return rates.Load(ctx)
}
