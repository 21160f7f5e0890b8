package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/opportunities"
	"github.com/arbitrage-pro/dashboard/internal/stats"
	"github.com/arbitrage-pro/dashboard/internal/tokens"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

//nolint:gochecknoglobals // Cobra boilerplate
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard summary cards",
	Long:  `Fetches tokens and opportunities and prints the best opportunity, the top token and the token summary.`,
	RunE:  runStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("currency", "c", "", "Display currency (default DISPLAY_CURRENCY)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	code, err := displayCurrency(cmd, cfg)
	if err != nil {
		return err
	}

	backend, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var toks []types.TokenDto
	g.Go(func() error {
		var listErr error
		toks, listErr = backend.Tokens.ListTokens(gctx, tokens.Query{})
		return listErr
	})

	var opps []types.Opportunity
	g.Go(func() error {
		var listErr error
		opps, listErr = backend.Opportunities.ListOpportunities(gctx, opportunities.Query{
			SortBy:    "score",
			SortOrder: "desc",
			Limit:     cfg.OpportunitiesLimit,
		})
		return listErr
	})

	err = g.Wait()
	if err != nil {
		return fmt.Errorf("fetch dashboard data: %w", err)
	}

	rates := loadRates(ctx, cfg, logger)
	return printStats(os.Stdout, stats.Derive(opps), stats.Summarize(toks), rates, code)
}
