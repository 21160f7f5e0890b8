package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/opportunities"
	"github.com/arbitrage-pro/dashboard/internal/stats"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var opportunitiesCmd = &cobra.Command{
	Use:     "opportunities",
	Aliases: []string{"opps"},
	Short:   "List current arbitrage opportunities",
	Long: `Fetches GET /opportunities once and prints the normalized list.
Unlike the dashboard, no sample data is shown when the backend is unreachable.`,
	RunE: runOpportunities,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(opportunitiesCmd)
	opportunitiesCmd.Flags().String("status", "", "Filter by status")
	opportunitiesCmd.Flags().String("sort", "score", "Sort field (e.g. score, netProfitUsd, roi)")
	opportunitiesCmd.Flags().String("order", "desc", "Sort order: asc or desc")
	opportunitiesCmd.Flags().Float64("min-profit", 0, "Minimum net profit in USD")
	opportunitiesCmd.Flags().Float64("max-gas", 0, "Maximum gas cost in USD")
	opportunitiesCmd.Flags().Float64("min-roi", 0, "Minimum ROI percent")
	opportunitiesCmd.Flags().Float64("min-score", 0, "Minimum score")
	opportunitiesCmd.Flags().IntP("limit", "l", 50, "Maximum number of opportunities")
	opportunitiesCmd.Flags().Bool("hide-flagged", false, "Hide opportunities flagged as suspicious")
	opportunitiesCmd.Flags().StringP("currency", "c", "", "Display currency (default DISPLAY_CURRENCY)")
}

func runOpportunities(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	query, err := opportunityQuery(cmd)
	if err != nil {
		return err
	}
	hideFlagged, _ := cmd.Flags().GetBool("hide-flagged")
	code, err := displayCurrency(cmd, cfg)
	if err != nil {
		return err
	}

	backend, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	opps, err := backend.Opportunities.ListOpportunities(ctx, query)
	if err != nil {
		return fmt.Errorf("fetch opportunities: %w", err)
	}
	if hideFlagged {
		opps = stats.Unflagged(opps)
	}

	if len(opps) == 0 {
		fmt.Println("No opportunities found.")
		return nil
	}

	rates := loadRates(ctx, cfg, logger)
	return printOpportunities(os.Stdout, opps, rates, code)
}

// opportunityQuery builds the query from flags. Filters left unset on the
// command line are not sent.
func opportunityQuery(cmd *cobra.Command) (opportunities.Query, error) {
	status, _ := cmd.Flags().GetString("status")
	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	limit, _ := cmd.Flags().GetInt("limit")

	if order != "asc" && order != "desc" {
		return opportunities.Query{}, fmt.Errorf("invalid sort order: %s. Valid options: asc, desc", order)
	}

	return opportunities.Query{
		Status:     status,
		SortBy:     sortBy,
		SortOrder:  order,
		MinProfit:  changedFloat(cmd, "min-profit"),
		MaxGasCost: changedFloat(cmd, "max-gas"),
		MinROI:     changedFloat(cmd, "min-roi"),
		MinScore:   changedFloat(cmd, "min-score"),
		Limit:      limit,
	}, nil
}

func changedFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}
