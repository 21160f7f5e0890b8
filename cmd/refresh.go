package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var refreshPricesCmd = &cobra.Command{
	Use:   "refresh-prices",
	Short: "Ask the backend to re-fetch token prices",
	Long:  `Calls POST /tokens/refresh. Requires a session (run login first or set AUTH_EMAIL/AUTH_PASSWORD).`,
	RunE:  runRefreshPrices,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(refreshPricesCmd)
}

func runRefreshPrices(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	backend, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	err = backend.Tokens.TriggerRefresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}

	fmt.Println("Price refresh requested.")
	return nil
}
