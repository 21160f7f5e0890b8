package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show USD exchange rates",
	Long: `Loads exchange rates the same way the server does: from the on-disk
cache when it is fresh, otherwise from EXCHANGE_RATES_URL, otherwise from
the built-in fallback table.`,
	RunE: runRates,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	return printRates(os.Stdout, loadRates(ctx, cfg, logger))
}
