package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arbitrage-pro",
	Short: "ArbiTrage Pro dashboard backend",
	Long: `ArbiTrage Pro polls the arbitrage backend for token prices and
cross-chain opportunities, derives dashboard statistics, converts values
into the display currency and serves the result over HTTP and WebSocket.

Settings are read from the environment. A .env file in the working
directory is loaded first when present.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
