package cmd

import (
	"fmt"

	"github.com/arbitrage-pro/dashboard/internal/app"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dashboard backend",
	Long: `Starts the dashboard backend, which will:
1. Restore the saved session or log in with AUTH_EMAIL/AUTH_PASSWORD
2. Poll the token and opportunity lists
3. Load exchange rates for the display currency
4. Serve /api/* over HTTP and push snapshots on /ws

Use --skip-login to run against a backend that needs no session.`,
	RunE: runServer,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("skip-login", false, "Do not restore or create a session at startup")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	skipLogin, _ := cmd.Flags().GetBool("skip-login")

	// Create app with options
	opts := &app.Options{
		SkipLogin: skipLogin,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
