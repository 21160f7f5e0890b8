package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/app"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session",
	Long: `Logs in to the backend and saves the session under STATE_DIR so that
later commands and the server reuse it. The password is read from
--password or AUTH_PASSWORD.`,
	RunE: runLogin,
}

//nolint:gochecknoglobals // Cobra boilerplate
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and save the session",
	RunE:  runRegister,
}

//nolint:gochecknoglobals // Cobra boilerplate
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the saved session",
	RunE:  runLogout,
}

//nolint:gochecknoglobals // Cobra boilerplate
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user of the saved session",
	RunE:  runWhoami,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringP("email", "e", "", "Account email (default AUTH_EMAIL)")
		c.Flags().String("password", "", "Account password (default AUTH_PASSWORD)")
	}
	registerCmd.Flags().StringP("name", "n", "", "Display name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withCredentials(cmd, func(ctx context.Context, backend *app.Backend, email, password string) (*types.User, error) {
		return backend.Session.Login(ctx, email, password)
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return errors.New("--name is required")
	}
	return withCredentials(cmd, func(ctx context.Context, backend *app.Backend, email, password string) (*types.User, error) {
		return backend.Session.Register(ctx, name, email, password)
	})
}

func withCredentials(
	cmd *cobra.Command,
	fn func(ctx context.Context, backend *app.Backend, email, password string) (*types.User, error),
) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" {
		email = cfg.AuthEmail
	}
	if password == "" {
		password = cfg.AuthPassword
	}
	if email == "" || password == "" {
		return errors.New("email and password are required (flags or AUTH_EMAIL/AUTH_PASSWORD)")
	}

	backend, err := app.NewBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	user, err := fn(ctx, backend, email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	backend, err := app.NewBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	err = backend.Session.Restore(ctx)
	if err != nil {
		logger.Warn("session-restore-failed", zap.Error(err))
	}

	err = backend.Session.Logout(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	backend, err := app.NewBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	err = backend.Session.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	user := backend.Session.User()
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	return nil
}
