// Package cli is the UI-facing surface: one command per screen of the
// original flow (registration, login, home/profile) plus logout and the
// administrative wipe.
package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mavelar/gatekeep/internal/services"
)

// App bundles the injected services behind the command tree. No ambient
// singletons; everything the commands touch comes in through New.
type App struct {
	auth         *services.AuthService
	lockout      *services.LockoutService
	pollInterval time.Duration
	logger       *slog.Logger
}

// New creates the CLI application.
func New(auth *services.AuthService, lockout *services.LockoutService, pollInterval time.Duration, logger *slog.Logger) *App {
	return &App{
		auth:         auth,
		lockout:      lockout,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// RootCmd builds the command tree.
func (a *App) RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gatekeep",
		Short: "On-device account registration and login",
		Long: `Gatekeep manages a single on-device account: registration, login with
failed-attempt lockout, and a session that survives restarts. All state
lives in local storage; nothing leaves the device.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.statusCmd(),
		a.logoutCmd(),
		a.wipeCmd(),
	)
	return rootCmd
}
