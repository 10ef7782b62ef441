package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mavelar/gatekeep/internal/background"
)

func (a *App) loginCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the stored account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLogin(cmd, wait)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "show a live countdown while locked out")
	return cmd
}

func (a *App) runLogin(cmd *cobra.Command, wait bool) error {
	ctx := cmd.Context()
	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	email, err := promptLine(reader, out, "Email", "")
	if err != nil {
		return err
	}
	password, err := promptPassword(out, "Password")
	if err != nil {
		return err
	}

	result := a.auth.Login(ctx, email, password)
	if result.Success {
		fmt.Fprintf(out, "Welcome back, %s!\n", result.User.FullName())
		return nil
	}

	if result.LockedOut && wait {
		a.watchCountdown(cmd)
		return fmt.Errorf("lockout ended, you can try again now")
	}

	return fmt.Errorf("%s", result.Message)
}

// watchCountdown renders the remaining lockout time once a second until the
// lockout clears or the user interrupts. The watcher is cancelled when the
// countdown is no longer on screen so no ticker leaks.
func (a *App) watchCountdown(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	watcher := background.NewLockoutWatcher(a.lockout, a.logger, a.pollInterval, func(remaining int64) {
		if remaining > 0 {
			fmt.Fprintf(out, "\rLocked out, try again in %3ds ", remaining)
		}
	})
	watcher.Start(ctx)
	fmt.Fprintln(out)
}
