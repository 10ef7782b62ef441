package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) statusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "stream the lockout countdown if one is active")
	return cmd
}

func (a *App) runStatus(cmd *cobra.Command, watch bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	result := a.auth.CheckAuth(ctx)
	if !result.Success {
		fmt.Fprintf(out, "Not signed in (%s)\n", result.Message)
	} else if result.User == nil {
		// Session valid but profile blob is gone; tolerated.
		fmt.Fprintln(out, "Signed in (profile unavailable)")
	} else {
		fmt.Fprintf(out, "Signed in as %s\n", result.User.FullName())
		fmt.Fprintf(out, "  Email: %s\n", result.User.Email)
		fmt.Fprintf(out, "  Phone: %s\n", result.User.PhoneNumber)
		fmt.Fprintf(out, "  Since: %s\n", result.User.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	if locked, remaining := a.lockout.Status(ctx); locked {
		fmt.Fprintf(out, "Login locked out for another %ds\n", remaining)
		if watch {
			a.watchCountdown(cmd)
		}
	}
	return nil
}
