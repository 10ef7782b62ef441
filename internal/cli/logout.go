package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long: `End the current session. The stored account and profile stay on the
device, so logging back in does not require re-registering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.auth.Logout(cmd.Context())
			if !result.Success {
				return fmt.Errorf("%s", result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *App) wipeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Remove all stored account data",
		Long: `Remove everything: credentials, profile, registration draft, lockout
state and session. Unlike logout, this cannot be undone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !yes {
				answer, err := promptLine(bufio.NewReader(os.Stdin), out, "Delete all account data? (yes/no)", "no")
				if err != nil {
					return err
				}
				if strings.ToLower(answer) != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			result := a.auth.Wipe(cmd.Context())
			if !result.Success {
				return fmt.Errorf("%s", result.Message)
			}
			fmt.Fprintln(out, "All account data removed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
