package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mavelar/gatekeep/internal/models"
	"github.com/mavelar/gatekeep/internal/services"
)

func (a *App) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create the on-device account",
		Long: `Create the single on-device account. Non-secret form fields are saved
as a draft after each answer, so an interrupted signup resumes where it
left off. Passwords are never part of the draft.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRegister(cmd)
		},
	}
}

func (a *App) runRegister(cmd *cobra.Command) error {
	ctx := cmd.Context()
	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	draft := a.auth.RegistrationDraft(ctx)
	if draft == nil {
		draft = &models.RegistrationDraft{}
	} else if !draft.Empty() {
		fmt.Fprintln(out, "Resuming a saved registration draft.")
	}

	fields := []struct {
		prompt string
		value  *string
	}{
		{"Email", &draft.Email},
		{"First name", &draft.FirstName},
		{"Last name", &draft.LastName},
		{"Phone number", &draft.PhoneNumber},
	}

	for _, f := range fields {
		answer, err := promptLine(reader, out, f.prompt, *f.value)
		if err != nil {
			return err
		}
		*f.value = answer
		// Persist after every edit so a killed process loses nothing.
		if !a.auth.SaveRegistrationDraft(ctx, draft) {
			fmt.Fprintln(out, "warning: could not save the registration draft")
		}
	}

	password, err := promptPassword(out, "Password")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(out, "Confirm password")
	if err != nil {
		return err
	}

	result := a.auth.Register(ctx, services.RegisterRequest{
		Email:           draft.Email,
		Password:        password,
		ConfirmPassword: confirm,
		FirstName:       draft.FirstName,
		LastName:        draft.LastName,
		PhoneNumber:     draft.PhoneNumber,
	})

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	fmt.Fprintf(out, "Welcome, %s! Your account is ready and you are signed in.\n", result.User.FullName())
	return nil
}
