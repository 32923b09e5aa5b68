package commands

import (
	"errors"
	"fmt"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errUserNotFound = errors.New("user not found")

func SendWelcomeEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-welcome-email <user_id>",
		Short: "Queue the welcome email for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			userID, err := uuid.Parse(args[0])
			if err != nil {
				fmt.Fprintln(out, "User not found.")
				return errUserNotFound
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.services(nil).Auth.QueueWelcomeEmail(cmd.Context(), userID); err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					fmt.Fprintln(out, "User not found.")
					return errUserNotFound
				}
				return err
			}

			fmt.Fprintln(out, "Welcome email queued.")
			return nil
		},
	}
}
