package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"empdesk/internal/app/server"
)

var errEmailRequired = errors.New("--email is required")

func newApproveCommand() *cobra.Command {
	var email string
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve an account so it can log in (sends the approval email)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return errEmailRequired
			}
			return withServices(commandContext(cmd), func(services server.Services) error {
				account, err := services.Auth.SetApprovedByEmail(commandContext(cmd), email, !revoke)
				if err != nil {
					return fmt.Errorf("approve %s: %w", email, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "account %d (%s) approved=%t\n", account.ID, account.Email, account.Approved)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke approval instead of granting it")
	return cmd
}
