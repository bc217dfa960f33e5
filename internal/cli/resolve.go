package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"empdesk/internal/app/server"
)

var errTicketIDRequired = errors.New("--id must be a positive ticket id")

func newResolveTicketCommand() *cobra.Command {
	var id int64
	var guest bool
	cmd := &cobra.Command{
		Use:   "resolve-ticket",
		Short: "Mark a support ticket resolved (emails the submitter once)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id <= 0 {
				return errTicketIDRequired
			}
			ctx := commandContext(cmd)
			return withServices(ctx, func(services server.Services) error {
				var changed bool
				var err error
				if guest {
					_, changed, err = services.Support.ResolveGuest(ctx, id)
				} else {
					_, changed, err = services.Support.Resolve(ctx, id)
				}
				if err != nil {
					return fmt.Errorf("resolve ticket %d: %w", id, err)
				}
				if !changed {
					fmt.Fprintf(cmd.OutOrStdout(), "ticket %d already resolved\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ticket %d resolved\n", id)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "ticket id")
	cmd.Flags().BoolVar(&guest, "guest", false, "resolve a guest ticket")
	return cmd
}
