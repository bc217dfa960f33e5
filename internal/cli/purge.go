package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"empdesk/internal/app/server"
	"empdesk/internal/domain/auth"
	"empdesk/internal/platform/jobs"
)

func newPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired or revoked sessions and used reset tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			return withServices(ctx, func(services server.Services) error {
				out, err := jobs.New(nil).RunNow(ctx, jobs.JobSessionPurge, server.PurgeJob(services))
				if err != nil {
					return fmt.Errorf("purge: %w", err)
				}
				result, _ := out.(auth.PurgeResult)
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions, %d reset tokens\n", result.Sessions, result.PasswordResets)
				return nil
			})
		},
	}
}
