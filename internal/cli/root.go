package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"empdesk/internal/app/server"
	"empdesk/internal/platform/config"
	"empdesk/internal/platform/db"
	"empdesk/internal/platform/logging"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "empdesk",
		Short:         "Employee directory and support desk",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newApproveCommand())
	root.AddCommand(newResolveTicketCommand())
	root.AddCommand(newPurgeCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	logging.Setup(cfg.Environment, cfg.LogLevel, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// withServices opens the database and hands the wired domain services to fn.
func withServices(ctx context.Context, fn func(server.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	return fn(server.NewServices(pool, cfg, nil))
}
