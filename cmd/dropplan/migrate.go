package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/dropplan/internal/persistence/sqlite"
	"github.com/example/dropplan/internal/persistence/sqlite/migration"
)

func (a *app) migrateCommand() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.LogLevel)

			store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer closeStore(store, logger)

			if !statusOnly {
				if err := store.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}
			}

			status, err := store.MigrationStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("read migration status: %w", err)
			}
			current := status.CurrentVersion
			if current == "" {
				current = "none"
			}
			fmt.Fprintf(a.out, "current version: %s\n", current)
			fmt.Fprintf(a.out, "applied: %d\n", len(status.AppliedMigrations))
			fmt.Fprintf(a.out, "pending: %d\n", status.PendingCount)
			for _, pending := range status.PendingMigrations {
				fmt.Fprintf(a.out, "  %s\n", pending.Version)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report migration status without applying")
	return cmd
}
