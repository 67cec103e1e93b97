package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/foodcoach/internal/config"
	"github.com/vbonduro/foodcoach/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", db.Migrate),
		migrateSubcommand("down", "Roll back the most recent migration", db.Rollback),
		migrateSubcommand("version", "Print the current schema version", func(*sql.DB) error { return nil }),
	)
	return cmd
}

func migrateSubcommand(use, short string, step func(*sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != "sqlite" {
				return fmt.Errorf("migrate only manages the sqlite store; %s creates its schema on start", cfg.StoreBackend)
			}

			database, err := db.OpenUnmigrated(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := step(database); err != nil {
				return err
			}

			version, dirty, err := db.Version(database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
}
