// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Szuhaydv/mapex-backend/internal/store"
)

// Migrator is the schema management used by the migrate commands.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Pending() ([]uint, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back and inspect PostgreSQL schema migrations.`,
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			if err := m.Up(); err != nil {
				return err //nolint:wrapcheck // coded by store
			}
			return printVersion(cmd, m)
		}),
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")    //nolint:errcheck // flag is registered below
			steps, _ := cmd.Flags().GetInt("steps") //nolint:errcheck // flag is registered below
			var err error
			switch {
			case all:
				err = m.Down()
			case steps < 1:
				return oops.Code("INVALID_STEPS").Errorf("steps must be at least 1, got %d", steps)
			default:
				err = m.Steps(-steps)
			}
			if err != nil {
				return err //nolint:wrapcheck // coded by store
			}
			return printVersion(cmd, m)
		}),
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	down.Flags().Bool("all", false, "roll back every migration, dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			if err := printVersion(cmd, m); err != nil {
				return err
			}
			pending, err := m.Pending()
			if err != nil {
				return err //nolint:wrapcheck // coded by store
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}
			cmd.Printf("%d pending migration(s):\n", len(pending))
			for _, v := range pending {
				cmd.Printf("  %s\n", store.MigrationName(v))
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			if err := m.Force(version); err != nil {
				return err //nolint:wrapcheck // coded by store
			}
			return printVersion(cmd, m)
		}),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").
				With("key", "database_url").
				Errorf("database_url (or DATABASE_URL) is required")
		}

		m, err := newMigrator(cfg.DatabaseURL)
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrf("warning: failed to close migrator: %v\n", closeErr)
			}
		}()

		return run(cmd, m, args)
	}
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // coded by store
	}
	if dirty {
		cmd.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}
