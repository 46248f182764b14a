// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package main

import (
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/atelier-dev/atelier/internal/store"
)

// NewMigrateCmd creates the migrate subcommand tree.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, and inspect database schema migrations.`,
	}

	cmd.AddCommand(
		newMigrateUpCmd(),
		newMigrateDownCmd(),
		newMigrateStepsCmd(),
		newMigrateForceCmd(),
		newMigrateStatusCmd(),
	)

	return cmd
}

// migratorFromEnv builds a Migrator from DATABASE_URL.
func migratorFromEnv() (*store.Migrator, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return store.NewMigrator(databaseURL)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is not actionable here

			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		Long:  `Roll back all migrations to version 0, dropping all tables and data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRM_REQUIRED").Errorf("down drops all data; re-run with --yes to confirm")
			}

			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is not actionable here

			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (negative n rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_STEPS").With("arg", args[0]).Wrap(err)
			}

			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is not actionable here

			if err := m.Steps(n); err != nil {
				return err
			}
			cmd.Printf("Applied %d migration step(s)\n", n)
			return nil
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version without running migrations.
Use only to recover from a dirty state after fixing the database manually.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("arg", args[0]).Wrap(err)
			}
			if version < 0 {
				return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
			}

			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is not actionable here

			if err := m.Force(version); err != nil {
				return err
			}
			cmd.Printf("Forced migration version to %d\n", version)
			return nil
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migratorFromEnv()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is not actionable here

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Current version: %d (dirty: %v)\n", version, dirty)

			applied, err := m.AppliedMigrations()
			if err != nil {
				return err
			}
			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}

			cmd.Println("Applied:")
			printMigrations(cmd, applied)
			cmd.Println("Pending:")
			printMigrations(cmd, pending)
			return nil
		},
	}
}

func printMigrations(cmd *cobra.Command, versions []uint) {
	if len(versions) == 0 {
		cmd.Println("  (none)")
		return
	}
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = strconv.FormatUint(uint64(v), 10)
		}
		cmd.Printf("  %s\n", name)
	}
}
