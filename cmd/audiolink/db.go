package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/database"
	"github.com/nerrad567/audiolink-core/migrations"
)

var (
	errNotSQLite       = errors.New("db commands require storage.backend sqlite")
	errRollbackConfirm = errors.New("rollback drops stored profiles; pass --yes to confirm")
)

func (c *cli) dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and roll back the SQLite schema",
	}
	cmd.AddCommand(c.dbStatusCmd(), c.dbRollbackCmd())
	return cmd
}

// openDatabase opens the configured SQLite file without migrating it.
func (c *cli) openDatabase(cmd *cobra.Command) (*database.DB, error) {
	cfg, err := c.loadConfig(true)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(cfg.Storage.Backend, config.BackendSQLite) {
		return nil, fmt.Errorf("%w (configured: %q)", errNotSQLite, cfg.Storage.Backend)
	}
	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func (c *cli) dbStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Read-only command

			applied, pending, err := db.MigrationStatus(cmd.Context(), migrations.FS)
			if err != nil {
				return fmt.Errorf("reading migration status: %w", err)
			}
			mode, err := db.JournalMode(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database: %s (journal %s)\n", db.Path(), mode)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT")
			for _, m := range applied {
				fmt.Fprintf(w, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
			}
			for _, m := range pending {
				fmt.Fprintf(w, "%s\tpending\t-\n", m.Version)
			}
			return w.Flush()
		},
	}
}

func (c *cli) dbRollbackCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migration",
		Long: "Roll back the most recently applied migration.\n\n" +
			"Stop the service first. The next serve re-applies pending migrations.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errRollbackConfirm
			}

			db, err := c.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Nothing left to flush after commit

			applied, _, err := db.MigrationStatus(cmd.Context(), migrations.FS)
			if err != nil {
				return fmt.Errorf("reading migration status: %w", err)
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}

			if err := db.MigrateDown(cmd.Context(), migrations.FS); err != nil {
				return fmt.Errorf("rolling back: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", applied[len(applied)-1].Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the rollback")
	return cmd
}
