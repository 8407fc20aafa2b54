package main

import (
	"fmt"

	"github.com/localplate/waitlist/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Swapped in tests so the command wiring can run without Postgres.
var (
	migrateUp      = database.MigrateUp
	migrateDown    = database.MigrateDown
	migrateVersion = database.MigrationVersion
)

func newMigrateCmd(newLogger func() *zap.Logger) *cobra.Command {
	var dbURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the waitlist schema",
	}
	cmd.PersistentFlags().StringVar(&dbURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")

	resolve := func() (string, error) {
		if dbURL != "" {
			return dbURL, nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		return cfg.Database.URL, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := resolve()
			if err != nil {
				return err
			}
			log := newLogger()
			defer log.Sync()

			if err := migrateUp(url); err != nil {
				return err
			}
			log.Info("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			url, err := resolve()
			if err != nil {
				return err
			}
			log := newLogger()
			defer log.Sync()

			if err := migrateDown(url, steps); err != nil {
				return err
			}
			log.Info("migrations rolled back", zap.Int("steps", steps))
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := resolve()
			if err != nil {
				return err
			}
			v, dirty, err := migrateVersion(url)
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (%s)\n", v, state)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
