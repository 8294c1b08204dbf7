package cmd

import (
	"fmt"
	"strconv"

	"github.com/Togather-Foundation/places/internal/config"
	"github.com/Togather-Foundation/places/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect the embedded schema migrations.

Only DATABASE_URL (or database.url in --config) is needed.`,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(global)
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(url, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := databaseURL(global)
				if err != nil {
					return err
				}
				if err := postgres.MigrateUp(url); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := databaseURL(global)
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				url, err := databaseURL(global)
				if err != nil {
					return err
				}
				if err := postgres.MigrateForce(url, version); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", version)
				return nil
			},
		},
	)
	return cmd
}

func databaseURL(global *globalOptions) (string, error) {
	cfg, err := global.loadConfig()
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	return requireDatabaseURL(cfg)
}

func requireDatabaseURL(cfg config.Config) (string, error) {
	if cfg.Database.URL == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return cfg.Database.URL, nil
}
