package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/hongbao/internal/infrastructure/postgres"
)

type dbOptions struct {
	databaseURL    string
	migrationsPath string
}

// dbCmd talks to Postgres directly, not through the API.
func dbCmd() *cobra.Command {
	opts := &dbOptions{}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Schema migrations",
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.migrationsPath, "migrations", "migrations", "Migrations directory")

	cmd.AddCommand(dbUpCmd(opts), dbDownCmd(opts), dbVersionCmd(opts))
	return cmd
}

func (o *dbOptions) open(cmd *cobra.Command) (*postgres.Migrator, error) {
	if o.databaseURL == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})
	return postgres.NewMigrator(o.databaseURL, o.migrationsPath, logger)
}

func dbUpCmd(opts *dbOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Up()
		},
	}
}

func dbDownCmd(opts *dbOptions) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Down(steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	return cmd
}

func dbVersionCmd(opts *dbOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mg, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer mg.Close()

			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
