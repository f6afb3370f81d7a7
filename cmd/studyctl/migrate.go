package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studynook-backend/internal/database"
	"studynook-backend/migrations"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := cmdLogger(cmd)

			if dryRun {
				list, err := database.LoadMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, m := range list {
					fmt.Fprintln(cmd.OutOrStdout(), m.Name)
				}
				return nil
			}

			if databaseURL == "" {
				return fmt.Errorf("no database: pass --database-url or set DATABASE_URL")
			}

			pool, err := database.NewPostgresPool(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			return database.RunMigrations(cmd.Context(), pool, migrations.FS, log)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", databaseURLDefault(), "PostgreSQL connection string")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List migrations in apply order without connecting")

	return cmd
}
