package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renewly/renewly/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply subscription store schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url (or DATABASE_URL) is required")
			}

			db, err := store.Open(databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.RunMigrations(cmd.Context(), db); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL DSN for the subscription store")
	return cmd
}
