package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/billing-ledger/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = migrate.FindDir()
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrate.Up(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			slog.Info("migrations applied", "count", len(applied), "files", applied)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: search upwards for migrations/)")
	return cmd
}
