package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/billing-ledger/internal/config"
	"github.com/josh-kwaku/billing-ledger/internal/logging"
	"github.com/josh-kwaku/billing-ledger/internal/repository"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "billingctl",
		Short:         "Administrative commands for the billing ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init("billingctl", logLevel, "development")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(newMigrateCmd(), newUserCmd(), newVerifyCmd())
	return root
}

// openDB connects using the DATABASE_URL family of settings.
func openDB(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("openDB: %w", err)
	}
	slog.Debug("connected to database")
	return db, nil
}
