package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldops-api/internal/adapters/postgres"
	"github.com/fieldops/fieldops-api/internal/platform/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply the embedded SQL migrations to DATABASE_URL. Already-applied versions are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.Postgres.DSN, postgres.PoolOptions{
				MaxConns:       2,
				ConnectTimeout: 10 * time.Second,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	}
}
