package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/config"
)

func newMigrateCmd(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.Storage != config.StoragePostgres {
				rt.logger.Info("nothing to migrate", zap.String("storage", rt.cfg.Storage))
				return nil
			}

			db, err := repository.Connect(cmd.Context(), rt.cfg.DB.Driver, rt.cfg.DB.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			rt.logger.Info("schema applied")
			return nil
		},
	}
}
