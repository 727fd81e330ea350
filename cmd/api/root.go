package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/config"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/logger"
)

// cliState holds what every subcommand needs, filled in by PersistentPreRunE.
type cliState struct {
	envFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cliState{}

	root := &cobra.Command{
		Use:   "kanso",
		Short: "Kanso challenge engine",
		Long: `Kanso tracks a 75-day challenge and a set of daily habits per user.

COMMANDS:

  $ kanso serve      # Run the HTTP API
  $ kanso migrate    # Apply the Postgres schema

Configuration comes from the environment, after the env file (default .env)
is loaded. STORAGE=memory runs without Postgres.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}

			cfg, err := config.Load(rt.envFile)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			rt.cfg = cfg
			rt.logger = log
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "env file loaded before reading the environment")
	root.AddCommand(newServeCmd(rt), newMigrateCmd(rt))
	return root
}
