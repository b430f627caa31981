// Package main implements the todo-api server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Paul-frank/todo-tracker-api/internal/config"
	"github.com/Paul-frank/todo-tracker-api/internal/database"
	"github.com/Paul-frank/todo-tracker-api/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "todo-api",
		Short:         "Todo tracker HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath, cmd.ErrOrStderr())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the todo table and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), configPath, cmd.ErrOrStderr())
			},
		},
	)
	return root
}

// setup lädt die Konfiguration und baut den Logger
func setup(configPath string, logOutput io.Writer) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(logOutput, cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (database.Store, error) {
	store, err := database.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Driver, err)
	}
	return store, nil
}

func runMigrate(ctx context.Context, configPath string, logOutput io.Writer) error {
	cfg, logger, err := setup(configPath, logOutput)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Error("migration failed", "err", err)
		return err
	}
	defer store.Close()

	logger.Info("schema up to date", "driver", cfg.Database.Driver)
	return nil
}
