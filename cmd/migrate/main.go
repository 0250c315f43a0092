package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/database"
	"github.com/zfogg/reelgraph/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the reelgraph database schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update every table and index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *gorm.DB, zl *zap.Logger) error {
			zl.Info("running migrations")
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			zl.Info("all migrations completed")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, db *gorm.DB, zl *zap.Logger) error {
			if err := database.Health(ctx, db); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			zl.Info("database reachable")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing reelgraph.yaml")
	rootCmd.AddCommand(upCmd, statusCmd)
}

func withDatabase(ctx context.Context, fn func(context.Context, *gorm.DB, *zap.Logger) error) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	zl, err := logger.Initialize(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	return fn(ctx, db, zl)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
