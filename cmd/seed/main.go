package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/container"
	"github.com/zfogg/reelgraph/internal/database"
	"github.com/zfogg/reelgraph/internal/logger"
	"github.com/zfogg/reelgraph/internal/middleware"
	"github.com/zfogg/reelgraph/internal/seed"
	"go.uber.org/zap"
)

var (
	configDir string
	devOpts   = seed.DefaultDevOptions()
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Populate the reelgraph database",
	SilenceUsage: true,
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Seed the development database with realistic data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSeeder(cmd.Context(), func(ctx context.Context, s *seed.Seeder, cfg *config.Config, zl *zap.Logger) error {
			_, err := s.SeedDev(ctx, devOpts)
			return err
		})
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Seed a small fixed graph and print a token for each account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSeeder(cmd.Context(), func(ctx context.Context, s *seed.Seeder, cfg *config.Config, zl *zap.Logger) error {
			users, err := s.SeedTest(ctx)
			if err != nil {
				return err
			}
			for _, handle := range []string{"alice", "bob", "carol", "dave"} {
				account := users[handle]
				token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, account.ID, 30*24*time.Hour)
				if err != nil {
					return err
				}
				fmt.Printf("%-6s %s %s\n", handle, account.ID, token)
			}
			return nil
		})
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all data (use with caution)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSeeder(cmd.Context(), func(ctx context.Context, s *seed.Seeder, cfg *config.Config, zl *zap.Logger) error {
			if err := s.Clean(ctx); err != nil {
				return err
			}
			zl.Info("database cleaned")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing reelgraph.yaml")

	devCmd.Flags().IntVar(&devOpts.Accounts, "accounts", devOpts.Accounts, "Accounts to create")
	devCmd.Flags().Float64Var(&devOpts.PrivateRatio, "private-ratio", devOpts.PrivateRatio, "Share of accounts that are private")
	devCmd.Flags().IntVar(&devOpts.PostsPerAccount, "posts", devOpts.PostsPerAccount, "Average posts per account")
	devCmd.Flags().IntVar(&devOpts.Follows, "follows", devOpts.Follows, "Follow attempts")
	devCmd.Flags().IntVar(&devOpts.Likes, "likes", devOpts.Likes, "Like attempts")
	devCmd.Flags().IntVar(&devOpts.Comments, "comments", devOpts.Comments, "Comment attempts")
	devCmd.Flags().Uint64Var(&devOpts.Seed, "seed", 0, "Fixed random seed (0 for a fresh one)")

	rootCmd.AddCommand(devCmd, testCmd, cleanCmd)
}

func withSeeder(ctx context.Context, fn func(context.Context, *seed.Seeder, *config.Config, *zap.Logger) error) error {
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

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	services, err := container.New().SetDB(db).SetLogger(zl).Build(cfg.Feed)
	if err != nil {
		return err
	}
	return fn(ctx, seed.NewSeeder(db, services, zl.Named("seed")), cfg, zl)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
