package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/osse101/RecipeForge_Go/internal/config"
	"github.com/osse101/RecipeForge_Go/internal/database"
	"github.com/osse101/RecipeForge_Go/internal/database/postgres"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/storage/filestore"
)

var version = "dev"

var (
	backend     string
	dataDir     string
	databaseURL string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "recipectl",
	Short: "Inspect and maintain recipe bundles and storage",
	Long: `recipectl validates addon recipe bundles and works directly on the
recipe storage of a stopped service: importing bundles, listing and
exporting stored recipes, and showing persisted craft counts.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		level := logger.LogLevelWarn
		if verbose {
			level = logger.LogLevelDebug
		}
		logger.InitLoggerWithWriter(logger.NewConfig(level, logger.LogFormatText, "recipectl", version, "cli", false), os.Stderr)

		if !cmd.Flags().Changed("backend") {
			if v := os.Getenv("STORAGE_BACKEND"); v != "" {
				backend = v
			}
		}
		if !cmd.Flags().Changed("data-dir") {
			if v := os.Getenv("RECIPES_DIR"); v != "" {
				dataDir = v
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backend, "backend", config.StorageBackendFile,
		"storage backend: file or postgres (env STORAGE_BACKEND)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", config.DefaultRecipesDir,
		"file store root (env RECIPES_DIR)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "",
		"postgres connection string (default: built from DB_* variables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// openStore opens the selected backend. Postgres is migrated first so a
// fresh database can be imported into.
func openStore(ctx context.Context) (repository.Store, error) {
	switch backend {
	case config.StorageBackendFile:
		return filestore.New(dataDir)
	case config.StorageBackendPostgres:
		url := databaseURL
		if url == "" {
			cfg := &config.Config{
				DBUser:     envOr("DB_USER", "postgres"),
				DBPassword: envOr("DB_PASSWORD", "postgres"),
				DBHost:     envOr("DB_HOST", "localhost"),
				DBPort:     envOr("DB_PORT", "5432"),
				DBName:     envOr("DB_NAME", "recipeforge"),
			}
			url = cfg.GetDBConnString()
		}
		pool, err := database.NewPool(ctx, url, 4, time.Minute, 10*time.Minute)
		if err != nil {
			return nil, err
		}
		if _, err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool), nil
	}
	return nil, fmt.Errorf("unknown backend %q: expected %s or %s", backend, config.StorageBackendFile, config.StorageBackendPostgres)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
