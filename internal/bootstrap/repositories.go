package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RecipeForge_Go/internal/config"
	"github.com/osse101/RecipeForge_Go/internal/database"
	"github.com/osse101/RecipeForge_Go/internal/database/postgres"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/storage/filestore"
)

// Storage is the opened persistence backend. Pool is nil for the file
// backend; the store owns it otherwise and closes it with Store.Close.
type Storage struct {
	Store repository.Store
	Pool  *pgxpool.Pool
}

// OpenStorage opens the backend selected by cfg.StorageBackend. The postgres
// backend is migrated to the latest schema before use.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendFile:
		store, err := filestore.New(cfg.RecipesDir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenFileStore, err)
		}
		slog.Info(LogMsgStorageOpened, "backend", cfg.StorageBackend, "dir", cfg.RecipesDir)
		return &Storage{Store: store}, nil

	case config.StorageBackendPostgres:
		pool, err := database.NewPool(ctx, cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDatabase, err)
		}
		version, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrateDatabase, err)
		}
		slog.Info(LogMsgMigrationsApplied, "version", version)
		slog.Info(LogMsgStorageOpened, "backend", cfg.StorageBackend, "host", cfg.DBHost, "db", cfg.DBName)
		return &Storage{Store: postgres.NewStore(pool), Pool: pool}, nil
	}
	return nil, fmt.Errorf("%s: %q", ErrMsgUnknownStorageBackend, cfg.StorageBackend)
}

// DBPool returns the pool for readiness checks, or nil when there is none
func (s *Storage) DBPool() database.Pool {
	if s.Pool == nil {
		return nil
	}
	return s.Pool
}
