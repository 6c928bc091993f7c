package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/storage/record"
)

// Store implements repository.Store for PostgreSQL. The full recipe is kept
// as a YAML definition; the other columns are for querying from outside.
type Store struct {
	db *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store that owns db; Close closes the pool
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// SaveRecipe upserts one recipe row
func (s *Store) SaveRecipe(ctx context.Context, r *domain.Recipe) error {
	def, err := record.MarshalRecipe(r)
	if err != nil {
		return fmt.Errorf(ErrMsgFailedToEncodeRecipe+": %w", r.ID(), err)
	}

	creator, _ := r.Creator()
	var createdAt *time.Time
	if t, ok := r.CreatedAt(); ok {
		utc := t.UTC()
		createdAt = &utc
	}

	_, err = s.db.Exec(ctx, SQLUpsertRecipe,
		r.ID(),
		string(r.Kind()),
		r.Result().Material,
		nullText(creator),
		nullText(r.Addon()),
		r.Limit().Max(),
		string(def),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf(ErrMsgFailedToSaveRecipe+": %w", r.ID(), err)
	}
	return nil
}

// LoadRecipe reads one recipe; domain.ErrRecipeNotFound when absent
func (s *Store) LoadRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	var def string
	err := s.db.QueryRow(ctx, SQLSelectRecipeDefinition, id).Scan(&def)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, id)
		}
		return nil, fmt.Errorf(ErrMsgFailedToLoadRecipe+": %w", id, err)
	}

	r, err := record.UnmarshalRecipe([]byte(def))
	if err != nil {
		return nil, fmt.Errorf(ErrMsgFailedToLoadRecipe+": %w", id, err)
	}
	return r, nil
}

// LoadAllRecipes reads every row, skipping definitions that no longer decode
func (s *Store) LoadAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.Query(ctx, SQLSelectAllRecipeDefinitions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadRecipes, err)
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		var id, def string
		if err := rows.Scan(&id, &def); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadRecipes, err)
		}
		r, err := record.UnmarshalRecipe([]byte(def))
		if err != nil {
			log.Warn(LogMsgSkippingCorruptRecipe, "recipe_id", id, "error", err)
			continue
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadRecipes, err)
	}
	return recipes, nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, SQLDeleteRecipe, id); err != nil {
		return fmt.Errorf(ErrMsgFailedToDeleteRecipe+": %w", id, err)
	}
	return nil
}

func (s *Store) RecipeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, SQLRecipeExists, id).Scan(&exists); err != nil {
		return false, fmt.Errorf(ErrMsgFailedToCheckRecipe+": %w", id, err)
	}
	return exists, nil
}

// SaveWorldCounts replaces the counters of one world in a single transaction.
// An advisory lock on the world keeps two service instances from interleaving
// their delete and insert phases.
func (s *Store) SaveWorldCounts(ctx context.Context, world string, counts repository.WorldCounts) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, SQLAdvisoryLock, hashWorld(world)); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToAcquireLock, err)
	}
	if _, err := tx.Exec(ctx, SQLDeleteWorldCounts, world); err != nil {
		return fmt.Errorf(ErrMsgFailedToSaveCounts+": %w", world, err)
	}

	if len(counts) > 0 {
		batch := &pgx.Batch{}
		for recipeID, n := range counts {
			batch.Queue(SQLInsertCraftCount, world, recipeID, n)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf(ErrMsgFailedToSaveCounts+": %w", world, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommitTransaction, err)
	}
	return nil
}

func (s *Store) LoadAllCounts(ctx context.Context) (map[string]repository.WorldCounts, error) {
	rows, err := s.db.Query(ctx, SQLSelectAllCraftCounts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadCounts, err)
	}
	defer rows.Close()

	all := make(map[string]repository.WorldCounts)
	for rows.Next() {
		var world, recipeID string
		var n int
		if err := rows.Scan(&world, &recipeID, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadCounts, err)
		}
		if all[world] == nil {
			all[world] = repository.WorldCounts{}
		}
		all[world][recipeID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToLoadCounts, err)
	}
	return all, nil
}

func (s *Store) DeleteWorldCounts(ctx context.Context, world string) error {
	if _, err := s.db.Exec(ctx, SQLDeleteWorldCounts, world); err != nil {
		return fmt.Errorf(ErrMsgFailedToDeleteCounts+": %w", world, err)
	}
	return nil
}

// Close closes the underlying pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// hashWorld creates a consistent int64 advisory lock key for a world
func hashWorld(world string) int64 {
	h := sha256.Sum256([]byte(CountsLockPrefix + world))
	// first 8 bytes, MSB masked so the key stays positive
	return int64(binary.BigEndian.Uint64(h[:8]) & HashMaskPositiveInt64)
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
