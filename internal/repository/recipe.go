package repository

import (
	"context"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

// RecipeStore defines the interface for durable recipe definitions.
// One record per recipe id; every field must round-trip losslessly.
type RecipeStore interface {
	SaveRecipe(ctx context.Context, recipe *domain.Recipe) error
	// LoadRecipe returns domain.ErrRecipeNotFound when no record exists
	LoadRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	LoadAllRecipes(ctx context.Context) ([]*domain.Recipe, error)
	// DeleteRecipe is a no-op for unknown ids
	DeleteRecipe(ctx context.Context, id string) error
	RecipeExists(ctx context.Context, id string) (bool, error)
}

// WorldCounts maps recipe id to global craft count for one world
type WorldCounts map[string]int

// CraftCountStore defines the interface for persisted per-world craft counters
type CraftCountStore interface {
	// SaveWorldCounts replaces the stored counters of one world
	SaveWorldCounts(ctx context.Context, world string, counts WorldCounts) error
	LoadAllCounts(ctx context.Context) (map[string]WorldCounts, error)
	DeleteWorldCounts(ctx context.Context, world string) error
}

// Store is a backend providing both recipe and counter persistence
type Store interface {
	RecipeStore
	CraftCountStore
	Close() error
}
