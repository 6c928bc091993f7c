package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osse101/RecipeForge_Go/internal/database"
	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/repository"
)

var testDBConnString string

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() {
		testDBConnString, terminate = setupContainer(context.Background())
	}

	code := m.Run()

	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupContainer(ctx context.Context) (string, func()) {
	// testcontainers panics when no docker daemon is reachable
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupContainer: %v\n", r)
		}
	}()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: Failed to start postgres container: %v\n", err)
		return "", func() {}
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		_ = pgContainer.Terminate(ctx)
		return "", func() {}
	}

	return connStr, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}
}

// newTestStore connects, migrates and empties both tables
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testDBConnString == "" {
		t.Skip("Skipping integration test: database not available")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, testDBConnString, 5, time.Minute, 5*time.Minute)
	require.NoError(t, err)

	_, err = database.Migrate(ctx, pool)
	require.NoError(t, err)
	truncate(t, pool)

	s := NewStore(pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE recipes, craft_counts")
	require.NoError(t, err)
}

func testRecipe(id string) *domain.Recipe {
	return domain.NewRecipe(domain.RecipeSpec{
		ID:          id,
		Result:      domain.NewItemStack("TORCH", 8).WithMeta("name", "Bundle of Torches"),
		Kind:        domain.KindShapeless,
		Ingredients: []domain.ItemStack{domain.NewItemStack("COAL", 4), domain.NewItemStack("STICK", 1)},
		Limit:       domain.Limited(2),
		Creator:     "Alex",
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC),
		CustomFields: map[string]any{
			domain.FieldAddon: "lighting",
			"weight":          1.5,
			"tags":            []any{"light", "starter"},
		},
	})
}

func TestStore_RecipeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	orig := testRecipe("torch-bundle")

	require.NoError(t, s.SaveRecipe(ctx, orig))

	got, err := s.LoadRecipe(ctx, "torch-bundle")
	require.NoError(t, err)
	assert.True(t, orig.Equal(got), "got %s", got)

	exists, err := s.RecipeExists(ctx, "torch-bundle")
	require.NoError(t, err)
	assert.True(t, exists)

	var addon string
	require.NoError(t, s.db.QueryRow(ctx, "SELECT addon FROM recipes WHERE recipe_id = $1", "torch-bundle").Scan(&addon))
	assert.Equal(t, "lighting", addon)
}

func TestStore_SaveRecipeUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecipe(ctx, testRecipe("torch-bundle")))

	spec := testRecipe("torch-bundle").Spec()
	spec.Limit = domain.OneTime()
	require.NoError(t, s.SaveRecipe(ctx, domain.NewRecipe(spec)))

	got, err := s.LoadRecipe(ctx, "torch-bundle")
	require.NoError(t, err)
	assert.True(t, got.IsOneTime())

	all, err := s.LoadAllRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_LoadMissingAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadRecipe(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	assert.NoError(t, s.DeleteRecipe(ctx, "nope"))

	require.NoError(t, s.SaveRecipe(ctx, testRecipe("gone")))
	require.NoError(t, s.DeleteRecipe(ctx, "gone"))
	exists, err := s.RecipeExists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_LoadAllSkipsCorruptRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecipe(ctx, testRecipe("good")))
	_, err := s.db.Exec(ctx, SQLUpsertRecipe, "bad", "SHAPELESS", "DIRT", nil, nil, -1, "type: [unclosed", nil)
	require.NoError(t, err)

	all, err := s.LoadAllRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].ID())
}

func TestStore_WorldCountsReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorldCounts(ctx, "arena-1", repository.WorldCounts{"torch-bundle": 2, "crown": 1}))
	require.NoError(t, s.SaveWorldCounts(ctx, "arena-2", repository.WorldCounts{"torch-bundle": 1}))
	require.NoError(t, s.SaveWorldCounts(ctx, "arena-1", repository.WorldCounts{"torch-bundle": 2}))

	all, err := s.LoadAllCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]repository.WorldCounts{
		"arena-1": {"torch-bundle": 2},
		"arena-2": {"torch-bundle": 1},
	}, all)

	require.NoError(t, s.DeleteWorldCounts(ctx, "arena-1"))
	all, err = s.LoadAllCounts(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "arena-1")
}

func TestStore_ConcurrentWorldSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, s.SaveWorldCounts(ctx, "arena-1", repository.WorldCounts{"torch-bundle": n}))
		}(i)
	}
	wg.Wait()

	all, err := s.LoadAllCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all["arena-1"], 1, "saves of one world must never interleave")
}

func TestHashWorld(t *testing.T) {
	assert.Equal(t, hashWorld("arena-1"), hashWorld("arena-1"))
	assert.NotEqual(t, hashWorld("arena-1"), hashWorld("arena-2"))
	assert.GreaterOrEqual(t, hashWorld("arena-1"), int64(0))
}
