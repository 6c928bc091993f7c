package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/concurrency"
	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/testing/leaktest"
)

var errDiskFull = errors.New("disk full")

// mockStore is a thread-safe in-memory repository.Store with error injection
type mockStore struct {
	mu       sync.Mutex
	recipes  map[string]*domain.Recipe
	counts   map[string]repository.WorldCounts
	failures map[string]int   // op -> remaining transient failures
	errs     map[string]error // op -> permanent error
	calls    []string
	delay    time.Duration
	closed   bool
}

func newMockStore() *mockStore {
	return &mockStore{
		recipes:  make(map[string]*domain.Recipe),
		counts:   make(map[string]repository.WorldCounts),
		failures: make(map[string]int),
		errs:     make(map[string]error),
	}
}

func (m *mockStore) begin(op, key string) error {
	m.mu.Lock()
	m.calls = append(m.calls, op+":"+key)
	delay := m.delay
	var err error
	if e, ok := m.errs[op]; ok {
		err = e
	} else if m.failures[op] > 0 {
		m.failures[op]--
		err = errDiskFull
	}
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (m *mockStore) callsFor(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if len(c) > len(op) && c[:len(op)+1] == op+":" {
			n++
		}
	}
	return n
}

func (m *mockStore) SaveRecipe(ctx context.Context, r *domain.Recipe) error {
	if err := m.begin(OpSaveRecipe, r.ID()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[r.ID()] = r
	return nil
}

func (m *mockStore) LoadRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	return r, nil
}

func (m *mockStore) LoadAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	if err := m.begin(OpLoadRecipes, ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) DeleteRecipe(ctx context.Context, id string) error {
	if err := m.begin(OpDeleteRecipe, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recipes, id)
	return nil
}

func (m *mockStore) RecipeExists(ctx context.Context, id string) (bool, error) {
	if err := m.begin(OpRecipeExists, id); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recipes[id]
	return ok, nil
}

func (m *mockStore) SaveWorldCounts(ctx context.Context, world string, counts repository.WorldCounts) error {
	if err := m.begin(OpSaveCounts, world); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[world] = counts
	return nil
}

func (m *mockStore) LoadAllCounts(ctx context.Context) (map[string]repository.WorldCounts, error) {
	if err := m.begin(OpLoadCounts, ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]repository.WorldCounts, len(m.counts))
	for w, c := range m.counts {
		out[w] = c
	}
	return out, nil
}

func (m *mockStore) DeleteWorldCounts(ctx context.Context, world string) error {
	if err := m.begin(OpDeleteCounts, world); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, world)
	return nil
}

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func testConfig() Config {
	return Config{Workers: 4, QueueSize: 16, MaxRetries: 3, RetryDelay: time.Millisecond}
}

func testRecipe(id string) *domain.Recipe {
	return domain.NewRecipe(domain.RecipeSpec{
		ID:          id,
		Result:      domain.NewItemStack("TORCH", 8),
		Kind:        domain.KindShapeless,
		Ingredients: []domain.ItemStack{domain.NewItemStack("COAL", 1), domain.NewItemStack("STICK", 1)},
	})
}

func newTestGateway(t *testing.T, store *mockStore) *Gateway {
	t.Helper()
	g := NewGateway(store, testConfig())
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func await[T any](t *testing.T, f *concurrency.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Await(ctx)
}

func TestGateway_SaveAndIsPersisted(t *testing.T) {
	store := newMockStore()
	g := newTestGateway(t, store)
	ctx := context.Background()

	saved, err := g.Save(ctx, testRecipe("torch-bundle"))
	require.NoError(t, err)
	exists, err := g.IsPersisted(ctx, "torch-bundle")
	require.NoError(t, err)

	ok, err := await[bool](t, saved)
	require.NoError(t, err)
	assert.True(t, ok)

	// queued behind the save on the same key, so it must see the record
	found, err := await[bool](t, exists)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGateway_RetriesTransientFailures(t *testing.T) {
	store := newMockStore()
	store.failures[OpSaveRecipe] = 2
	g := newTestGateway(t, store)

	f, err := g.Save(context.Background(), testRecipe("torch-bundle"))
	require.NoError(t, err)

	ok, err := await[bool](t, f)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, store.callsFor(OpSaveRecipe))
}

func TestGateway_ExhaustedRetriesSurfaceAsPersistenceError(t *testing.T) {
	store := newMockStore()
	store.errs[OpDeleteRecipe] = errDiskFull
	g := newTestGateway(t, store)

	f, err := g.Delete(context.Background(), "torch-bundle")
	require.NoError(t, err, "storage failures are reported through the future")

	ok, err := await[bool](t, f)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), OpDeleteRecipe)
	assert.Equal(t, testConfig().MaxRetries+1, store.callsFor(OpDeleteRecipe))
}

func TestGateway_InputErrorsAreNotRetried(t *testing.T) {
	store := newMockStore()
	store.errs[OpSaveRecipe] = fmt.Errorf("%w: bad file name", domain.ErrInvalidID)
	g := newTestGateway(t, store)

	f, err := g.Save(context.Background(), testRecipe("x"))
	require.NoError(t, err)

	_, err = await[bool](t, f)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	assert.Equal(t, 1, store.callsFor(OpSaveRecipe))
}

func TestGateway_SameKeyRunsInSubmissionOrder(t *testing.T) {
	store := newMockStore()
	store.delay = time.Millisecond
	g := newTestGateway(t, store)
	ctx := context.Background()

	var futures []*concurrency.Future[bool]
	for i := 0; i < 10; i++ {
		var f *concurrency.Future[bool]
		var err error
		if i%2 == 0 {
			f, err = g.Save(ctx, testRecipe("torch-bundle"))
		} else {
			f, err = g.Delete(ctx, "torch-bundle")
		}
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for _, f := range futures {
		_, err := await[bool](t, f)
		require.NoError(t, err)
	}

	store.mu.Lock()
	calls := append([]string(nil), store.calls...)
	store.mu.Unlock()

	require.Len(t, calls, 10)
	for i, c := range calls {
		if i%2 == 0 {
			assert.Equal(t, OpSaveRecipe+":torch-bundle", c, "call %d", i)
		} else {
			assert.Equal(t, OpDeleteRecipe+":torch-bundle", c, "call %d", i)
		}
	}

	exists, err := g.IsPersisted(ctx, "torch-bundle")
	require.NoError(t, err)
	found, err := await[bool](t, exists)
	require.NoError(t, err)
	assert.False(t, found, "last operation was a delete")
}

func TestGateway_CountsRoundTrip(t *testing.T) {
	store := newMockStore()
	g := newTestGateway(t, store)
	ctx := context.Background()

	f1, err := g.SaveCounts(ctx, "arena-1", repository.WorldCounts{"torch-bundle": 2})
	require.NoError(t, err)
	f2, err := g.SaveCounts(ctx, "arena-2", repository.WorldCounts{"torch-bundle": 1})
	require.NoError(t, err)
	_, err = await[bool](t, f1)
	require.NoError(t, err)
	_, err = await[bool](t, f2)
	require.NoError(t, err)

	del, err := g.DeleteCounts(ctx, "arena-2")
	require.NoError(t, err)
	_, err = await[bool](t, del)
	require.NoError(t, err)

	loaded, err := g.LoadCounts(ctx)
	require.NoError(t, err)
	all, err := await[map[string]repository.WorldCounts](t, loaded)
	require.NoError(t, err)
	assert.Equal(t, map[string]repository.WorldCounts{"arena-1": {"torch-bundle": 2}}, all)
}

func TestGateway_LoadAll(t *testing.T) {
	store := newMockStore()
	store.recipes["a"] = testRecipe("a")
	store.recipes["b"] = testRecipe("b")
	g := newTestGateway(t, store)

	f, err := g.LoadAll(context.Background())
	require.NoError(t, err)
	recipes, err := await[[]*domain.Recipe](t, f)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
}

func TestGateway_CallerCancellationDoesNotAbortWrite(t *testing.T) {
	store := newMockStore()
	store.delay = 20 * time.Millisecond
	g := newTestGateway(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	f, err := g.Save(ctx, testRecipe("torch-bundle"))
	require.NoError(t, err)
	cancel()

	ok, err := await[bool](t, f)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateway_CloseDrainsAndRejects(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)

	store := newMockStore()
	store.delay = 5 * time.Millisecond
	g := NewGateway(store, testConfig())
	ctx := context.Background()

	var pending []*concurrency.Future[bool]
	for i := 0; i < 8; i++ {
		f, err := g.Save(ctx, testRecipe(fmt.Sprintf("r%d", i%3)))
		require.NoError(t, err)
		pending = append(pending, f)
	}

	require.NoError(t, g.Close(ctx))
	for _, f := range pending {
		ok, err := await[bool](t, f)
		require.NoError(t, err)
		assert.True(t, ok, "queued work finishes before Close returns")
	}

	_, err := g.Save(ctx, testRecipe("late"))
	assert.ErrorIs(t, err, domain.ErrServiceClosed)
	assert.True(t, store.closed)
	assert.NoError(t, g.Close(ctx), "second Close is a no-op")

	checker.Check(2)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{MaxRetries: -1}.withDefaults()
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)

	assert.Equal(t, 0, Config{MaxRetries: 0}.withDefaults().MaxRetries, "zero disables retries")
}
