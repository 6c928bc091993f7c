package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/RecipeForge_Go/internal/concurrency"
	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/event"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/metrics"
	"github.com/osse101/RecipeForge_Go/internal/repository"
)

// PlayerLocator resolves the world a player is currently in
type PlayerLocator interface {
	CurrentWorld(ctx context.Context, playerID uuid.UUID) (string, bool)
}

// Gateway is the asynchronous storage surface used by the service.
// It is implemented by persistence.Gateway.
type Gateway interface {
	IsPersisted(ctx context.Context, id string) (*concurrency.Future[bool], error)
	Save(ctx context.Context, r *domain.Recipe) (*concurrency.Future[bool], error)
	Delete(ctx context.Context, id string) (*concurrency.Future[bool], error)
	LoadAll(ctx context.Context) (*concurrency.Future[[]*domain.Recipe], error)
	SaveCounts(ctx context.Context, world string, counts repository.WorldCounts) (*concurrency.Future[bool], error)
	LoadCounts(ctx context.Context) (*concurrency.Future[map[string]repository.WorldCounts], error)
	DeleteCounts(ctx context.Context, world string) (*concurrency.Future[bool], error)
	Close(ctx context.Context) error
}

// Service is the only entry point to the recipe registry and craft ledger.
//
// Synchronous methods touch memory only. Methods returning a future also
// write to storage; the future completes once storage has answered.
// Validation and duplicate-id errors are returned directly, storage errors
// only through the future, and in-memory changes are never rolled back.
type Service interface {
	RegisterRecipe(ctx context.Context, b *Builder) (*domain.Recipe, error)
	RegisterRecipeAsync(ctx context.Context, b *Builder) (*concurrency.Future[bool], error)
	RegisterRecipes(ctx context.Context, builders []*Builder) (int, error)
	RegisterRecipesAsync(ctx context.Context, builders []*Builder) (*concurrency.Future[int], error)
	UpdateRecipe(ctx context.Context, b *Builder) (*domain.Recipe, error)
	UpdateRecipeAsync(ctx context.Context, b *Builder) (*concurrency.Future[bool], error)
	UnregisterRecipe(ctx context.Context, id string) bool
	UnregisterRecipes(ctx context.Context, ids []string) int
	UnregisterRecipeAndDelete(ctx context.Context, id string) (*concurrency.Future[bool], error)
	UnregisterRecipesAndDelete(ctx context.Context, ids []string) (*concurrency.Future[int], error)

	GetRecipe(id string) (*domain.Recipe, bool)
	GetAllRecipes() []*domain.Recipe
	RecipeExists(id string) bool
	RecipeCount() int
	RecipeIDs() []string
	FindRecipesByResult(result domain.ItemStack) []*domain.Recipe
	FindRecipesByCreator(name string) []*domain.Recipe
	GetOneTimeRecipes() []*domain.Recipe
	GetLimitedRecipes() []*domain.Recipe
	GetRecipesByAddon(addon string) []*domain.Recipe

	CanPlayerCraft(ctx context.Context, playerID uuid.UUID, recipeID string) bool
	CanCraftInWorld(world, recipeID string) bool
	RecordCraft(ctx context.Context, world, recipeID string, playerID uuid.UUID) (bool, error)
	RecordPlayerCraft(ctx context.Context, playerID uuid.UUID, recipeID string) (bool, error)
	RecordCraftOutcome(ctx context.Context, world, recipeID string, playerID uuid.UUID) (CraftOutcome, error)
	RecordPlayerCraftOutcome(ctx context.Context, playerID uuid.UUID, recipeID string) (CraftOutcome, error)
	GetPlayerCraftCount(playerID uuid.UUID, recipeID string) int
	GetGlobalCraftCount(world, recipeID string) int
	GetRemainingCrafts(ctx context.Context, playerID uuid.UUID, recipeID string) int
	GetRemainingCraftsInWorld(world, recipeID string) int
	HasPlayerEverCrafted(playerID uuid.UUID, recipeID string) bool

	IsRecipePersisted(ctx context.Context, id string) (*concurrency.Future[bool], error)
	SaveRecipe(ctx context.Context, id string) (*concurrency.Future[bool], error)
	ReloadRecipes(ctx context.Context) (*concurrency.Future[int], error)
	FlushCraftCounts(ctx context.Context) (*concurrency.Future[int], error)

	CleanupWorld(ctx context.Context, world string) int
	CleanupPlayer(ctx context.Context, playerID uuid.UUID) int
	PruneCraftCounts(ctx context.Context, recipeID string) int

	CreateBuilder(id string) (*Builder, error)
	IsAvailable() bool
	Start(ctx context.Context) error
	Close(ctx context.Context) error
}

type service struct {
	registry    *Registry
	ledger      *Ledger
	gateway     Gateway
	players     PlayerLocator
	bus         event.Bus
	lockManager *concurrency.LockManager
	now         func() time.Time
	closed      atomic.Bool
}

// NewService creates a recipe service. players and bus may be nil: every
// player is then unresolvable and no events are published.
func NewService(gateway Gateway, players PlayerLocator, bus event.Bus, lockManager *concurrency.LockManager) Service {
	if lockManager == nil {
		lockManager = concurrency.NewLockManager()
	}
	return &service{
		registry:    NewRegistry(),
		ledger:      NewLedger(),
		gateway:     gateway,
		players:     players,
		bus:         bus,
		lockManager: lockManager,
		now:         time.Now,
	}
}

// normalizeID maps caller input onto the stored lowercase form
func normalizeID(id string) string {
	return lower.String(strings.TrimSpace(id))
}

func (s *service) checkOpen() error {
	if s.closed.Load() {
		return domain.ErrServiceClosed
	}
	return nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "event_type", evt.Type, "error", err)
	}
}

// watch logs a failed storage future and passes its result through
func (s *service) watch(ctx context.Context, op, key string, f *concurrency.Future[bool]) *concurrency.Future[bool] {
	ctx = context.WithoutCancel(ctx)
	return concurrency.Then(f, func(ok bool, err error) (bool, error) {
		if err != nil {
			logger.FromContext(ctx).Error(LogMsgPersistenceFailed, "operation", op, "key", key, "error", err)
		}
		return ok, err
	})
}

func (s *service) save(ctx context.Context, r *domain.Recipe) *concurrency.Future[bool] {
	f, err := s.gateway.Save(ctx, r)
	if err != nil {
		return concurrency.Resolved(false, err)
	}
	return s.watch(ctx, "save", r.ID(), f)
}

// ============================================================================
// Registration
// ============================================================================

func (s *service) RegisterRecipe(ctx context.Context, b *Builder) (*domain.Recipe, error) {
	r, _, err := s.register(ctx, b, false)
	return r, err
}

func (s *service) RegisterRecipeAsync(ctx context.Context, b *Builder) (*concurrency.Future[bool], error) {
	_, f, err := s.register(ctx, b, true)
	return f, err
}

// register is the single registration path. The storage write is queued
// while the id lock is held so storage sees changes of one id in order.
func (s *service) register(ctx context.Context, b *Builder, persist bool) (*domain.Recipe, *concurrency.Future[bool], error) {
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, fmt.Errorf("%w: nil builder", domain.ErrInvalidInput)
	}
	log := logger.FromContext(ctx)

	c := b.Copy()
	if c.CreatedAt().IsZero() {
		c.SetCreatedAt(s.now())
	}
	r, err := c.Build()
	if err != nil {
		log.Warn(LogMsgRecipeRejected, "recipe_id", b.ID(), "error", err)
		return nil, nil, err
	}

	unlock := s.lockManager.Lock(LockPrefixRecipe + r.ID())
	defer unlock()

	if err := s.registry.Register(r); err != nil {
		log.Warn(LogMsgRecipeRejected, "recipe_id", r.ID(), "error", err)
		return nil, nil, err
	}
	log.Info(LogMsgRecipeRegistered, "recipe_id", r.ID(), "kind", r.Kind(), "limit", r.Limit().String())
	s.publish(ctx, event.NewRecipeRegisteredEvent(r))

	if !persist {
		return r, nil, nil
	}
	return r, s.save(ctx, r), nil
}

// RegisterRecipes registers each builder in turn. It returns the number
// registered and the joined errors of the rest.
func (s *service) RegisterRecipes(ctx context.Context, builders []*Builder) (int, error) {
	n := 0
	var errs []error
	for _, b := range builders {
		if _, err := s.RegisterRecipe(ctx, b); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// RegisterRecipesAsync registers and saves each builder. The future holds
// the number both registered and saved.
func (s *service) RegisterRecipesAsync(ctx context.Context, builders []*Builder) (*concurrency.Future[int], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var errs []error
	futures := make([]*concurrency.Future[bool], 0, len(builders))
	for _, b := range builders {
		_, f, err := s.register(ctx, b, true)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		futures = append(futures, f)
	}
	return concurrency.Then(concurrency.All(futures...), func(results []bool, err error) (int, error) {
		return countTrue(results), errors.Join(append(errs, err)...)
	}), nil
}

func (s *service) UpdateRecipe(ctx context.Context, b *Builder) (*domain.Recipe, error) {
	r, _, err := s.update(ctx, b, false)
	return r, err
}

func (s *service) UpdateRecipeAsync(ctx context.Context, b *Builder) (*concurrency.Future[bool], error) {
	_, f, err := s.update(ctx, b, true)
	return f, err
}

// update replaces a registered recipe. Craft counts belong to the id and
// are left alone. A builder without a creation time keeps the old one.
func (s *service) update(ctx context.Context, b *Builder, persist bool) (*domain.Recipe, *concurrency.Future[bool], error) {
	if err := s.checkOpen(); err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, fmt.Errorf("%w: nil builder", domain.ErrInvalidInput)
	}
	log := logger.FromContext(ctx)

	if err := b.Validate(); err != nil {
		log.Warn(LogMsgRecipeRejected, "recipe_id", b.ID(), "error", err)
		return nil, nil, err
	}

	unlock := s.lockManager.Lock(LockPrefixRecipe + b.ID())
	defer unlock()

	old, ok := s.registry.Get(b.ID())
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, b.ID())
	}

	c := b.Copy()
	if c.CreatedAt().IsZero() {
		if t, ok := old.CreatedAt(); ok {
			c.SetCreatedAt(t)
		} else {
			c.SetCreatedAt(s.now())
		}
	}
	r, err := c.Build()
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.registry.Update(r); err != nil {
		return nil, nil, err
	}
	log.Info(LogMsgRecipeUpdated, "recipe_id", r.ID(), "limit", r.Limit().String())
	s.publish(ctx, event.NewRecipeUpdatedEvent(r))

	if !persist {
		return r, nil, nil
	}
	return r, s.save(ctx, r), nil
}

// UnregisterRecipe removes a recipe from memory; storage and craft counts
// are untouched
func (s *service) UnregisterRecipe(ctx context.Context, id string) bool {
	id = normalizeID(id)
	unlock := s.lockManager.Lock(LockPrefixRecipe + id)
	defer unlock()
	return s.unregisterLocked(ctx, id)
}

func (s *service) unregisterLocked(ctx context.Context, id string) bool {
	if _, ok := s.registry.Unregister(id); !ok {
		return false
	}
	logger.FromContext(ctx).Info(LogMsgRecipeUnregistered, "recipe_id", id)
	s.publish(ctx, event.NewRecipeUnregisteredEvent(id))
	return true
}

func (s *service) UnregisterRecipes(ctx context.Context, ids []string) int {
	n := 0
	for _, id := range ids {
		if s.UnregisterRecipe(ctx, id) {
			n++
		}
	}
	return n
}

// UnregisterRecipeAndDelete removes the recipe from memory and storage. The
// future holds true only if it was registered and the delete succeeded; the
// recipe stays unregistered either way.
func (s *service) UnregisterRecipeAndDelete(ctx context.Context, id string) (*concurrency.Future[bool], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	id = normalizeID(id)
	unlock := s.lockManager.Lock(LockPrefixRecipe + id)
	defer unlock()

	found := s.unregisterLocked(ctx, id)

	f, err := s.gateway.Delete(ctx, id)
	if err != nil {
		return concurrency.Resolved(false, fmt.Errorf(ErrMsgDeleteIncomplete, id, err)), nil
	}
	return concurrency.Then(s.watch(ctx, "delete", id, f), func(_ bool, err error) (bool, error) {
		if err != nil {
			return false, fmt.Errorf(ErrMsgDeleteIncomplete, id, err)
		}
		if !found {
			return false, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, id)
		}
		return true, nil
	}), nil
}

func (s *service) UnregisterRecipesAndDelete(ctx context.Context, ids []string) (*concurrency.Future[int], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	futures := make([]*concurrency.Future[bool], 0, len(ids))
	for _, id := range ids {
		f, err := s.UnregisterRecipeAndDelete(ctx, id)
		if err != nil {
			f = concurrency.Resolved(false, err)
		}
		futures = append(futures, f)
	}
	return concurrency.Then(concurrency.All(futures...), func(results []bool, err error) (int, error) {
		return countTrue(results), err
	}), nil
}

// ============================================================================
// Queries
// ============================================================================

func (s *service) GetRecipe(id string) (*domain.Recipe, bool) {
	return s.registry.Get(normalizeID(id))
}

func (s *service) GetAllRecipes() []*domain.Recipe { return s.registry.All() }
func (s *service) RecipeExists(id string) bool      { return s.registry.Exists(normalizeID(id)) }
func (s *service) RecipeCount() int                 { return s.registry.Count() }
func (s *service) RecipeIDs() []string              { return s.registry.IDs() }

func (s *service) FindRecipesByResult(result domain.ItemStack) []*domain.Recipe {
	return s.registry.FindByResult(result)
}

func (s *service) FindRecipesByCreator(name string) []*domain.Recipe {
	return s.registry.FindByCreator(name)
}

func (s *service) GetOneTimeRecipes() []*domain.Recipe { return s.registry.OneTime() }
func (s *service) GetLimitedRecipes() []*domain.Recipe { return s.registry.Limited() }

func (s *service) GetRecipesByAddon(addon string) []*domain.Recipe {
	return s.registry.ByAddon(addon)
}

// ============================================================================
// Craft limits
// ============================================================================

func (s *service) resolveWorld(ctx context.Context, playerID uuid.UUID) (string, bool) {
	if s.players == nil {
		return "", false
	}
	world, ok := s.players.CurrentWorld(ctx, playerID)
	if !ok {
		logger.FromContext(ctx).Debug(LogMsgPlayerUnresolved, "player_id", playerID)
	}
	return world, ok
}

// CanCraftInWorld is false for unknown recipes
func (s *service) CanCraftInWorld(world, recipeID string) bool {
	r, ok := s.registry.Get(normalizeID(recipeID))
	if !ok {
		return false
	}
	return s.ledger.CanCraft(world, r.ID(), r.Limit())
}

// CanPlayerCraft checks the limit in the player's current world; false
// when the player cannot be resolved
func (s *service) CanPlayerCraft(ctx context.Context, playerID uuid.UUID, recipeID string) bool {
	world, ok := s.resolveWorld(ctx, playerID)
	if !ok {
		return false
	}
	return s.CanCraftInWorld(world, recipeID)
}

// CraftOutcome is the result of one craft attempt. Count and Remaining are
// read under the same ledger lock as the decision; Remaining is -1 for
// unlimited recipes.
type CraftOutcome struct {
	World     string
	Allowed   bool
	Count     int
	Remaining int
}

// RecordCraft counts one craft of recipeID in world if the limit allows.
// It is called once per successful craft by the crafting engine.
func (s *service) RecordCraft(ctx context.Context, world, recipeID string, playerID uuid.UUID) (bool, error) {
	out, err := s.RecordCraftOutcome(ctx, world, recipeID, playerID)
	return out.Allowed, err
}

func (s *service) RecordCraftOutcome(ctx context.Context, world, recipeID string, playerID uuid.UUID) (CraftOutcome, error) {
	out := CraftOutcome{World: world}
	if err := s.checkOpen(); err != nil {
		return out, err
	}
	r, ok := s.registry.Get(normalizeID(recipeID))
	if !ok {
		return out, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, recipeID)
	}
	log := logger.FromContext(ctx)

	accepted, count := s.ledger.RecordCraft(world, r.ID(), playerID, r.Limit())
	out.Allowed, out.Count, out.Remaining = accepted, count, r.Limit().Remaining(count)
	if !accepted {
		metrics.CraftsRejected.Inc()
		log.Info(LogMsgCraftRejected, "world", world, "recipe_id", r.ID(), "player_id", playerID, "count", count)
		return out, nil
	}

	log.Debug(LogMsgCraftRecorded, "world", world, "recipe_id", r.ID(), "player_id", playerID, "count", count)
	s.publish(ctx, event.NewRecipeCraftedEvent(world, r, playerID, count))
	if !r.Limit().Allows(count) {
		s.publish(ctx, event.NewCraftLimitReachedEvent(world, r))
		// An exhausted limit must survive a crash before the next periodic
		// flush. A failed save leaves the world dirty for that flush.
		s.flushWorld(context.WithoutCancel(ctx), world)
	}
	return out, nil
}

// RecordPlayerCraft records a craft in the player's current world
func (s *service) RecordPlayerCraft(ctx context.Context, playerID uuid.UUID, recipeID string) (bool, error) {
	out, err := s.RecordPlayerCraftOutcome(ctx, playerID, recipeID)
	return out.Allowed, err
}

// RecordPlayerCraftOutcome resolves the player's world once and reports it
// in the outcome.
func (s *service) RecordPlayerCraftOutcome(ctx context.Context, playerID uuid.UUID, recipeID string) (CraftOutcome, error) {
	world, ok := s.resolveWorld(ctx, playerID)
	if !ok {
		return CraftOutcome{}, fmt.Errorf("%w: %s", domain.ErrPlayerOffline, playerID)
	}
	return s.RecordCraftOutcome(ctx, world, recipeID, playerID)
}

func (s *service) GetPlayerCraftCount(playerID uuid.UUID, recipeID string) int {
	return s.ledger.PlayerCount(playerID, normalizeID(recipeID))
}

func (s *service) GetGlobalCraftCount(world, recipeID string) int {
	return s.ledger.GlobalCount(world, normalizeID(recipeID))
}

// GetRemainingCrafts is -1 for unresolvable players and unlimited recipes
func (s *service) GetRemainingCrafts(ctx context.Context, playerID uuid.UUID, recipeID string) int {
	world, ok := s.resolveWorld(ctx, playerID)
	if !ok {
		return UnlimitedCrafts
	}
	return s.GetRemainingCraftsInWorld(world, recipeID)
}

// GetRemainingCraftsInWorld is -1 for unlimited recipes and 0 for unknown ones
func (s *service) GetRemainingCraftsInWorld(world, recipeID string) int {
	r, ok := s.registry.Get(normalizeID(recipeID))
	if !ok {
		return 0
	}
	return s.ledger.Remaining(world, r.ID(), r.Limit())
}

func (s *service) HasPlayerEverCrafted(playerID uuid.UUID, recipeID string) bool {
	return s.ledger.HasEverCrafted(playerID, normalizeID(recipeID))
}

// ============================================================================
// Persistence
// ============================================================================

func (s *service) IsRecipePersisted(ctx context.Context, id string) (*concurrency.Future[bool], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.gateway.IsPersisted(ctx, normalizeID(id))
}

// SaveRecipe writes the registered version of id to storage
func (s *service) SaveRecipe(ctx context.Context, id string) (*concurrency.Future[bool], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	id = normalizeID(id)
	unlock := s.lockManager.Lock(LockPrefixRecipe + id)
	defer unlock()

	r, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, id)
	}
	return s.save(ctx, r), nil
}

// ReloadRecipes rebuilds the registry from storage. Stored recipes that no
// longer pass validation are skipped. Craft counts are kept: they belong to
// recipe ids, not to a particular definition.
func (s *service) ReloadRecipes(ctx context.Context) (*concurrency.Future[int], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	f, err := s.gateway.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	return concurrency.Then(f, func(stored []*domain.Recipe, err error) (int, error) {
		if err != nil {
			return 0, fmt.Errorf(ErrMsgLoadRecipesFailed, err)
		}
		valid := s.revalidate(ctx, stored)
		s.registry.ReplaceAll(valid)
		logger.FromContext(ctx).Info(LogMsgRecipesReloaded, "count", len(valid), "skipped", len(stored)-len(valid))
		s.publish(ctx, event.NewRecipesReloadedEvent(len(valid)))
		return len(valid), nil
	}), nil
}

func (s *service) revalidate(ctx context.Context, stored []*domain.Recipe) []*domain.Recipe {
	valid := make([]*domain.Recipe, 0, len(stored))
	for _, r := range stored {
		b, err := FromSpec(r.Spec())
		var rebuilt *domain.Recipe
		if err == nil {
			rebuilt, err = b.Build()
		}
		if err != nil {
			logger.FromContext(ctx).Warn(LogMsgSkippingInvalidRecipe, "recipe_id", r.ID(), "error", err)
			continue
		}
		valid = append(valid, rebuilt)
	}
	return valid
}

// FlushCraftCounts saves the counters of every world changed since the last
// flush. The future holds the number of worlds saved. Worlds whose save
// fails are flushed again next time.
func (s *service) FlushCraftCounts(ctx context.Context) (*concurrency.Future[int], error) {
	worlds := s.ledger.TakeDirty()
	futures := make([]*concurrency.Future[bool], 0, len(worlds))
	for _, w := range worlds {
		futures = append(futures, s.flushWorld(ctx, w))
	}

	ctx = context.WithoutCancel(ctx)
	return concurrency.Then(concurrency.All(futures...), func(results []bool, err error) (int, error) {
		n := countTrue(results)
		if n > 0 {
			logger.FromContext(ctx).Debug(LogMsgCountsFlushed, "worlds", n)
		}
		return n, err
	}), nil
}

// flushWorld snapshots and queues the save under the world lock, so a
// concurrent CleanupWorld is ordered before or after it in storage too
func (s *service) flushWorld(ctx context.Context, world string) *concurrency.Future[bool] {
	unlock := s.lockManager.Lock(LockPrefixWorld + world)
	defer unlock()

	counts := s.ledger.Snapshot(world)
	var f *concurrency.Future[bool]
	var err error
	if len(counts) == 0 {
		f, err = s.gateway.DeleteCounts(ctx, world)
	} else {
		f, err = s.gateway.SaveCounts(ctx, world, counts)
	}
	if err != nil {
		s.ledger.MarkDirty(world)
		return concurrency.Resolved(false, err)
	}
	return concurrency.Then(s.watch(ctx, "save_counts", world, f), func(ok bool, err error) (bool, error) {
		if err != nil {
			s.ledger.MarkDirty(world)
		}
		return ok, err
	})
}

// ============================================================================
// Cleanup
// ============================================================================

// CleanupWorld drops every counter of world, in memory and in storage. The
// world lifecycle manager calls it before a world copy is destroyed.
func (s *service) CleanupWorld(ctx context.Context, world string) int {
	unlock := s.lockManager.Lock(LockPrefixWorld + world)
	defer unlock()

	n := s.ledger.CleanupWorld(world)
	if f, err := s.gateway.DeleteCounts(ctx, world); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPersistenceFailed, "operation", "delete_counts", "key", world, "error", err)
	} else {
		s.watch(ctx, "delete_counts", world, f)
	}

	logger.FromContext(ctx).Info(LogMsgWorldCleaned, "world", world, "counters", n)
	s.publish(ctx, event.NewWorldCleanedEvent(world, n))
	return n
}

// CleanupPlayer drops the informational counts of a player
func (s *service) CleanupPlayer(ctx context.Context, playerID uuid.UUID) int {
	n := s.ledger.CleanupPlayer(playerID)
	logger.FromContext(ctx).Debug(LogMsgPlayerCleaned, "player_id", playerID, "recipes", n)
	return n
}

// PruneCraftCounts drops the counters of a recipe in every world. The
// affected worlds are saved on the next flush.
func (s *service) PruneCraftCounts(ctx context.Context, recipeID string) int {
	worlds := s.ledger.PruneRecipe(normalizeID(recipeID))
	logger.FromContext(ctx).Info(LogMsgCraftCountsPruned, "recipe_id", recipeID, "worlds", len(worlds))
	return len(worlds)
}

// ============================================================================
// Lifecycle
// ============================================================================

// CreateBuilder returns a new builder, with its id set when id is not empty
func (s *service) CreateBuilder(id string) (*Builder, error) {
	b := NewBuilder()
	if id == "" {
		return b, nil
	}
	if err := b.SetID(id); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) IsAvailable() bool {
	return !s.closed.Load()
}

// Start loads recipes and craft counts from storage
func (s *service) Start(ctx context.Context) error {
	reload, err := s.ReloadRecipes(ctx)
	if err != nil {
		return err
	}
	n, err := reload.Await(ctx)
	if err != nil {
		return err
	}

	loaded, err := s.gateway.LoadCounts(ctx)
	if err != nil {
		return fmt.Errorf(ErrMsgLoadCountsFailed, err)
	}
	counts, err := loaded.Await(ctx)
	if err != nil {
		return fmt.Errorf(ErrMsgLoadCountsFailed, err)
	}
	for world, c := range counts {
		s.ledger.Restore(world, c)
	}

	logger.FromContext(ctx).Info(LogMsgServiceStarted, "recipes", n, "worlds", len(counts))
	return nil
}

// Close rejects further changes, flushes craft counts and closes the gateway
func (s *service) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	logger.FromContext(ctx).Info(LogMsgServiceClosing)

	var errs []error
	if f, err := s.FlushCraftCounts(ctx); err != nil {
		errs = append(errs, err)
	} else if _, err := f.Await(ctx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.gateway.Close(ctx))
	return errors.Join(errs...)
}

func countTrue(results []bool) int {
	n := 0
	for _, ok := range results {
		if ok {
			n++
		}
	}
	return n
}
