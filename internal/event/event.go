package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Recipe event types
const (
	RecipeRegistered   Type = domain.EventTypeRecipeRegistered
	RecipeUpdated      Type = domain.EventTypeRecipeUpdated
	RecipeUnregistered Type = domain.EventTypeRecipeUnregistered
	RecipesReloaded    Type = domain.EventTypeRecipesReloaded
	RecipeCrafted      Type = domain.EventTypeRecipeCrafted
	CraftLimitReached  Type = domain.EventTypeCraftLimitReached
	WorldCleaned       Type = domain.EventTypeWorldCleaned
)

// Typed event payloads for type safety

// RecipePayloadV1 describes a registry change
type RecipePayloadV1 struct {
	RecipeID  string `json:"recipe_id"`
	Kind      string `json:"kind,omitempty"`
	Result    string `json:"result,omitempty"`
	Addon     string `json:"addon,omitempty"`
	Limit     string `json:"limit,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RecipesReloadedPayloadV1 is the typed payload for registry reloads
type RecipesReloadedPayloadV1 struct {
	Count     int   `json:"count"`
	Timestamp int64 `json:"timestamp"`
}

// RecipeCraftedPayloadV1 is the typed payload for accepted crafts
type RecipeCraftedPayloadV1 struct {
	World       string    `json:"world"`
	RecipeID    string    `json:"recipe_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Result      string    `json:"result"`
	GlobalCount int       `json:"global_count"`
	Remaining   int       `json:"remaining"` // -1 when unlimited
	Timestamp   int64     `json:"timestamp"`
}

// CraftLimitReachedPayloadV1 is published alongside the craft that exhausted a limit
type CraftLimitReachedPayloadV1 struct {
	World     string `json:"world"`
	RecipeID  string `json:"recipe_id"`
	Limit     int    `json:"limit"`
	Timestamp int64  `json:"timestamp"`
}

// WorldCleanedPayloadV1 is the typed payload for world cleanup
type WorldCleanedPayloadV1 struct {
	World     string `json:"world"`
	Counters  int    `json:"counters"`
	Timestamp int64  `json:"timestamp"`
}

// Type-safe event constructors

func newRecipeEvent(t Type, r *domain.Recipe) Event {
	result := r.Result()
	return Event{
		Version: EventSchemaVersion,
		Type:    t,
		Payload: RecipePayloadV1{
			RecipeID:  r.ID(),
			Kind:      string(r.Kind()),
			Result:    result.Material,
			Addon:     r.Addon(),
			Limit:     r.Limit().String(),
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewRecipeRegisteredEvent creates a recipe registered event
func NewRecipeRegisteredEvent(r *domain.Recipe) Event {
	return newRecipeEvent(RecipeRegistered, r)
}

// NewRecipeUpdatedEvent creates a recipe updated event
func NewRecipeUpdatedEvent(r *domain.Recipe) Event {
	return newRecipeEvent(RecipeUpdated, r)
}

// NewRecipeUnregisteredEvent creates a recipe unregistered event
func NewRecipeUnregisteredEvent(id string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RecipeUnregistered,
		Payload: RecipePayloadV1{RecipeID: id, Timestamp: time.Now().Unix()},
	}
}

// NewRecipesReloadedEvent creates a registry reloaded event
func NewRecipesReloadedEvent(count int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RecipesReloaded,
		Payload: RecipesReloadedPayloadV1{Count: count, Timestamp: time.Now().Unix()},
	}
}

// NewRecipeCraftedEvent creates a recipe crafted event
func NewRecipeCraftedEvent(world string, r *domain.Recipe, player uuid.UUID, globalCount int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    RecipeCrafted,
		Payload: RecipeCraftedPayloadV1{
			World:       world,
			RecipeID:    r.ID(),
			PlayerID:    player,
			Result:      r.Result().Material,
			GlobalCount: globalCount,
			Remaining:   r.Limit().Remaining(globalCount),
			Timestamp:   time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			"world": world,
		},
	}
}

// NewCraftLimitReachedEvent creates a craft limit reached event
func NewCraftLimitReachedEvent(world string, r *domain.Recipe) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    CraftLimitReached,
		Payload: CraftLimitReachedPayloadV1{
			World:     world,
			RecipeID:  r.ID(),
			Limit:     r.Limit().Max(),
			Timestamp: time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			"world": world,
		},
	}
}

// NewWorldCleanedEvent creates a world cleaned event
func NewWorldCleanedEvent(world string, counters int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    WorldCleaned,
		Payload: WorldCleanedPayloadV1{
			World:     world,
			Counters:  counters,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers.
// Handlers run synchronously on the caller's goroutine.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
