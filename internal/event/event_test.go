package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	handled := false

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		if event.Type != eventType {
			t.Errorf("Expected event type %s, got %s", eventType, event.Type)
		}
		if event.Payload.(string) != "payload" {
			t.Errorf("Expected payload 'payload', got %v", event.Payload)
		}
		handled = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Version: "1.0",
		Type:    eventType,
		Payload: "payload",
	})

	if err != nil {
		t.Errorf("Publish returned error: %v", err)
	}

	if !handled {
		t.Error("Handler was not called")
	}
}

func TestMemoryBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")
	count := 0

	handler := func(ctx context.Context, event Event) error {
		count++
		return nil
	}

	bus.Subscribe(eventType, handler)
	bus.Subscribe(eventType, handler)

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType})
	if err != nil {
		t.Errorf("Publish returned error: %v", err)
	}

	if count != 2 {
		t.Errorf("Expected 2 handlers to be called, got %d", count)
	}
}

func TestMemoryBus_PublishError(t *testing.T) {
	bus := NewMemoryBus()
	eventType := Type("test_event")

	bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
		return errors.New("handler error")
	})

	err := bus.Publish(context.Background(), Event{Version: "1.0", Type: eventType})
	if err == nil {
		t.Error("Expected error from Publish, got nil")
	}
}

func TestRecipeEventConstructors(t *testing.T) {
	r := domain.NewRecipe(domain.RecipeSpec{
		ID:           "torch-bundle",
		Kind:         domain.KindShapeless,
		Result:       domain.NewItemStack("TORCH", 16),
		Limit:        domain.Limited(2),
		CustomFields: map[string]any{domain.FieldAddon: "lighting"},
	})
	player := uuid.New()

	reg := NewRecipeRegisteredEvent(r)
	assert.Equal(t, RecipeRegistered, reg.Type)
	assert.Equal(t, EventSchemaVersion, reg.Version)
	payload, err := DecodePayload[RecipePayloadV1](reg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "torch-bundle", payload.RecipeID)
	assert.Equal(t, "lighting", payload.Addon)
	assert.Equal(t, "LIMITED(2)", payload.Limit)

	crafted := NewRecipeCraftedEvent("arena-1", r, player, 1)
	cp, err := DecodePayload[RecipeCraftedPayloadV1](crafted.Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.Remaining)
	assert.Equal(t, player, cp.PlayerID)
	assert.Equal(t, "arena-1", crafted.GetMetadataValue("world"))
	assert.Nil(t, reg.GetMetadataValue("world"))

	limit := NewCraftLimitReachedEvent("arena-1", r)
	lp, err := DecodePayload[CraftLimitReachedPayloadV1](limit.Payload)
	require.NoError(t, err)
	assert.Equal(t, 2, lp.Limit)
}

func TestDecodePayload_FromMap(t *testing.T) {
	raw := map[string]interface{}{"world": "lobby", "counters": 7}
	p, err := DecodePayload[WorldCleanedPayloadV1](raw)
	require.NoError(t, err)
	assert.Equal(t, "lobby", p.World)
	assert.Equal(t, 7, p.Counters)
}
