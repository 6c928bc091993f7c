package metrics

import (
	"context"

	"github.com/osse101/RecipeForge_Go/internal/event"
	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all recipe events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.RecipeRegistered,
		event.RecipeUpdated,
		event.RecipeUnregistered,
		event.RecipesReloaded,
		event.RecipeCrafted,
		event.CraftLimitReached,
		event.WorldCleaned,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.RecipeRegistered:
		RecipesRegistered.Inc()

	case event.RecipeUnregistered:
		RecipesUnregistered.Inc()

	case event.RecipesReloaded:
		RecipesReloaded.Inc()

	case event.RecipeCrafted:
		payload, err := event.DecodePayload[event.RecipeCraftedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadUnexpected, "type", evt.Type, "error", err)
			EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
			return nil
		}
		CraftsRecorded.WithLabelValues(payload.Result).Inc()

	case event.CraftLimitReached:
		CraftLimitsReached.Inc()

	case event.WorldCleaned:
		WorldsCleaned.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
