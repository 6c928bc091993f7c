package sse

import (
	"context"
	"log/slog"

	"github.com/osse101/RecipeForge_Go/internal/event"
)

// StreamedEvents are the bus events forwarded to SSE clients
var StreamedEvents = []event.Type{
	event.RecipeRegistered,
	event.RecipeUpdated,
	event.RecipeUnregistered,
	event.RecipesReloaded,
	event.RecipeCrafted,
	event.CraftLimitReached,
	event.WorldCleaned,
}

// Subscriber bridges the internal event bus to the SSE hub
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers the forwarding handler for every streamed event type
func (s *Subscriber) Subscribe() {
	types := make([]string, len(StreamedEvents))
	for i, t := range StreamedEvents {
		s.bus.Subscribe(t, s.forward)
		types[i] = string(t)
	}
	slog.Info(LogMsgSubscribed, "types", types)
}

// forward passes the typed bus payload through unchanged; payloads are
// already JSON shaped.
func (s *Subscriber) forward(_ context.Context, evt event.Event) error {
	s.hub.Broadcast(string(evt.Type), evt.Payload)
	slog.Debug(LogMsgEventBroadcast, "event_type", evt.Type)
	return nil
}
