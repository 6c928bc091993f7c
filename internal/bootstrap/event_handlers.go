package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/RecipeForge_Go/internal/event"
	"github.com/osse101/RecipeForge_Go/internal/metrics"
	"github.com/osse101/RecipeForge_Go/internal/sse"
)

// RegisterEventHandlers subscribes the event-driven metrics collector
func RegisterEventHandlers(bus event.Bus) error {
	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(bus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)
	return nil
}

// StartEventStream starts an SSE hub fed from the bus. The caller stops the
// hub during shutdown.
func StartEventStream(bus event.Bus) *sse.Hub {
	hub := sse.NewHub()
	hub.Start()
	sse.NewSubscriber(hub, bus).Subscribe()
	slog.Info(LogMsgEventStreamStarted)
	return hub
}
