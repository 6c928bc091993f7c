package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/RecipeForge_Go/internal/recipe"
	"github.com/osse101/RecipeForge_Go/internal/server"
	"github.com/osse101/RecipeForge_Go/internal/sse"
	"github.com/osse101/RecipeForge_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil fields are skipped.
type ShutdownComponents struct {
	Server        *server.Server
	EventStream   *sse.Hub
	FlushWorker   *worker.FlushWorker
	RecipeService recipe.Service
	Events        *EventSystem
}

// GracefulShutdown stops the application in order:
// 1. Event stream hub (ends open SSE responses so the server can drain)
// 2. HTTP server (stop accepting new requests)
// 3. Flush worker (cancel the pending timer)
// 4. Recipe service (final count flush, drain the persistence queue, close storage)
// 5. Event publisher (finish retries), then the dead-letter file
//
// Errors are logged and do not stop the sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	if components.EventStream != nil {
		slog.Info(LogMsgStoppingEventStream)
		components.EventStream.Stop()
	}

	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.FlushWorker != nil {
		if err := components.FlushWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgFlushWorkerFailed, "error", err)
		}
	}

	if components.RecipeService != nil {
		if err := components.RecipeService.Close(ctx); err != nil {
			slog.Error(LogMsgRecipeServiceFailed, "error", err)
		}
	}

	if components.Events != nil {
		shutdownEvents(ctx, components.Events)
	}

	slog.Info(LogMsgServerStopped)
}

func shutdownEvents(ctx context.Context, events *EventSystem) {
	slog.Info(LogMsgShuttingDownEventPublisher)
	if err := events.Publisher.Shutdown(ctx); err != nil {
		slog.Error(LogMsgResilientPublisherFailed, "error", err)
	}
	if events.DeadLetter == nil {
		return
	}
	if err := events.DeadLetter.Close(); err != nil {
		slog.Error(LogMsgDeadLetterCloseFailed, "error", err)
	}
}
