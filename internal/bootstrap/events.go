package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/osse101/RecipeForge_Go/internal/config"
	"github.com/osse101/RecipeForge_Go/internal/event"
)

// EventSystem is the in-memory bus behind a resilient publisher. Services
// publish through Publisher; DeadLetter must be closed after the publisher
// has shut down.
type EventSystem struct {
	Bus        *event.MemoryBus
	Publisher  *event.ResilientPublisher
	DeadLetter *event.DeadLetterWriter
}

// InitializeEventSystem creates the event bus, the dead-letter file and the
// resilient publisher with exponential backoff.
func InitializeEventSystem(cfg *config.Config) (*EventSystem, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DeadLetterPath), DirPermission); err != nil {
		return nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
	}
	deadLetter, err := event.NewDeadLetterWriter(cfg.DeadLetterPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", LogMsgFailedOpenDeadLetter, err)
	}

	bus := event.NewMemoryBus()
	publisher := event.NewResilientPublisher(bus, event.ResilientConfig{
		MaxRetries: cfg.EventMaxRetries,
		RetryDelay: cfg.EventRetryDelay,
		DeadLetter: deadLetter,
	})

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", cfg.EventMaxRetries,
		"retry_delay", cfg.EventRetryDelay,
		"deadletter_path", cfg.DeadLetterPath)

	return &EventSystem{Bus: bus, Publisher: publisher, DeadLetter: deadLetter}, nil
}
