package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/bootstrap"
	"github.com/osse101/RecipeForge_Go/internal/config"
	"github.com/osse101/RecipeForge_Go/internal/persistence"
	"github.com/osse101/RecipeForge_Go/internal/player"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
	"github.com/osse101/RecipeForge_Go/internal/server"
	"github.com/osse101/RecipeForge_Go/internal/worker"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("recipe service failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if warnings, err := config.ValidateEnvWithWarnings(); err != nil {
		slog.Warn("Environment validation failed", "error", err)
	} else {
		for _, w := range warnings {
			slog.Warn(w)
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	storage, err := bootstrap.OpenStorage(startCtx, cfg)
	if err != nil {
		return err
	}

	events, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		_ = storage.Store.Close()
		return err
	}
	if err := bootstrap.RegisterEventHandlers(events.Publisher); err != nil {
		_ = storage.Store.Close()
		return err
	}

	gateway := persistence.NewGateway(storage.Store, persistence.Config{
		Workers:    cfg.PersistWorkers,
		QueueSize:  cfg.PersistQueueSize,
		MaxRetries: cfg.PersistMaxRetries,
		RetryDelay: cfg.PersistRetryDelay,
	})
	directory := player.NewDirectory(player.Config{
		Size: cfg.PlayerCacheSize,
		TTL:  cfg.PlayerCacheTTL,
	})
	recipes := recipe.NewService(gateway, directory, events.Publisher, nil)

	if err := recipes.Start(startCtx); err != nil {
		_ = recipes.Close(context.Background())
		return err
	}
	if _, err := bootstrap.SyncRecipeBundles(startCtx, recipes, cfg.BundlesDir); err != nil {
		slog.Warn("Recipe bundle sync failed", "dir", cfg.BundlesDir, "error", err)
	}

	flushWorker := worker.NewFlushWorker(recipes, cfg.CountFlushInterval)
	flushWorker.Start()

	deps := server.Deps{
		Recipes: recipes,
		Players: directory,
		DBPool:  storage.DBPool(),
	}
	if cfg.EventStream {
		deps.Events = bootstrap.StartEventStream(events.Publisher)
	}

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		ServiceName:    cfg.ServiceName,
	}, deps)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		runErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:        srv,
		EventStream:   deps.Events,
		FlushWorker:   flushWorker,
		RecipeService: recipes,
		Events:        events,
	})
	return runErr
}
