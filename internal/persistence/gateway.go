// Package persistence runs storage operations off the caller's goroutine.
// Every operation returns a future that completes once the durable write,
// read or delete has finished.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/concurrency"
	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/metrics"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/worker"
)

// Config tunes the gateway worker pool and retry policy
type Config struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize < 1 {
		c.QueueSize = DefaultQueueSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

type task struct {
	run   func()
	abort func(err error)
}

// keyQueue holds the tasks waiting behind the running task of one key
type keyQueue struct {
	pending []task
}

// Gateway is the only path from the service to the storage backend
type Gateway struct {
	store repository.Store
	pool  *worker.Pool
	cfg   Config

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool
}

// NewGateway creates a gateway over store and starts its workers
func NewGateway(store repository.Store, cfg Config) *Gateway {
	cfg = cfg.withDefaults()
	g := &Gateway{
		store:  store,
		pool:   worker.NewPool(cfg.Workers, cfg.QueueSize),
		cfg:    cfg,
		queues: make(map[string]*keyQueue),
	}
	g.pool.Start()
	return g
}

// IsPersisted reports whether storage holds a record for id. It observes
// every save and delete of id submitted before it.
func (g *Gateway) IsPersisted(ctx context.Context, id string) (*concurrency.Future[bool], error) {
	return submit(ctx, g, KeyPrefixRecipe+id, OpRecipeExists, func(ctx context.Context) (bool, error) {
		return g.store.RecipeExists(ctx, id)
	})
}

// Save writes r. The future holds true once the record is durable.
func (g *Gateway) Save(ctx context.Context, r *domain.Recipe) (*concurrency.Future[bool], error) {
	return submit(ctx, g, KeyPrefixRecipe+r.ID(), OpSaveRecipe, func(ctx context.Context) (bool, error) {
		return true, g.store.SaveRecipe(ctx, r)
	})
}

// Delete removes the record of id; deleting an absent record succeeds
func (g *Gateway) Delete(ctx context.Context, id string) (*concurrency.Future[bool], error) {
	return submit(ctx, g, KeyPrefixRecipe+id, OpDeleteRecipe, func(ctx context.Context) (bool, error) {
		return true, g.store.DeleteRecipe(ctx, id)
	})
}

// LoadAll reads every stored recipe
func (g *Gateway) LoadAll(ctx context.Context) (*concurrency.Future[[]*domain.Recipe], error) {
	return submit(ctx, g, "", OpLoadRecipes, g.store.LoadAllRecipes)
}

// SaveCounts replaces the stored counters of world
func (g *Gateway) SaveCounts(ctx context.Context, world string, counts repository.WorldCounts) (*concurrency.Future[bool], error) {
	return submit(ctx, g, KeyPrefixCounts+world, OpSaveCounts, func(ctx context.Context) (bool, error) {
		return true, g.store.SaveWorldCounts(ctx, world, counts)
	})
}

// LoadCounts reads the counters of every world
func (g *Gateway) LoadCounts(ctx context.Context) (*concurrency.Future[map[string]repository.WorldCounts], error) {
	return submit(ctx, g, "", OpLoadCounts, g.store.LoadAllCounts)
}

// DeleteCounts drops the stored counters of world
func (g *Gateway) DeleteCounts(ctx context.Context, world string) (*concurrency.Future[bool], error) {
	return submit(ctx, g, KeyPrefixCounts+world, OpDeleteCounts, func(ctx context.Context) (bool, error) {
		return true, g.store.DeleteWorldCounts(ctx, world)
	})
}

// Close refuses new operations, waits for queued ones and closes the store
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	logger.FromContext(ctx).Info(LogMsgGatewayClosing)
	stopErr := g.pool.Stop(ctx)
	closeErr := g.store.Close()
	if closeErr != nil {
		logger.FromContext(ctx).Error(LogMsgStoreCloseFailed, "error", closeErr)
	}
	return errors.Join(stopErr, closeErr)
}

// submit wraps fn in retries and queues it behind earlier operations on key.
// An empty key runs without ordering constraints.
func submit[T any](ctx context.Context, g *Gateway, key, op string, fn func(context.Context) (T, error)) (*concurrency.Future[T], error) {
	// storage work outlives the request that triggered it
	ctx = context.WithoutCancel(ctx)
	f := concurrency.NewFuture[T]()
	t := task{
		run: func() {
			f.Complete(withRetry(ctx, g.cfg, op, fn))
		},
		abort: func(err error) {
			var zero T
			f.Complete(zero, err)
		},
	}
	if err := g.enqueue(key, t); err != nil {
		return nil, err
	}
	return f, nil
}

func (g *Gateway) enqueue(key string, t task) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrServiceClosed, ErrMsgGatewayClosed)
	}
	if key != "" {
		if q, running := g.queues[key]; running {
			q.pending = append(q.pending, t)
			g.mu.Unlock()
			return nil
		}
		g.queues[key] = &keyQueue{}
	}
	g.mu.Unlock()

	err := g.pool.Submit(worker.JobFunc(func(context.Context) error {
		g.drain(key, t)
		return nil
	}))
	if err == nil {
		return nil
	}

	// The pool stopped between the closed check and Submit. Fail whatever
	// queued up behind this task so no future is left hanging.
	err = fmt.Errorf("%w: %v", domain.ErrServiceClosed, err)
	if key != "" {
		g.mu.Lock()
		q := g.queues[key]
		delete(g.queues, key)
		g.mu.Unlock()
		for _, p := range q.pending {
			p.abort(err)
		}
	}
	return err
}

// drain runs t and then every task queued behind it on the same key
func (g *Gateway) drain(key string, t task) {
	for {
		t.run()
		if key == "" {
			return
		}

		g.mu.Lock()
		q := g.queues[key]
		if len(q.pending) == 0 {
			delete(g.queues, key)
			g.mu.Unlock()
			return
		}
		t = q.pending[0]
		q.pending = q.pending[1:]
		g.mu.Unlock()
	}
}

// withRetry runs fn up to MaxRetries+1 times with linear backoff. Input
// errors are not retried since another attempt cannot fix them.
func withRetry[T any](ctx context.Context, cfg Config, op string, fn func(context.Context) (T, error)) (T, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	var val T
	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.PersistenceRetries.WithLabelValues(op).Inc()
			log.Warn(LogMsgRetryingOperation, "operation", op, "attempt", attempt, "error", err)
			time.Sleep(cfg.RetryDelay * time.Duration(attempt))
		}
		val, err = fn(ctx)
		if err == nil || permanent(err) {
			break
		}
	}

	metrics.ObservePersistence(op, start, err)
	if err != nil {
		log.Error(LogMsgOperationFailed, "operation", op, "error", err)
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
	}
	return val, nil
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidID) || errors.Is(err, domain.ErrInvalidInput)
}
