package worker

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/concurrency"
	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// CountFlusher writes pending craft counters to storage
type CountFlusher interface {
	FlushCraftCounts(ctx context.Context) (*concurrency.Future[int], error)
}

// FlushWorker periodically flushes craft counters (write-behind)
type FlushWorker struct {
	flusher  CountFlusher
	interval time.Duration
	timer    *time.Timer
	shutdown chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewFlushWorker creates a new FlushWorker
func NewFlushWorker(flusher CountFlusher, interval time.Duration) *FlushWorker {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &FlushWorker{
		flusher:  flusher,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

// Start schedules the first flush
func (w *FlushWorker) Start() {
	w.scheduleNext()
}

func (w *FlushWorker) scheduleNext() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdown:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, func() {
		w.mu.Lock()
		select {
		case <-w.shutdown:
			w.mu.Unlock()
			return
		default:
		}
		w.wg.Add(1)
		w.mu.Unlock()

		w.executeFlush()
		w.scheduleNext()
	})
}

// executeFlush runs one flush and waits for it. The caller has already
// registered it with wg.
func (w *FlushWorker) executeFlush() {
	defer w.wg.Done()

	ctx := context.Background()
	log := logger.FromContext(ctx)

	future, err := w.flusher.FlushCraftCounts(ctx)
	if err != nil {
		log.Warn(LogMsgCountFlushFailed, "error", err)
		return
	}
	worlds, err := future.Await(ctx)
	if err != nil {
		log.Warn(LogMsgCountFlushFailed, "error", err)
		return
	}
	if worlds > 0 {
		log.Debug(LogMsgCountFlushCompleted, "worlds", worlds)
	}
}

// Shutdown cancels the pending timer and waits for an in-flight flush.
// The final flush belongs to the flusher's own Close.
func (w *FlushWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info(LogMsgFlushWorkerShutdown)

	w.mu.Lock()
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Warn(LogMsgFlushWorkerShutdownTimeout)
		return ctx.Err()
	}
}
