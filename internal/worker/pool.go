package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// ErrPoolStopped is returned by Submit once Stop has been called
var ErrPoolStopped = errors.New(ErrMsgPoolStopped)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface
type JobFunc func(ctx context.Context) error

func (f JobFunc) Process(ctx context.Context) error { return f(ctx) }

// Pool represents a worker pool
type Pool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup

	// guards jobQueue against send-after-close
	mu      sync.RWMutex
	stopped bool
	started bool
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
	}
}

// Start starts the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker drains the queue until it is closed
func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobQueue {
		ctx := context.Background()
		if err := job.Process(ctx); err != nil {
			// Log error but don't crash worker
			logger.FromContext(ctx).Error(LogMsgWorkerJobFailed, "error", err)
		}
	}
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	p.jobQueue <- job
	return nil
}

// Enqueue queues a job and drops it if the pool is stopped
func (p *Pool) Enqueue(job Job) {
	if err := p.Submit(job); err != nil {
		logger.FromContext(context.Background()).Warn(LogMsgJobDropped, "error", err)
	}
}

// Stop refuses new jobs, lets queued jobs finish and waits for the workers.
// It returns ctx.Err() if ctx ends first; the workers keep draining.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobQueue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.FromContext(ctx).Warn(LogMsgPoolStopTimeout)
		return ctx.Err()
	}
}
