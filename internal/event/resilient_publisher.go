package event

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// DeadLetter receives events whose retries are exhausted
type DeadLetter interface {
	Write(event Event, attempts int, lastError error) error
}

// ResilientConfig configures the ResilientPublisher
type ResilientConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	DeadLetter DeadLetter // optional
}

// ResilientPublisher wraps a Bus. A failed publish is retried in the
// background with exponential backoff and ends in the dead letter when
// every attempt fails. Publish itself never reports handler failures.
type ResilientPublisher struct {
	inner    Bus
	config   ResilientConfig
	wg       sync.WaitGroup
	mu       sync.Mutex
	shutdown chan struct{}
	closed   bool
}

// NewResilientPublisher creates a new ResilientPublisher
func NewResilientPublisher(inner Bus, config ResilientConfig) *ResilientPublisher {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = RetryInitialDelaySeconds * time.Second
	}
	return &ResilientPublisher{
		inner:    inner,
		config:   config,
		shutdown: make(chan struct{}),
	}
}

// Publish delivers the event once synchronously and schedules retries on failure
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	err := p.inner.Publish(ctx, event)
	if err == nil {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.deadLetter(event, 1, err)
		return nil
	}
	p.wg.Add(1)
	p.mu.Unlock()

	logger.FromContext(ctx).Warn(LogMsgEventPublishFailed,
		"event_type", event.Type,
		"error", err,
		"retries", p.config.MaxRetries)

	go p.retryLoop(event, err)
	return nil
}

// PublishWithRetry is Publish for callers that want to be explicit about it
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	_ = p.Publish(ctx, event)
}

func (p *ResilientPublisher) retryLoop(event Event, lastErr error) {
	defer p.wg.Done()

	// the original request context may already be gone
	ctx := context.Background()
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		select {
		case <-time.After(CalculateRetryDelay(p.config.RetryDelay, attempt)):
		case <-p.shutdown:
			log.Warn(LogMsgEventDroppedShutdown, "event_type", event.Type)
			p.deadLetter(event, attempt, lastErr)
			return
		}

		lastErr = p.inner.Publish(ctx, event)
		if lastErr == nil {
			log.Info(LogMsgEventRetrySucceeded, "event_type", event.Type, "attempt", attempt)
			return
		}
		log.Warn(LogMsgEventRetryFailed, "event_type", event.Type, "attempt", attempt, "error", lastErr)
	}

	log.Warn(LogMsgEventRetryExhausted, "event_type", event.Type)
	p.deadLetter(event, p.config.MaxRetries+1, lastErr)
}

func (p *ResilientPublisher) deadLetter(event Event, attempts int, err error) {
	if p.config.DeadLetter == nil {
		return
	}
	if werr := p.config.DeadLetter.Write(event, attempts, err); werr != nil {
		logger.FromContext(context.Background()).Error(LogMsgDeadLetterWriteFailed, "error", werr)
	}
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}

// Shutdown stops pending retries (their events go to the dead letter) and
// waits for the retry goroutines to exit.
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.shutdown)
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
		logger.FromContext(ctx).Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}
}
