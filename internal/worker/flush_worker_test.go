package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/concurrency"
)

// fakeFlusher counts calls; fail makes the first n calls fail synchronously
type fakeFlusher struct {
	calls int32
	fail  int32
	err   error
}

func (f *fakeFlusher) FlushCraftCounts(ctx context.Context) (*concurrency.Future[int], error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= atomic.LoadInt32(&f.fail) {
		return nil, errors.New("service closed")
	}
	return concurrency.Resolved(1, f.err), nil
}

func (f *fakeFlusher) count() int32 { return atomic.LoadInt32(&f.calls) }

func TestFlushWorker_FlushesPeriodically(t *testing.T) {
	flusher := &fakeFlusher{}
	w := NewFlushWorker(flusher, 10*time.Millisecond)
	w.Start()

	assert.Eventually(t, func() bool { return flusher.count() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Shutdown(context.Background()))
	after := flusher.count()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, flusher.count(), "no flush after shutdown")
}

func TestFlushWorker_KeepsRunningAfterFailure(t *testing.T) {
	flusher := &fakeFlusher{fail: 1, err: errors.New("disk")}
	w := NewFlushWorker(flusher, 5*time.Millisecond)
	w.Start()

	assert.Eventually(t, func() bool { return flusher.count() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Shutdown(context.Background()))
}

func TestFlushWorker_ShutdownIsIdempotent(t *testing.T) {
	w := NewFlushWorker(&fakeFlusher{}, 0)
	assert.Equal(t, DefaultFlushInterval, w.interval)
	require.NoError(t, w.Shutdown(context.Background()))
	require.NoError(t, w.Shutdown(context.Background()))
}
