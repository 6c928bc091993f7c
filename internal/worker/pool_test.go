package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJob struct {
	executed *int32
}

func (j *testJob) Process(ctx context.Context) error {
	atomic.AddInt32(j.executed, 1)
	return nil
}

func TestPool(t *testing.T) {
	var executed int32
	pool := NewPool(TestWorkerCount, TestQueueSize)
	pool.Start()

	job := &testJob{executed: &executed}
	pool.Enqueue(job)
	pool.Enqueue(job)

	// Wait a bit for workers to process
	time.Sleep(TestWorkerProcessWaitTime * time.Millisecond)

	require.NoError(t, pool.Stop(context.Background()))

	if atomic.LoadInt32(&executed) != TestExpectedJobCount {
		t.Errorf("Expected %d jobs executed, got %d", TestExpectedJobCount, executed)
	}
}

func TestPool_StopDrainsQueue(t *testing.T) {
	var executed int32
	pool := NewPool(1, 100)
	pool.Start()

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(JobFunc(func(ctx context.Context) error {
			time.Sleep(100 * time.Microsecond)
			atomic.AddInt32(&executed, 1)
			return nil
		})))
	}

	require.NoError(t, pool.Stop(context.Background()))
	assert.Equal(t, int32(50), atomic.LoadInt32(&executed))
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(TestWorkerCount, TestQueueSize)
	pool.Start()
	require.NoError(t, pool.Stop(context.Background()))

	err := pool.Submit(JobFunc(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrPoolStopped)

	// second stop is harmless
	assert.NoError(t, pool.Stop(context.Background()))
}

func TestPool_FailingJobDoesNotKillWorker(t *testing.T) {
	var executed int32
	pool := NewPool(1, TestQueueSize)
	pool.Start()

	require.NoError(t, pool.Submit(JobFunc(func(ctx context.Context) error {
		return errors.New("disk on fire")
	})))
	require.NoError(t, pool.Submit(&testJob{executed: &executed}))

	require.NoError(t, pool.Stop(context.Background()))
	assert.Equal(t, int32(1), executed)
}

func TestPool_StopTimeout(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, TestQueueSize)
	pool.Start()
	require.NoError(t, pool.Submit(JobFunc(func(ctx context.Context) error {
		<-release
		return nil
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Stop(ctx), context.DeadlineExceeded)

	close(release)
}
