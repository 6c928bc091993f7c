package worker

import "time"

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

const (
	LogMsgJobDropped      = "Job dropped, pool stopped"
	LogMsgPoolStopTimeout = "Worker pool stop timed out, jobs still running"
)

// ErrMsgPoolStopped is the message of ErrPoolStopped
const ErrMsgPoolStopped = "worker pool stopped"

// ============================================================================
// Log Messages - Flush Worker
// ============================================================================

// Log messages for craft count flush worker operations
const (
	LogMsgCountFlushFailed           = "Craft count flush failed"
	LogMsgCountFlushCompleted        = "Craft count flush completed"
	LogMsgFlushWorkerShutdown        = "Shutting down craft count flush worker"
	LogMsgFlushWorkerShutdownTimeout = "Flush worker shutdown timeout, a flush may still be running"
)

// DefaultFlushInterval is used when no positive interval is configured
const DefaultFlushInterval = 30 * time.Second

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
