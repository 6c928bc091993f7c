package bootstrap

// =============================================================================
// File System Permissions
// =============================================================================

const (
	// DirPermission is the standard permission for creating directories
	DirPermission = 0755

	// LogFilePermission is the permission for log files (read/write for owner, read for group/others)
	LogFilePermission = 0666
)

// =============================================================================
// Logger Configuration
// =============================================================================

const (
	// LogFileTimestampFormat is the timestamp format for log filenames (YYYY-MM-DD_HH-MM-SS)
	LogFileTimestampFormat = "2006-01-02_15-04-05"

	// LogFileNamePattern is the format string for log filenames
	LogFileNamePattern = "session_%s.log"

	// LogFileExtension is the file extension for log files
	LogFileExtension = ".log"

	// LogFileRetentionCount is the number of older log files kept next to a new one
	LogFileRetentionCount = 9
)

// Log messages for logger initialization
const (
	LogMsgStartingService     = "Starting recipe service"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgFailedCreateLogsDir = "failed to create logs directory"
	LogMsgFailedOpenLogFile   = "failed to open log file"
	LogMsgFailedDeleteOldLog  = "Failed to delete old log file"
)

// =============================================================================
// Storage
// =============================================================================

const (
	LogMsgStorageOpened          = "Recipe storage opened"
	LogMsgMigrationsApplied      = "Database migrations applied"
	ErrMsgFailedOpenFileStore    = "failed to open file store"
	ErrMsgFailedConnectDatabase  = "failed to connect to database"
	ErrMsgFailedMigrateDatabase  = "failed to migrate database"
	ErrMsgUnknownStorageBackend  = "unknown storage backend"
	ErrMsgFailedStartRecipeStore = "failed to start recipe service"
)

// =============================================================================
// Event System
// =============================================================================

// Log messages for event system initialization
const (
	LogMsgEventSystemInitialized    = "Event system initialized"
	LogMsgFailedCreateDeadLetterDir = "failed to create dead-letter directory"
	LogMsgFailedOpenDeadLetter      = "failed to open dead-letter file"
)

// Log messages for event handler registration
const (
	LogMsgMetricsCollectorRegistered = "Metrics collector registered"
	ErrMsgFailedRegisterMetrics      = "failed to register metrics collector"
	LogMsgEventStreamStarted         = "Event stream hub started"
)

// =============================================================================
// Recipe Bundle Sync
// =============================================================================

const (
	LogMsgSyncingBundles       = "Syncing recipe bundles..."
	LogMsgBundlesSynced        = "Recipe bundles synced"
	LogMsgBundleDirMissing     = "Recipe bundle directory not found, sync skipped"
	LogMsgBundleSyncIncomplete = "Some bundle recipes were skipped"
)

// =============================================================================
// Shutdown Messages
// =============================================================================

const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgStoppingEventStream        = "Closing event streams..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgFlushWorkerFailed          = "Flush worker shutdown failed"
	LogMsgRecipeServiceFailed        = "Recipe service shutdown failed"
	LogMsgResilientPublisherFailed   = "Resilient publisher shutdown failed"
	LogMsgDeadLetterCloseFailed      = "Dead-letter file close failed"
)
