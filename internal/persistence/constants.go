package persistence

import "time"

// Operation labels, used for metrics and logs
const (
	OpRecipeExists = "recipe_exists"
	OpSaveRecipe   = "save_recipe"
	OpDeleteRecipe = "delete_recipe"
	OpLoadRecipes  = "load_recipes"
	OpSaveCounts   = "save_counts"
	OpLoadCounts   = "load_counts"
	OpDeleteCounts = "delete_counts"
)

// Serialization key prefixes. Operations sharing a key run in submission order.
const (
	KeyPrefixRecipe = "recipe:"
	KeyPrefixCounts = "counts:"
)

// Defaults applied by NewGateway for unset config values
const (
	DefaultWorkers    = 4
	DefaultQueueSize  = 256
	DefaultMaxRetries = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

// Log messages
const (
	LogMsgRetryingOperation = "Retrying storage operation"
	LogMsgOperationFailed   = "Storage operation failed"
	LogMsgGatewayClosing    = "Closing persistence gateway"
	LogMsgStoreCloseFailed  = "Failed to close storage backend"
)

// Error messages
const (
	ErrMsgGatewayClosed = "persistence gateway closed"
)
