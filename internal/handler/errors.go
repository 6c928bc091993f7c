package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query and path parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidPlayerID   = "Invalid player ID"
	ErrMsgInvalidIDList     = "ids must not be empty"

	// Recipe operation error messages
	ErrMsgRegisterRecipeFailed   = "Failed to register recipe"
	ErrMsgUpdateRecipeFailed     = "Failed to update recipe"
	ErrMsgUnregisterRecipeFailed = "Failed to unregister recipe"
	ErrMsgSaveRecipeFailed       = "Failed to save recipe"
	ErrMsgReloadRecipesFailed    = "Failed to reload recipes"

	// Craft operation error messages
	ErrMsgRecordCraftFailed = "Failed to record craft"
	ErrMsgFlushCountsFailed = "Failed to flush craft counts"
	ErrMsgWorldRequired     = "world or player_id is required"

	// Player error messages
	ErrMsgPlayerNotOnline = "Player is not online"
)

// Success messages for API responses
// These are user-facing success messages returned in JSON responses
const (
	MsgRecipeRegistered   = "Recipe registered successfully"
	MsgRecipeUpdated      = "Recipe updated successfully"
	MsgRecipeUnregistered = "Recipe unregistered successfully"
	MsgRecipeSaved        = "Recipe saved successfully"
	MsgRecipesReloaded    = "Recipes reloaded successfully"

	MsgCraftRecorded = "Craft recorded"
	MsgCraftDenied   = "Craft limit reached"
	MsgCountsFlushed = "Craft counts flushed"
	MsgWorldCleaned  = "World craft counters removed"
	MsgRecipePruned  = "Recipe craft counters removed"

	MsgPlayerJoined    = "Player joined"
	MsgPlayerLeft      = "Player left"
	MsgPlayerForgotten = "Player craft history removed"
)
