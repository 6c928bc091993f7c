package recipe

import "regexp"

// Grid bounds of the crafting table
const (
	MaxPatternRows    = 3
	MaxPatternColumns = 3
	MaxIngredients    = 9
)

// UnlimitedCrafts is the craft limit and remaining count of an unlimited recipe
const UnlimitedCrafts = -1

// BlankSymbol marks an empty slot in a shaped pattern
const BlankSymbol = ' '

// validID matches normalized recipe ids
var validID = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Lock key prefixes for the service's LockManager
const (
	LockPrefixRecipe = "recipe:"
	LockPrefixWorld  = "world:"
)

// ============================================================================
// Validation Messages
// ============================================================================

const (
	MsgIDRequired             = "recipe id is required"
	MsgIDCharacters           = "id %q may only contain lowercase letters, digits, '-' and '_'"
	MsgResultRequired         = "recipe result is required"
	MsgResultEmpty            = "result cannot be empty or AIR"
	MsgPatternRows            = "pattern must have 1-3 rows, got %d"
	MsgPatternRowWidth        = "pattern row %d must be 1-3 symbols, got %d"
	MsgPatternRequired        = "shaped recipes require a pattern"
	MsgPatternBlank           = "pattern has no ingredient symbols"
	MsgBlankSymbol            = "the space symbol marks an empty slot and cannot be mapped"
	MsgIngredientEmpty        = "ingredient cannot be empty or AIR"
	MsgIngredientCount        = "ingredient count must be 1-9, got %d"
	MsgUnmappedSymbols        = "pattern symbols %s have no ingredient mapping"
	MsgShapelessEmpty         = "shapeless recipes require at least one ingredient"
	MsgShapelessTooMany       = "shapeless recipes cannot have more than 9 ingredients, got %d"
	MsgCraftLimitNegative     = "craft limit must be -1 (unlimited) or positive, got %d"
	MsgCraftLimitZero         = "a craft limit of 0 would make the recipe uncraftable"
	MsgReservedField          = "%q is reserved, use the dedicated builder method"
	MsgCustomFieldKeyRequired = "custom field key is required"
	MsgCustomFieldValue       = "custom field %q: %v"
)

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgRecipeRegistered       = "Recipe registered"
	LogMsgRecipeUpdated          = "Recipe updated"
	LogMsgRecipeUnregistered     = "Recipe unregistered"
	LogMsgRecipeRejected         = "Recipe rejected"
	LogMsgRecipesReloaded        = "Recipes reloaded from storage"
	LogMsgSkippingInvalidRecipe  = "Skipping invalid stored recipe"
	LogMsgCraftRecorded          = "Craft recorded"
	LogMsgCraftRejected          = "Craft rejected by limit"
	LogMsgPlayerUnresolved       = "Player has no current world"
	LogMsgWorldCleaned           = "World craft counters cleaned up"
	LogMsgPlayerCleaned          = "Player craft counters cleaned up"
	LogMsgCraftCountsPruned      = "Recipe craft counters pruned"
	LogMsgCountsFlushed          = "Craft counts flushed"
	LogMsgCountsRestored         = "Craft counts restored"
	LogMsgPersistenceFailed      = "Recipe persistence failed"
	LogMsgEventPublishFailed     = "Failed to publish recipe event"
	LogMsgServiceStarted         = "Recipe service started"
	LogMsgServiceClosing         = "Recipe service closing"
	LogMsgBundleLoaded           = "Recipe bundle loaded"
	LogMsgBundleRecipeSkipped    = "Skipping invalid bundle recipe"
	LogMsgBundleRecipeRegistered = "Bundle recipe registered"
)

// ============================================================================
// Error Messages
// ============================================================================

const (
	ErrMsgReadBundleFailed  = "failed to read recipe bundle %s: %w"
	ErrMsgParseBundleFailed = "failed to parse recipe bundle %s: %w"
	ErrMsgBundleRecipe      = "bundle %s recipe %d (%s): %w"
	ErrMsgListBundlesFailed = "failed to list recipe bundles in %s: %w"
	ErrMsgLoadRecipesFailed = "failed to load recipes: %w"
	ErrMsgLoadCountsFailed  = "failed to load craft counts: %w"
	ErrMsgDeleteIncomplete  = "recipe %s unregistered but not deleted: %w"
)

// Bundle file extensions accepted by the loader
var BundleExtensions = []string{".yml", ".yaml"}
