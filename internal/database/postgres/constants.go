package postgres

// Advisory lock key derivation
const (
	// HashMaskPositiveInt64 keeps advisory lock keys non-negative
	HashMaskPositiveInt64 = 0x7FFFFFFFFFFFFFFF
	// CountsLockPrefix namespaces world counter locks from other advisory locks
	CountsLockPrefix = "craft_counts:"
)

// SQL Query Constants
const (
	// SQLAdvisoryLock acquires a PostgreSQL advisory transaction lock
	SQLAdvisoryLock = "SELECT pg_advisory_xact_lock($1)"

	SQLUpsertRecipe = `
		INSERT INTO recipes (recipe_id, kind, result_material, creator, addon, limit_max, definition, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (recipe_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			result_material = EXCLUDED.result_material,
			creator = EXCLUDED.creator,
			addon = EXCLUDED.addon,
			limit_max = EXCLUDED.limit_max,
			definition = EXCLUDED.definition,
			created_at = EXCLUDED.created_at,
			updated_at = NOW()`

	SQLSelectRecipeDefinition = `SELECT definition FROM recipes WHERE recipe_id = $1`

	SQLSelectAllRecipeDefinitions = `SELECT recipe_id, definition FROM recipes ORDER BY recipe_id`

	SQLDeleteRecipe = `DELETE FROM recipes WHERE recipe_id = $1`

	SQLRecipeExists = `SELECT EXISTS (SELECT 1 FROM recipes WHERE recipe_id = $1)`

	SQLDeleteWorldCounts = `DELETE FROM craft_counts WHERE world = $1`

	SQLInsertCraftCount = `
		INSERT INTO craft_counts (world, recipe_id, craft_count, updated_at)
		VALUES ($1, $2, $3, NOW())`

	SQLSelectAllCraftCounts = `SELECT world, recipe_id, craft_count FROM craft_counts ORDER BY world, recipe_id`
)

// Error Messages
const (
	ErrMsgFailedToBeginTransaction  = "failed to begin transaction"
	ErrMsgFailedToCommitTransaction = "failed to commit transaction"
	ErrMsgFailedToAcquireLock       = "failed to acquire advisory lock"
	ErrMsgFailedToEncodeRecipe      = "failed to encode recipe %s"
	ErrMsgFailedToSaveRecipe        = "failed to save recipe %s"
	ErrMsgFailedToLoadRecipe        = "failed to load recipe %s"
	ErrMsgFailedToLoadRecipes       = "failed to load recipes"
	ErrMsgFailedToDeleteRecipe      = "failed to delete recipe %s"
	ErrMsgFailedToCheckRecipe       = "failed to check recipe %s"
	ErrMsgFailedToSaveCounts        = "failed to save craft counts for world %s"
	ErrMsgFailedToLoadCounts        = "failed to load craft counts"
	ErrMsgFailedToDeleteCounts      = "failed to delete craft counts for world %s"
)

// Log Messages
const (
	LogMsgSkippingCorruptRecipe = "Skipping unreadable recipe row"
)
