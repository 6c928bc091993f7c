package filestore

import "os"

// Directory layout below the store root
const (
	RecipesDirName = "recipes"
	CountsDirName  = "craft_counts"
	FileExtension  = ".yml"

	// TempFileSuffix follows the target name of an in-flight atomic write
	TempFileSuffix = ".tmp-"
)

// Permissions for created directories and files
const (
	DirPermissions  os.FileMode = 0o755
	FilePermissions os.FileMode = 0o644
)

// Log messages
const (
	LogMsgSkippingCorruptRecipe = "Skipping unreadable recipe file"
	LogMsgSkippingCorruptCounts = "Skipping unreadable craft count file"
	LogMsgTempCleanupFailed     = "Failed to remove temporary file"
)

// Error message formats
const (
	ErrMsgInvalidRecipeFileName = "recipe id %q cannot be used as a file name"
	ErrMsgCreateDirFailed       = "failed to create storage directory %s: %w"
)
