package domain

// Event type constants used across the application for event bus subscriptions
// and metrics tracking.
//
// Event types follow the pattern: <entity>.<action> (e.g., "recipe.crafted")
const (
	// EventTypeRecipeRegistered is published when a recipe enters the registry
	EventTypeRecipeRegistered = "recipe.registered"

	// EventTypeRecipeUpdated is published when a registered recipe is replaced
	EventTypeRecipeUpdated = "recipe.updated"

	// EventTypeRecipeUnregistered is published when a recipe leaves the registry
	EventTypeRecipeUnregistered = "recipe.unregistered"

	// EventTypeRecipesReloaded is published after the registry is rebuilt from storage
	EventTypeRecipesReloaded = "recipe.reloaded"

	// EventTypeRecipeCrafted is published for every accepted craft
	EventTypeRecipeCrafted = "recipe.crafted"

	// EventTypeCraftLimitReached is published when a craft uses up the last allowed craft in a world
	EventTypeCraftLimitReached = "recipe.limit_reached"

	// EventTypeWorldCleaned is published when all counters of a world are dropped
	EventTypeWorldCleaned = "recipe.world_cleaned"
)
