package config

const (
	// Default storage locations
	DefaultRecipesDir = "data"
	DefaultBundlesDir = "configs/recipes"

	DefaultDeadLetterPath = "logs/event_deadletter.jsonl"
)
