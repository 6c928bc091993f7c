package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ExpectedEnvSchemaVersion is the .env layout this build understands
const ExpectedEnvSchemaVersion = "1.0"

// RequiredEnvVars must be set for every backend
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"API_KEY",
	"STORAGE_BACKEND",
}

// PostgresEnvVars must also be set when STORAGE_BACKEND=postgres
var PostgresEnvVars = []string{
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// Placeholder values shipped in .env.example
const (
	exampleAPIKey     = "generate_with_openssl_rand_hex_32"
	exampleDBPassword = "change_this_secure_password"
)

var (
	intEnvVars = []string{
		"PORT", "DB_MAX_CONNS", "PERSIST_WORKERS", "PERSIST_QUEUE_SIZE",
		"PERSIST_MAX_RETRIES", "PLAYER_CACHE_SIZE", "EVENT_MAX_RETRIES",
	}
	durationEnvVars = []string{
		"DB_MAX_CONN_IDLE_TIME", "DB_MAX_CONN_LIFETIME", "PERSIST_RETRY_DELAY",
		"COUNT_FLUSH_INTERVAL", "PLAYER_CACHE_TTL", "EVENT_RETRY_DELAY",
	}
	boolEnvVars = []string{"EVENT_STREAM_ENABLED"}
)

// ValidateEnv checks the schema version and the variables the selected
// storage backend needs
func ValidateEnv() error {
	schemaVersion := os.Getenv("ENV_SCHEMA_VERSION")
	if schemaVersion == "" {
		return fmt.Errorf("ENV_SCHEMA_VERSION is not set - add it to your .env file (expected: %s)", ExpectedEnvSchemaVersion)
	}
	if schemaVersion != ExpectedEnvSchemaVersion {
		return fmt.Errorf("ENV_SCHEMA_VERSION mismatch: expected %s, got %s - your .env file may be outdated", ExpectedEnvSchemaVersion, schemaVersion)
	}

	required := RequiredEnvVars
	if strings.EqualFold(os.Getenv("STORAGE_BACKEND"), StorageBackendPostgres) {
		required = append(append([]string{}, RequiredEnvVars...), PostgresEnvVars...)
	}

	var missing []string
	for _, envVar := range required {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEnvWithWarnings runs ValidateEnv and then reports settings that
// work but are probably wrong: example secrets, values Load will ignore, and
// a bundle directory that does not exist.
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string

	if os.Getenv("API_KEY") == exampleAPIKey {
		warnings = append(warnings, "API_KEY is the example value - generate one with: openssl rand -hex 32")
	}
	if strings.EqualFold(os.Getenv("STORAGE_BACKEND"), StorageBackendPostgres) &&
		os.Getenv("DB_PASSWORD") == exampleDBPassword {
		warnings = append(warnings, "DB_PASSWORD is the example value - set a real password")
	}

	for _, key := range intEnvVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if _, err := strconv.Atoi(v); err != nil {
				warnings = append(warnings, ignoredValue(key, v, "an integer"))
			}
		}
	}
	for _, key := range durationEnvVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if _, err := time.ParseDuration(v); err != nil {
				warnings = append(warnings, ignoredValue(key, v, "a duration"))
			}
		}
	}
	for _, key := range boolEnvVars {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if _, err := strconv.ParseBool(v); err != nil {
				warnings = append(warnings, ignoredValue(key, v, "a boolean"))
			}
		}
	}

	if dir := os.Getenv("BUNDLES_DIR"); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("BUNDLES_DIR %q is not readable - no recipe bundles will be synced", dir))
		}
	}

	return warnings, nil
}

func ignoredValue(key, value, kind string) string {
	return fmt.Sprintf("%s=%q is not %s - the default will be used", key, value, kind)
}
