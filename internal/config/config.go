package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string // session log files are written here when set
	ServiceName string
	Version     string
	Environment string
	APIKey      string // API key for authentication

	TrustedProxies []string // proxies whose X-Forwarded-For is believed
	DeadLetterPath string   // events that exhaust their retries are appended here

	EventMaxRetries int
	EventRetryDelay time.Duration
	EventStream     bool // serve /api/v1/events to plugins

	// Storage
	StorageBackend string
	RecipesDir     string // root of the file store
	BundlesDir     string // addon recipe bundles seeded at startup

	// Database (postgres backend)
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	// Persistence gateway
	PersistWorkers     int
	PersistQueueSize   int
	PersistMaxRetries  int
	PersistRetryDelay  time.Duration
	CountFlushInterval time.Duration

	// Player presence cache
	PlayerCacheSize int
	PlayerCacheTTL  time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		LogDir:      getEnv("LOG_DIR", ""),
		ServiceName: getEnv("SERVICE_NAME", "recipe-forge"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		APIKey:      getEnv("API_KEY", ""),

		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		DeadLetterPath: getEnv("EVENT_DEAD_LETTER_PATH", DefaultDeadLetterPath),

		EventMaxRetries: getEnvAsInt("EVENT_MAX_RETRIES", 5),
		EventRetryDelay: getEnvAsDuration("EVENT_RETRY_DELAY", 2*time.Second),
		EventStream:     getEnvAsBool("EVENT_STREAM_ENABLED", true),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendFile)),
		RecipesDir:     getEnv("RECIPES_DIR", DefaultRecipesDir),
		BundlesDir:     getEnv("BUNDLES_DIR", DefaultBundlesDir),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", "recipeforge"),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", 20),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),

		PersistWorkers:     getEnvAsInt("PERSIST_WORKERS", 4),
		PersistQueueSize:   getEnvAsInt("PERSIST_QUEUE_SIZE", 256),
		PersistMaxRetries:  getEnvAsInt("PERSIST_MAX_RETRIES", 3),
		PersistRetryDelay:  getEnvAsDuration("PERSIST_RETRY_DELAY", 100*time.Millisecond),
		CountFlushInterval: getEnvAsDuration("COUNT_FLUSH_INTERVAL", 30*time.Second),

		PlayerCacheSize: getEnvAsInt("PLAYER_CACHE_SIZE", 10000),
		PlayerCacheTTL:  getEnvAsDuration("PLAYER_CACHE_TTL", time.Hour),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	switch cfg.StorageBackend {
	case StorageBackendFile, StorageBackendPostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: expected %s or %s", cfg.StorageBackend, StorageBackendFile, StorageBackendPostgres)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to the default when unset or invalid
func getEnvAsInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvAsDuration parses a time.Duration variable ("30s", "5m"), falling back to the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvAsBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// splitList parses a comma separated variable, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
