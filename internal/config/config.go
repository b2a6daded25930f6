package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (Asynq broker)
	Redis RedisConfig

	// Identity provider configuration
	Identity IdentityConfig

	// Logging configuration
	Logging LoggingConfig

	// Course catalog seed file (YAML), empty = no seeding
	CourseCatalog string

	// Cron expression for the follow-up reminder scan
	FollowUpSchedule string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port       string
	CORSOrigin string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string // sqlite file path or postgres:// URL
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// IdentityConfig holds the external identity provider credentials.
// Both values must be non-empty for auth operations to be enabled.
type IdentityConfig struct {
	URL     string // provider URL
	AnonKey string // provider public (anon) key
}

// Configured reports whether both identity provider credentials are present.
func (c IdentityConfig) Configured() bool {
	return c.URL != "" && c.AnonKey != ""
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}

	// Database URL - default to a local sqlite file, allow postgres:// for hosted deployments
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "admitd.sqlite"
	}

	// Redis address - default to localhost:6379, allow override for dev/docker
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// Logging configuration - defaults suitable for production
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	// Follow-up reminder scan - every 5 minutes unless overridden
	followUpSchedule := os.Getenv("FOLLOWUP_SCHEDULE")
	if followUpSchedule == "" {
		followUpSchedule = "*/5 * * * *"
	}

	return &Config{
		Server: ServerConfig{
			Port:       port,
			CORSOrigin: corsOrigin,
		},
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Identity: IdentityConfig{
			URL:     os.Getenv("AUTH_URL"),
			AnonKey: os.Getenv("AUTH_ANON_KEY"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		CourseCatalog:    os.Getenv("COURSE_CATALOG"),
		FollowUpSchedule: followUpSchedule,
	}, nil
}
