package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/taskflow/internal/featureflags"
)

const defaultJWTSecret = "change-me-in-production"

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	StoreDriver       string
	DBHost            string
	DBPort            int
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBBootstrapSchema bool

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	RedisURL                string
	RevocationSweepInterval time.Duration

	CORSAllowedOrigins []string

	// StrictDelete makes DELETE return 404 when nothing matched
	StrictDelete bool
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	ttlHours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %q", os.Getenv("TOKEN_TTL_HOURS"))
	}

	sweepSeconds, err := strconv.Atoi(getEnv("REVOCATION_SWEEP_SECONDS", "300"))
	if err != nil || sweepSeconds <= 0 {
		return nil, fmt.Errorf("invalid REVOCATION_SWEEP_SECONDS: %q", os.Getenv("REVOCATION_SWEEP_SECONDS"))
	}

	cfg := &Config{
		Environment:             getEnv("ENVIRONMENT", "development"),
		ServerPort:              port,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  dbPort,
		DBName:                  getEnv("DB_NAME", "taskflow"),
		DBUser:                  getEnv("DB_USER", "taskflow"),
		DBPassword:              getEnv("DB_PASSWORD", "dev"),
		DBSSLMode:               getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:          maxOpen,
		DBBootstrapSchema:       parseBool(getEnv("DB_BOOTSTRAP_SCHEMA", "false")),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:               getEnv("JWT_ISSUER", "taskflow"),
		TokenTTL:                time.Duration(ttlHours) * time.Hour,
		RedisURL:                os.Getenv("REDIS_URL"),
		RevocationSweepInterval: time.Duration(sweepSeconds) * time.Second,
		CORSAllowedOrigins:      parseCSVEnv("FRONTEND_URL", []string{"http://localhost:3000"}),
		StrictDelete:            featureflags.Enabled(featureflags.StrictDelete),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StoreDriver != StorePostgres && c.StoreDriver != StoreMemory {
		return fmt.Errorf("invalid STORE_DRIVER: %q", c.StoreDriver)
	}
	if c.Environment == "production" && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
