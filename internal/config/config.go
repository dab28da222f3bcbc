package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	LogLevel     string

	// DBDSN is optional. Without it the server runs on the fixture catalog
	// and an in-memory booking ledger.
	DBDSN      string
	DBMaxConns int

	// RedisAddr is optional. Without it itineraries are kept in memory.
	RedisAddr    string
	ItineraryTTL time.Duration

	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// GeminiAPIKey is optional. Without it no narrative is produced when a
	// database catalog is used.
	GeminiAPIKey string
	GeminiModel  string

	ProviderTimeout     time.Duration
	BookingTimeout      time.Duration
	BookingConcurrency  int
	ProviderRPS         float64
	ProviderBurst       int
	MaxActivitiesPerDay int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBMaxConns, err = getEnvAsInt("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	if cfg.ItineraryTTL, err = getEnvAsDuration("ITINERARY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	// JWT secret is required for verifying caller tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash")

	if cfg.ProviderTimeout, err = getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BookingTimeout, err = getEnvAsDuration("BOOKING_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.BookingConcurrency, err = getEnvAsInt("BOOKING_CONCURRENCY", 8); err != nil {
		return nil, err
	}

	// Client-side quota per provider. Zero disables throttling.
	if cfg.ProviderRPS, err = getEnvAsFloat("PROVIDER_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.ProviderBurst, err = getEnvAsInt("PROVIDER_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.MaxActivitiesPerDay, err = getEnvAsInt("MAX_ACTIVITIES_PER_DAY", 3); err != nil {
		return nil, err
	}
	if cfg.MaxActivitiesPerDay < 1 {
		return nil, fmt.Errorf("MAX_ACTIVITIES_PER_DAY must be at least 1")
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid number: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "1h30m".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}
