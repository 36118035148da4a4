package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	Port                string
	AllowedOrigins      []string
	LogLevel            string
	Environment         string
	DatabaseURL         string
	RedisURL            string
	PlatformTokenSecret string
	OpenF1BaseURL       string
	OpenF1MeetingYear   string
	OpenF1Country       string
	UpstreamTimeout     time.Duration
	SessionIdleTimeout  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Environment:         getEnv("ENVIRONMENT", "production"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		PlatformTokenSecret: getEnv("PLATFORM_TOKEN_SECRET", ""),
		OpenF1BaseURL:       getEnv("OPENF1_BASE_URL", "https://api.openf1.org"),
		OpenF1MeetingYear:   getEnv("OPENF1_MEETING_YEAR", "2025"),
		OpenF1Country:       getEnv("OPENF1_COUNTRY", "Spain"),
		UpstreamTimeout:     getDurationEnv("UPSTREAM_TIMEOUT", 10*time.Second),
		SessionIdleTimeout:  getDurationEnv("SESSION_IDLE_TIMEOUT", 15*time.Minute),
	}

	// Missing startup credentials are the only process-fatal condition.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.PlatformTokenSecret == "" {
		return nil, fmt.Errorf("PLATFORM_TOKEN_SECRET environment variable is not set")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
