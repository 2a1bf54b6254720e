package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabaseURL     string
	DatabasePath    string
	MigrationsPath  string
	StaticFilesPath string
	SessionDuration time.Duration

	// Explorer statistics endpoint (read-only, optional).
	ExplorerBaseURL string

	// Google sign-in (optional).
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectBase  string

	// Review reminder emails via SES (disabled when FromEmail is empty).
	AWSRegion         string
	ReminderFromEmail string
	ReminderFromName  string
	ReminderInterval  time.Duration
	AppBaseURL        string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabasePath:    getEnv("DB_PATH", "./repertoire.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		SessionDuration: getHours("SESSION_DURATION_HOURS", 24),

		ExplorerBaseURL: getEnv("EXPLORER_URL", "https://explorer.lichess.ovh/masters"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBase:  getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),

		AWSRegion:         getEnv("AWS_REGION", "eu-west-1"),
		ReminderFromEmail: getEnv("SES_FROM_EMAIL", ""),
		ReminderFromName:  getEnv("SES_FROM_NAME", "Repertoire"),
		ReminderInterval:  getHours("REMINDER_INTERVAL_HOURS", 12),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getHours reads an integer hour count from the environment
func getHours(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return time.Duration(defaultValue) * time.Hour
}
