package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Postgres holding conversation turns and account managers.
	ChatDatabaseURL string
	// ERP database holding the product catalog and customer records.
	CatalogDatabaseURL string

	// OpenAI-compatible inference endpoint (the production model server
	// exposes this protocol).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// WhatsApp bridge the bot sends through and streams from.
	BridgeBaseURL   string
	BridgeStreamURL string

	// HistoryWindow is how many trailing conversation turns feed each
	// decision.
	HistoryWindow int

	// Unattended-message sweep.
	SweepInterval time.Duration
	UnattendedMin time.Duration
	UnattendedMax time.Duration

	// Directory where generated order artifacts (xlsx, pdf) are written.
	ArtifactDir string

	// AdminToken guards the manual-dispatch endpoint; empty disables it.
	AdminToken string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ChatDatabaseURL:    getEnv("DATABASE_URL", ""),
		CatalogDatabaseURL: getEnv("CATALOG_DATABASE_URL", ""),

		LLMBaseURL: getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", "ollama"),
		LLMModel:   getEnv("LLM_MODEL", "llama3"),

		BridgeBaseURL:   getEnv("BRIDGE_BASE_URL", "http://localhost:9090"),
		BridgeStreamURL: getEnv("BRIDGE_STREAM_URL", "ws://localhost:9090/stream"),

		HistoryWindow: getEnvAsInt("HISTORY_WINDOW", 6),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 60*time.Second),
		UnattendedMin: time.Duration(getEnvAsInt("UNATTENDED_MINUTES_MIN", 15)) * time.Minute,
		UnattendedMax: time.Duration(getEnvAsInt("UNATTENDED_MINUTES_MAX", 30)) * time.Minute,

		ArtifactDir: getEnv("ARTIFACT_DIR", os.TempDir()),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Kapalua Bot Asistant"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
