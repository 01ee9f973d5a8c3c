package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Mail provider (Aurinko-compatible API)
	AurinkoBaseURL      string
	AurinkoClientID     string
	AurinkoClientSecret string
	AurinkoReturnURL    string

	// Sync pipeline
	SyncDaysWithin        int           // initial sync window
	SyncBodyType          string        // "html" or "text"
	SyncReadinessAttempts int           // max startSync polls before giving up
	SyncConcurrency       int           // per-batch normalization fan-out
	SyncInterval          time.Duration // background incremental sync period

	// AI provider
	AIProvider    string // "openai", "ollama" or "auto"
	OpenAIAPIKey  string
	OllamaBaseURL string
	OllamaModel   string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 168 * time.Hour // 7 days
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	syncInterval := 5 * time.Minute
	if iv := os.Getenv("SYNC_INTERVAL"); iv != "" {
		if parsed, err := time.ParseDuration(iv); err == nil {
			syncInterval = parsed
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=mailflow port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		AurinkoBaseURL:      getEnv("AURINKO_BASE_URL", "https://api.aurinko.io/v1"),
		AurinkoClientID:     getEnv("AURINKO_CLIENT_ID", ""),
		AurinkoClientSecret: getEnv("AURINKO_CLIENT_SECRET", ""),
		AurinkoReturnURL:    getEnv("AURINKO_RETURN_URL", "http://localhost:8080/api/aurinko/callback"),

		SyncDaysWithin:        getEnvInt("SYNC_DAYS_WITHIN", 7),
		SyncBodyType:          getEnv("SYNC_BODY_TYPE", "html"),
		SyncReadinessAttempts: getEnvInt("SYNC_READINESS_ATTEMPTS", 60),
		SyncConcurrency:       getEnvInt("SYNC_CONCURRENCY", 10),
		SyncInterval:          syncInterval,

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
