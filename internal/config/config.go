package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Remote call timeouts
	ClassifyTimeout time.Duration
	GenerateTimeout time.Duration

	// Sessions
	SessionTTL   time.Duration
	HistoryLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		GeminiAPIKey:    mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:     getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		ClassifyTimeout: getEnvAsSecondsOrDefault("CLASSIFY_TIMEOUT_SECONDS", 8*time.Second),
		GenerateTimeout: getEnvAsSecondsOrDefault("GENERATE_TIMEOUT_SECONDS", 25*time.Second),
		SessionTTL:      getEnvAsMinutesOrDefault("SESSION_TTL_MINUTES", 30*time.Minute),
		HistoryLimit:    getEnvAsIntOrDefault("SESSION_HISTORY_LIMIT", 10),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "*"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsSecondsOrDefault(key string, defaultVal time.Duration) time.Duration {
	n := getEnvAsIntOrDefault(key, 0)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}

func getEnvAsMinutesOrDefault(key string, defaultVal time.Duration) time.Duration {
	n := getEnvAsIntOrDefault(key, 0)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Minute
}
