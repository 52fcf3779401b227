// Package config loads the env-var-driven settings the demo host needs to
// wire the core together. The core packages themselves never read the
// environment — every component here takes an explicit struct — this
// package is the one place that bridges .env/os.Environ() into those
// structs, the same way the teacher's config.LoadConfig did for its own
// server/database/JWT settings.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// GatewayConfig carries the AI provider credentials and model IDs the
// demo host needs to construct providers/volcengine and providers/gemini.
type GatewayConfig struct {
	VolcengineAPIKey string
	VolcengineModel  string
	GeminiAPIKey     string
	GeminiModel      string
}

// DatabaseConfig mirrors the teacher's DatabaseConfig shape, narrowed to
// what store/mongostore.Config needs.
type DatabaseConfig struct {
	URI         string
	Name        string
	MaxPoolSize uint64
}

// LogConfig drives internal/obslog.New.
type LogConfig struct {
	Development bool
}

// Config is the demo host's full set of env-derived settings.
type Config struct {
	Gateway  GatewayConfig
	Database DatabaseConfig
	Log      LogConfig
}

// Load reads .env (if present) then the process environment, falling back
// to sane development defaults for anything unset, exactly as the
// teacher's LoadConfig does.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found or error loading .env file")
	}

	return Config{
		Gateway: GatewayConfig{
			VolcengineAPIKey: getEnv("VOLCENGINE_API_KEY", ""),
			VolcengineModel:  getEnv("VOLCENGINE_MODEL", "doubao-pro-32k"),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Database: DatabaseConfig{
			URI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Name:        getEnv("MONGO_DB_NAME", "quizcore"),
			MaxPoolSize: uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 100)),
		},
		Log: LogConfig{
			Development: getEnv("ENVIRONMENT", "development") != "production",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}
