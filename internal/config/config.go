package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"studynook-backend/internal/llm"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Hosted auth provider
	AuthJWTSecret string

	// Gemini AI
	AI AIConfig

	// Limits
	AIRequestsPerMinute int
	WorkerCount         int
	MaxUploadMB         int

	// Frontend
	FrontendURL string
}

// AIConfig is everything the task layer needs. An empty APIKey is valid and
// means the backend is not configured.
type AIConfig struct {
	APIKey      string
	Model       string
	VisionModel string
	Timeout     time.Duration
}

func (c AIConfig) Gemini() llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:      c.APIKey,
		Model:       c.Model,
		VisionModel: c.VisionModel,
		Timeout:     c.Timeout,
	}
}

// Load reads the full server configuration. Missing required variables
// panic.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		DatabaseURL:         mustGetEnv("DATABASE_URL"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		AuthJWTSecret:       mustGetEnv("AUTH_JWT_SECRET"),
		AI:                  loadAI(),
		AIRequestsPerMinute: getEnvAsIntOrDefault("AI_REQUESTS_PER_MINUTE", 20),
		WorkerCount:         getEnvAsIntOrDefault("WORKER_COUNT", 3),
		MaxUploadMB:         getEnvAsIntOrDefault("MAX_UPLOAD_MB", 10),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// LoadAI reads only the AI settings, for tools that never touch the
// database or queue.
func LoadAI() AIConfig {
	godotenv.Load()
	return loadAI()
}

func loadAI() AIConfig {
	model := getEnvOrDefault("GEMINI_MODEL", llm.DefaultModel)
	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:       model,
		VisionModel: getEnvOrDefault("GEMINI_VISION_MODEL", model),
		Timeout:     time.Duration(getEnvAsIntOrDefault("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
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
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
