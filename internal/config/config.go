package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	LogLevel    string

	// Storage: "postgres" or "memory"
	StorageDriver string
	SeedData      bool

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddress string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	FrontendAddress string

	// Generation collaborator
	LLMProvider           string
	AnthropicAPIKey       string
	AnthropicModel        string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	GenerationTimeout     time.Duration
	GenerationConcurrency int
	GenerateAllWorkers    int

	// Export collaborator
	PandocPath string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		log.Println("Generated random JWT secret")
	}

	environment := getEnv("ENV", "development")
	defaultLevel := "info"
	if environment == "development" {
		defaultLevel = "debug"
	}

	AppConfig = Config{
		ServerPort:            getEnv("PORT", "8080"),
		Environment:           environment,
		LogLevel:              getEnv("LOG_LEVEL", defaultLevel),
		StorageDriver:         getEnv("STORAGE_DRIVER", "postgres"),
		SeedData:              getEnvBool("SEED_DATA", environment == "development"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "postgres"),
		DBName:                getEnv("DB_NAME", "doc_authoring"),
		RedisAddress:          getEnv("REDIS_ADDRESS", "localhost:6379"),
		JWTSecret:             jwtSecret,
		TokenTTL:              getEnvDuration("TOKEN_TTL", 60*time.Minute),
		FrontendAddress:       getEnv("FRONTEND_ADDRESS", "http://localhost:5173"),
		LLMProvider:           getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:        getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenerationTimeout:     getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		GenerationConcurrency: getEnvInt("GENERATION_CONCURRENCY", 4),
		GenerateAllWorkers:    getEnvInt("GENERATE_ALL_WORKERS", 4),
		PandocPath:            getEnv("PANDOC_PATH", "pandoc"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// generateRandomSecret returns length random bytes, hex encoded
func generateRandomSecret(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("cannot generate JWT secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
