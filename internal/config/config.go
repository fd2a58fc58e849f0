package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// CacheConfig selects where processed slide sets live between runs.
// Backend is "memory", "redis" or "postgres"; redis and postgres reuse the
// App.RedisURL / Database.Connection settings.
type CacheConfig struct {
	Backend string
}

type APIKeys struct {
	Mistral string
	OpenAI  string
}

type AIConfig struct {
	OllamaBaseURL string
	OllamaModel   string
	OCRModel      string
	BatchSize     int
	Enrichment    bool
	MinQuality    float64
	MaxCostUSD    float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Cache: CacheConfig{
			Backend: getEnv("SLIDE_CACHE_BACKEND", "memory"),
		},
		Keys: APIKeys{
			Mistral: getEnv("MISTRAL_API_KEY", ""),
			OpenAI:  getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),
			OCRModel:      getEnv("OCR_MODEL", "mistral-ocr-latest"),
			BatchSize:     getEnvAsInt("SLIDE_BATCH_SIZE", 5),
			Enrichment:    getEnvAsBool("SLIDE_ENRICHMENT_ENABLED", true),
			MinQuality:    getEnvAsFloat("SLIDE_MIN_QUALITY", 0.0),
			MaxCostUSD:    getEnvAsFloat("SLIDE_MAX_COST_USD", 0.05),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
