package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the whole process configuration. The pipeline tunables
// (chunk sizing, noise ratios, OCR settings, prompt cap) encode extraction
// policy, so they are overridable through the environment rather than baked
// into call sites.
type Config struct {
	Environment  string
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	LogDir       string

	OpenRouterAPIURL string
	OpenRouterAPIKey string
	OpenRouterModel  string
	LLMTemperature   float64
	LLMTimeout       time.Duration

	SessionTTL     time.Duration
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	MaxConfigSize int64
	MaxUploadSize int64

	ChunkSize          int
	ChunkOverlap       int
	MinChunkLength     int
	MaxUnderscoreRatio float64
	MaxPeriodRatio     float64

	MinTextLength int
	OCRDPI        int

	MaxDocumentChars int
	TextSampleLength int
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:     getEnv("HTTP_PORT", "5001"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		LogDir:       getEnv("LOG_DIR", "logs/analysis"),

		OpenRouterAPIURL: getEnv("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "anthropic/claude-3-opus"),
		LLMTemperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeout:       time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,

		SessionTTL:     time.Duration(getEnvAsInt("SESSION_EXPIRE_HOURS", 2)) * time.Hour,
		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),

		MaxConfigSize: int64(getEnvAsInt("MAX_CONFIG_SIZE", 1*1024*1024)),
		MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE", 32*1024*1024)),

		ChunkSize:          getEnvAsInt("CHUNK_SIZE", 2000),
		ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 400),
		MinChunkLength:     getEnvAsInt("MIN_CHUNK_LENGTH", 100),
		MaxUnderscoreRatio: getEnvAsFloat("MAX_UNDERSCORE_RATIO", 0.3),
		MaxPeriodRatio:     getEnvAsFloat("MAX_PERIOD_RATIO", 0.1),

		MinTextLength: getEnvAsInt("MIN_TEXT_LENGTH", 50),
		OCRDPI:        getEnvAsInt("OCR_DPI", 200),

		MaxDocumentChars: getEnvAsInt("MAX_DOCUMENT_CHARS", 15000),
		TextSampleLength: getEnvAsInt("TEXT_SAMPLE_LENGTH", 500),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
