package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	CORSOrigins []string

	// Storage
	StorageBackend string
	UploadDir      string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool
	S3Region          string

	// UpperMind (auth + translation)
	UpperMindURL           string
	TranslatorAgentID      int
	TranslationTimeout     time.Duration
	TranslationConcurrency int

	// Ollama (vision OCR)
	OllamaURL   string
	OllamaModel string
	OCRTimeout  time.Duration

	// Auth lookup cache
	RedisAddr     string
	RedisPassword string
	AuthCacheTTL  time.Duration

	// Upload limits
	MaxUploadSize int64
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		DatabaseURL:       getEnv("DATABASE_URL", "./data/intpatient.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "intpatient"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		UpperMindURL:      strings.TrimRight(getEnv("UPPERMIND_URL", "http://10.10.0.149:3000"), "/"),
		OllamaURL:         strings.TrimRight(getEnv("OLLAMA_URL", "http://localhost:11434"), "/"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "deepseek-ocr"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.TranslatorAgentID, err = getEnvInt("TRANSLATOR_AGENT_ID", 1); err != nil {
		return nil, err
	}
	if cfg.TranslationConcurrency, err = getEnvInt("TRANSLATION_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.TranslationConcurrency < 1 {
		return nil, fmt.Errorf("TRANSLATION_CONCURRENCY must be at least 1")
	}

	translationTimeout, err := getEnvInt("TRANSLATION_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.TranslationTimeout = time.Duration(translationTimeout) * time.Second

	ocrTimeout, err := getEnvInt("OCR_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.OCRTimeout = time.Duration(ocrTimeout) * time.Second

	cacheTTL, err := getEnvInt("AUTH_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.AuthCacheTTL = time.Duration(cacheTTL) * time.Second

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_SIZE_MB", 50)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadSize = int64(maxUploadMB) << 20

	if cfg.StorageBackend != StorageLocal && cfg.StorageBackend != StorageS3 {
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageLocal, StorageS3, cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
