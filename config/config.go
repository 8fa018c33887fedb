package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	HTTPPort     string
	HTTPSPort    string
	Domains      []string
	CertCacheDir string
	LogDir       string

	StorageDir  string
	SQLitePath  string
	DatabaseURL string

	OpenAIAPIURL string
	OpenAIAPIKey string
	OpenAIModel  string

	OCREnabled bool

	DefaultChunkSize   int
	DefaultOverlapSize int
	MaxUploadBytes     int64
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
		HTTPPort:     getEnv("HTTP_PORT", "8089"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "./certs"),
		LogDir:       getEnv("LOG_DIR", "./logs"),

		StorageDir:  getEnv("STORAGE_DIR", "./uploads"),
		SQLitePath:  getEnv("SQLITE_PATH", "./docforge.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		OCREnabled: getEnvAsBool("OCR_ENABLED", false),

		DefaultChunkSize:   getEnvAsInt("CHUNK_SIZE", 1000),
		DefaultOverlapSize: getEnvAsInt("OVERLAP_SIZE", 100),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
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
