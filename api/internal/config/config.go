package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings. It is built once at startup and
// passed by reference into every component; nothing mutates it afterwards.
type Config struct {
	Host string
	Port string

	HuggingFaceToken   string
	HuggingFaceModelID string
	HuggingFaceTimeout time.Duration

	MaxFileSize       int64
	MaxImageDimension int
	JPEGQuality       int

	GeminiAPIKey string
	GeminiModel  string

	DatabaseURL string

	TelegramBotToken string
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("bad %s=%q: %v", k, v, err)
	}
	return n
}

// Load reads the environment (after an optional .env file) into a Config.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Host: getEnv("API_HOST", "0.0.0.0"),
		Port: getEnv("API_PORT", "8000"),

		HuggingFaceToken:   os.Getenv("HUGGINGFACE_API_TOKEN"),
		HuggingFaceModelID: getEnv("HUGGINGFACE_MODEL_ID", "google/vit-base-patch16-224"),
		HuggingFaceTimeout: time.Duration(getEnvInt("HUGGINGFACE_TIMEOUT", 30)) * time.Second,

		MaxFileSize:       int64(getEnvInt("MAX_FILE_SIZE", 10<<20)),
		MaxImageDimension: getEnvInt("MAX_IMAGE_DIMENSION", 1024),
		JPEGQuality:       getEnvInt("JPEG_QUALITY", 85),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
}
