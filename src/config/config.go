package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Upload limits
	MaxUploadSizeBytes int64

	// External data sources
	FXAPIURLs    []string
	StooqBaseURL string
	HTTPTimeout  time.Duration

	// Cache windows for external fetches
	FXCacheTTL    time.Duration
	PriceCacheTTL time.Duration

	// Parallelism for per-row computation
	ComputeWorkers int

	// CORS
	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	// USD-base rate providers, tried in order. Each must return a JSON body with
	// a "rates" or "conversion_rates" object keyed by currency code.
	fxURLs := getEnvAsList("FX_API_URLS", []string{
		"https://open.er-api.com/v6/latest/USD",
		"https://api.exchangerate.host/latest?base=USD",
	})

	Cfg = &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxUploadSizeBytes: maxUploadSizeBytes,

		FXAPIURLs:    fxURLs,
		StooqBaseURL: getEnv("STOOQ_BASE_URL", "https://stooq.com"),
		HTTPTimeout:  getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),

		FXCacheTTL:    getEnvAsDuration("FX_CACHE_TTL", 5*time.Minute),
		PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", 1*time.Minute),

		ComputeWorkers: getEnvAsInt("COMPUTE_WORKERS", 8),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, FXProviders=%d, StooqBaseURL=%s",
		Cfg.Port, Cfg.LogLevel, len(Cfg.FXAPIURLs), Cfg.StooqBaseURL)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable as a string slice.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
