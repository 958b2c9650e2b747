package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// BaseURL is the public origin used in invitation and edit links.
	BaseURL string

	DatabaseFile string // Path to SQLite database file (default: ./kalaskoll.db)
	SessionKey   string // Required in prod: HS256 session signing secret
	DataKeyPath  string // Optional: path to the allergy-data encryption key file
	Issuer       string // Token issuer and TOTP issuer (default: kalaskoll)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Retention sweep interval (default: 1h)

	// Outbound providers. Empty base URLs disable the integration, which
	// keeps local development working without accounts.
	EmailBaseURL string
	EmailAPIKey  string
	EmailFrom    string

	SMSBaseURL  string
	SMSUsername string
	SMSPassword string
	SMSFrom     string

	ImageBaseURL string
	ImageAPIKey  string
	ImageModel   string
}

func LoadConfig() Config {
	return Config{
		BaseURL:      getEnvOrDefault("KALAS_BASE_URL", "http://localhost:8080"),
		DatabaseFile: getEnvOrDefault("KALAS_DATABASE_FILE", "kalaskoll.db"),
		SessionKey:   os.Getenv("KALAS_SESSION_KEY"),
		DataKeyPath:  os.Getenv("KALAS_DATA_KEY_PATH"),
		Issuer:       getEnvOrDefault("KALAS_ISSUER", "kalaskoll"),

		Env:       getEnvOrDefault("KALAS_ENV", "dev"),
		LogLevel:  getEnvOrDefault("KALAS_LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("KALAS_LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("KALAS_PORT", 8080),

		ShutdownGracePeriod:  getEnvDurationOrDefault("KALAS_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("KALAS_HOUSEKEEPING_INTERVAL", 1*time.Hour),

		EmailBaseURL: os.Getenv("KALAS_EMAIL_BASE_URL"),
		EmailAPIKey:  os.Getenv("KALAS_EMAIL_API_KEY"),
		EmailFrom:    getEnvOrDefault("KALAS_EMAIL_FROM", "KalasKoll <hej@kalaskoll.se>"),

		SMSBaseURL:  os.Getenv("KALAS_SMS_BASE_URL"),
		SMSUsername: os.Getenv("KALAS_SMS_USERNAME"),
		SMSPassword: os.Getenv("KALAS_SMS_PASSWORD"),
		SMSFrom:     getEnvOrDefault("KALAS_SMS_FROM", "KalasKoll"),

		ImageBaseURL: os.Getenv("KALAS_IMAGE_BASE_URL"),
		ImageAPIKey:  os.Getenv("KALAS_IMAGE_API_KEY"),
		ImageModel:   getEnvOrDefault("KALAS_IMAGE_MODEL", "dall-e-3"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
