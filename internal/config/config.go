package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for signature appearance images.
// Storage is optional; an empty endpoint disables it.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DocumentEngineConfig holds settings for the external document engine.
type DocumentEngineConfig struct {
	BaseURL           string
	APIKey            string
	PrivateKeyPath    string
	RequestTimeoutSec int
	MaxRetries        int
	RetryDelayMs      int
	// MaxDownloadBytes caps a PDF fetched from the engine.
	MaxDownloadBytes int64
}

// SigningConfig holds settings for the external digital signature API.
type SigningConfig struct {
	BaseURL           string
	APIKey            string
	RequestTimeoutSec int
	// DefaultImageKey is the object key used for custom appearances when the signer has no image of their own.
	DefaultImageKey string
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionTTLHours int
	SessionCookie   string
	SweepSchedule   string
	SweepEnabled    bool
}

// UploadConfig holds limits for uploaded files.
type UploadConfig struct {
	MaxBytes      int64
	MaxImageBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	Database       DatabaseConfig
	MinIO          MinIOConfig
	DocumentEngine DocumentEngineConfig
	Signing        SigningConfig
	Auth           AuthConfig
	Upload         UploadConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		DocumentEngine: DocumentEngineConfig{
			BaseURL:           getEnv("DOCUMENT_ENGINE_BASE_URL", ""),
			APIKey:            getEnv("DOCUMENT_ENGINE_API_KEY", ""),
			PrivateKeyPath:    getEnv("DOCUMENT_ENGINE_PRIVATE_KEY_PATH", ""),
			RequestTimeoutSec: getEnvInt("DOCUMENT_ENGINE_TIMEOUT_SEC", 60),
			MaxRetries:        getEnvInt("DOCUMENT_ENGINE_MAX_RETRIES", 2),
			RetryDelayMs:      getEnvInt("DOCUMENT_ENGINE_RETRY_DELAY_MS", 1000),
			MaxDownloadBytes:  getEnvInt64("DOCUMENT_ENGINE_MAX_DOWNLOAD_BYTES", 100*1024*1024),
		},
		Signing: SigningConfig{
			BaseURL:           getEnv("NUTRIENT_API_BASE_URL", "https://api.nutrient.io/"),
			APIKey:            getEnv("NUTRIENT_API_KEY", ""),
			RequestTimeoutSec: getEnvInt("NUTRIENT_API_TIMEOUT_SEC", 60),
			DefaultImageKey:   getEnv("SIGNATURE_DEFAULT_IMAGE_KEY", "signatures/default.png"),
		},
		Auth: AuthConfig{
			SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
			SessionCookie:   getEnv("SESSION_COOKIE", "docportal_session"),
			SweepSchedule:   getEnv("SESSION_SWEEP_SCHEDULE", "@every 1h"),
			SweepEnabled:    getEnvBool("SESSION_SWEEP_ENABLED", true),
		},
		Upload: UploadConfig{
			MaxBytes:      getEnvInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
			MaxImageBytes: getEnvInt64("SIGNATURE_IMAGE_MAX_BYTES", 1024*1024),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
