package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("DOCUMENT_ENGINE_BASE_URL", "http://engine:5000")
	t.Setenv("DOCUMENT_ENGINE_MAX_RETRIES", "4")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "http://engine:5000", cfg.DocumentEngine.BaseURL)
	assert.Equal(t, 4, cfg.DocumentEngine.MaxRetries)
	assert.Equal(t, int64(2048), cfg.Upload.MaxBytes)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DOCUMENT_ENGINE_MAX_RETRIES",
		"DOCUMENT_ENGINE_RETRY_DELAY_MS",
		"DOCUMENT_ENGINE_MAX_DOWNLOAD_BYTES",
		"UPLOAD_MAX_BYTES",
		"NUTRIENT_API_BASE_URL",
		"SESSION_TTL_HOURS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 2, cfg.DocumentEngine.MaxRetries)
	assert.Equal(t, 1000, cfg.DocumentEngine.RetryDelayMs)
	assert.Equal(t, int64(100*1024*1024), cfg.DocumentEngine.MaxDownloadBytes)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "https://api.nutrient.io/", cfg.Signing.BaseURL)
	assert.Equal(t, 24, cfg.Auth.SessionTTLHours)
	assert.Equal(t, "docportal_session", cfg.Auth.SessionCookie)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Setenv(key, "10485760")
	assert.Equal(t, int64(10485760), getEnvInt64(key, 0))

	os.Setenv(key, "nope")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))

	os.Unsetenv(key)
}
