package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "memory", cfg.Blob.Backend)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.Equal(t, "none", cfg.Notify.Sink)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.Equal(t, 3, cfg.Blob.RetryAttempts)

	assert.Equal(t, "recruitment", cfg.Profiles.Recruitment.Name)
	assert.Equal(t, "requested_docs", cfg.Profiles.RequestedDocs.Name)
	assert.NotEqual(t, cfg.Profiles.Recruitment.AllowedTypes, cfg.Profiles.RequestedDocs.AllowedTypes)
	assert.NotEqual(t, cfg.Profiles.Recruitment.MaxFileSize, cfg.Profiles.RequestedDocs.MaxFileSize)
}

func TestFromEnv_ProfileOverrides(t *testing.T) {
	t.Setenv("PROFILE_REQUESTED_DOCS_TYPES", "Application/PDF, image/webp,application/pdf,")
	t.Setenv("PROFILE_REQUESTED_DOCS_MAX_BYTES", "2048")
	t.Setenv("PROFILE_REQUESTED_DOCS_VERIFY", "false")
	t.Setenv("BLOB_RETRY_BACKOFF", "1s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	p := cfg.Profiles.RequestedDocs
	assert.Equal(t, []string{"application/pdf", "image/webp"}, p.AllowedTypes)
	assert.Equal(t, int64(2048), p.MaxFileSize)
	assert.False(t, p.VerifyContent)
	assert.Equal(t, time.Second, cfg.Blob.RetryBackoff)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("malformed number", func(t *testing.T) {
		t.Setenv("PROFILE_RECRUITMENT_MAX_BYTES", "five")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROFILE_RECRUITMENT_MAX_BYTES")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("BLOB_BACKEND", "s3")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BLOB_BUCKET")
	})

	t.Run("redis lock without url", func(t *testing.T) {
		t.Setenv("LOCK_BACKEND", "redis")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("production requires secrets", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProduction)
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
		assert.Contains(t, err.Error(), "ADMIN_TOKEN")
	})
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HR_PORTAL_ADDR=:9999\nNOTIFY_SINK=kafka\nKAFKA_BROKERS=localhost:9092\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("HR_PORTAL_ADDR")
		_ = os.Unsetenv("NOTIFY_SINK")
		_ = os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Notify.KafkaBrokers)
}
