package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@db:5432/herd")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 15*time.Second, cfg.AppReadTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "X-Tenant-ID", cfg.TenantHeader)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REDIS_ADDR=127.0.0.1:6390\nCACHE_TTL=30s\n"), 0o600))
	// godotenv never overrides variables that are already present
	for _, key := range []string{"REDIS_ADDR", "CACHE_TTL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "127.0.0.1:6390", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("APP_READ_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AppAddr:         ":8080",
			AppReadTimeout:  time.Second,
			AppWriteTimeout: time.Second,
			ShutdownTimeout: time.Second,
			PGDSN:           "postgres://localhost/herd",
			CacheTTL:        time.Minute,
			WarmupCron:      "0 5 * * *",
			WarmupTimeout:   time.Minute,
			TenantHeader:    "X-Tenant-ID",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty dsn", func(c *Config) { c.PGDSN = "" }, true},
		{"zero read timeout", func(c *Config) { c.AppReadTimeout = 0 }, true},
		{"negative write timeout", func(c *Config) { c.AppWriteTimeout = -time.Second }, true},
		{"redis without ttl", func(c *Config) { c.RedisAddr = "redis:6379"; c.CacheTTL = 0 }, true},
		{"no redis, no ttl", func(c *Config) { c.CacheTTL = 0 }, false},
		{"warmup disabled", func(c *Config) { c.WarmupCron = ""; c.WarmupTimeout = 0 }, false},
		{"empty tenant header", func(c *Config) { c.TenantHeader = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
