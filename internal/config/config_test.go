package config_test

import (
	"testing"
	"time"

	"github.com/aretw0/palaver/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Equal(t, ".palaver/sessions", cfg.SessionDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Zero(t, cfg.SessionTTL)
	assert.False(t, cfg.Debug)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PALAVER_STORE", " Redis ")
	t.Setenv("PALAVER_REDIS_ADDR", "cache:6380")
	t.Setenv("PALAVER_REDIS_DB", "2")
	t.Setenv("PALAVER_SESSION_TTL", "90m")
	t.Setenv("PALAVER_DEBUG", "true")
	t.Setenv("PALAVER_START_MONEY", "25")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 25, cfg.StartMoney)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown store", "PALAVER_STORE", "postgres"},
		{"bad duration", "PALAVER_SESSION_TTL", "soon"},
		{"negative money", "PALAVER_START_MONEY", "-1"},
		{"bad bool", "PALAVER_DEBUG", "maybe"},
		{"fallbacks without key", "PALAVER_SESSION_KEY_FALLBACKS", "a2V5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_NormalizeBeforeValidate(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	// A flag override arrives raw.
	cfg.Store = " Memory "
	cfg.LogFormat = "JSON"
	assert.Error(t, cfg.Validate())

	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_SessionKeys(t *testing.T) {
	t.Setenv("PALAVER_SESSION_KEY", "bmV3")
	t.Setenv("PALAVER_SESSION_KEY_FALLBACKS", "b2xk,b2xkZXI=")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "bmV3", cfg.SessionKey)
	assert.Equal(t, []string{"b2xk", "b2xkZXI="}, cfg.SessionKeyFallbacks)
}
