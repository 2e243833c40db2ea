// Package config loads the runtime configuration of the palaver binary from
// PALAVER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	LogLevel  string `env:"PALAVER_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"PALAVER_LOG_FORMAT" envDefault:"text"`
	Debug     bool   `env:"PALAVER_DEBUG"`

	World string `env:"PALAVER_WORLD" envDefault:"world.yaml"`

	Store         string        `env:"PALAVER_STORE" envDefault:"file"`
	SessionDir    string        `env:"PALAVER_SESSION_DIR" envDefault:".palaver/sessions"`
	SessionTTL    time.Duration `env:"PALAVER_SESSION_TTL"`
	RedisAddr     string        `env:"PALAVER_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"PALAVER_REDIS_PASSWORD"`
	RedisDB       int           `env:"PALAVER_REDIS_DB"`

	// SessionKey is a base64 AES-256 key. When set, sessions are sealed at
	// rest. Fallback keys still open sessions sealed before a rotation.
	SessionKey          string   `env:"PALAVER_SESSION_KEY"`
	SessionKeyFallbacks []string `env:"PALAVER_SESSION_KEY_FALLBACKS" envSeparator:","`

	HTTPAddr   string `env:"PALAVER_HTTP_ADDR" envDefault:":8080"`
	StartMoney int    `env:"PALAVER_START_MONEY" envDefault:"0"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize canonicalizes enumerated values. Flags overriding a loaded
// Config must be normalized again before Validate.
func (c *Config) Normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown session store %q (want memory, file or redis)", c.Store)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("session ttl cannot be negative")
	}
	if c.StartMoney < 0 {
		return fmt.Errorf("start money cannot be negative")
	}
	if strings.TrimSpace(c.SessionKey) == "" && len(c.SessionKeyFallbacks) > 0 {
		return fmt.Errorf("session key fallbacks need an active session key")
	}
	return nil
}
