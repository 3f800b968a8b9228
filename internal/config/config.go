package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	AuthTokenTTL time.Duration

	MaxGamesListed int

	MessageOverrideDir string
}

// Load reads configuration from the environment. REDIS_URL and
// DATABASE_URL are optional: without them the server falls back to the
// in-memory stores and skips result archiving.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":8080",
		AuthTokenTTL:   24 * time.Hour,
		MaxGamesListed: 100,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("MESSAGE_TEMPLATE_DIR"))

	if v := strings.TrimSpace(os.Getenv("AUTH_TOKEN_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AuthTokenTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_GAMES_LISTED")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxGamesListed = n
		}
	}

	return cfg, nil
}
