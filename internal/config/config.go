package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings, read from the environment
type Config struct {
	Addr         string        `env:"AOE4COMPANION_ADDR" envDefault:"127.0.0.1:5555"`
	APIBaseURL   string        `env:"AOE4WORLD_BASE_URL" envDefault:"https://aoe4world.com/api/v0"`
	DBPath       string        `env:"AOE4COMPANION_DB_PATH"`
	DatabaseURL  string        `env:"DATABASE_URL"` // optional archive
	PollInterval time.Duration `env:"AOE4COMPANION_POLL_INTERVAL" envDefault:"60s"`
	Leaderboard  string        `env:"AOE4COMPANION_LEADERBOARD" envDefault:"rm_solo"`
	HistoryLimit int           `env:"AOE4COMPANION_HISTORY_LIMIT" envDefault:"10"`
}

// envPaths are tried in order; the first .env found wins
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found and reports its path
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = envPaths
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("[Config] Loaded .env from: %s", path)
			return path
		}
	}
	log.Println("[Config] No .env file found, using environment variables")
	return ""
}

// Load reads .env (if any) and parses the environment
func Load() (*Config, error) {
	LoadDotEnv()
	return Parse()
}

// Parse reads configuration from environment variables only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PollInterval < 5*time.Second {
		return nil, fmt.Errorf("poll interval %s is too short (minimum 5s)", cfg.PollInterval)
	}
	return &cfg, nil
}
