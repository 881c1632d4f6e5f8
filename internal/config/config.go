package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/roadrisk.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// Oracle. An empty MODEL_PATH uses the embedded baseline model; a
	// REMOTE_ORACLE_URL takes precedence over both.
	ModelPath       string        `env:"MODEL_PATH"`
	RemoteOracleURL string        `env:"REMOTE_ORACLE_URL"`
	OracleTimeout   time.Duration `env:"ORACLE_TIMEOUT" envDefault:"2s"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	SessionTTL        time.Duration       `env:"SESSION_TTL" envDefault:"30m"`
	DefaultDifficulty roadrisk.Difficulty `env:"DEFAULT_DIFFICULTY" envDefault:"medium"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads a .env file when one exists, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	d, err := roadrisk.ParseDifficulty(string(cfg.DefaultDifficulty))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_DIFFICULTY: %w", err)
	}
	cfg.DefaultDifficulty = d

	return &cfg, nil
}
