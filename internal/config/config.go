// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"world-protocol/internal/store"
)

// Config is the full set of WP_* and DB_* settings.
type Config struct {
	Dialect     string `env:"DB_DIALECT" envDefault:"sqlite"`
	SQLitePath  string `env:"DB_SQLITE_PATH" envDefault:"tmp/world_protocol.sqlite"`
	PostgresDSN string `env:"DB_POSTGRES_DSN"`
	DatabaseURL string `env:"DATABASE_URL"`
	DataDir     string `env:"WP_DATA_DIR" envDefault:"tmp/saves"`

	Addr      string   `env:"WP_ADDR" envDefault:":8080"`
	Content   []string `env:"WP_CONTENT" envSeparator:","`
	Seed      int64    `env:"WP_SEED" envDefault:"0"`
	LogLevel  string   `env:"WP_LOG_LEVEL" envDefault:"info"`
	LogFormat string   `env:"WP_LOG_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("unsupported WP_LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// ContentPaths returns the configured packs with blanks removed.
func (c Config) ContentPaths() []string {
	out := make([]string, 0, len(c.Content))
	for _, p := range c.Content {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StoreOptions maps the DB_* settings onto store.Options. DB_POSTGRES_DSN
// wins over DATABASE_URL.
func (c Config) StoreOptions() store.Options {
	dsn := strings.TrimSpace(c.PostgresDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(c.DatabaseURL)
	}
	return store.Options{
		Dialect:     store.Dialect(c.Dialect),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: dsn,
		DataDir:     c.DataDir,
	}
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid WP_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
