// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"POSTBOARD_DB_PATH" envDefault:"./data/postboard.db"`
	ServerHost string `env:"POSTBOARD_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"POSTBOARD_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"POSTBOARD_ENV" envDefault:"development"`
	LogLevel   string `env:"POSTBOARD_LOG_LEVEL" envDefault:"info"`

	// Admin seeding configuration. The public signup path can never set the
	// admin flag; the only way to provision an admin is through the seed.
	DoSeed        bool   `env:"POSTBOARD_DO_SEED" envDefault:"false"`
	AdminUsername string `env:"POSTBOARD_ADMIN_USERNAME" envDefault:"administrator"`
	AdminPassword string `env:"POSTBOARD_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
