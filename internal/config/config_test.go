// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/postboard.db", cfg.DBPath)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.DoSeed)
	assert.Equal(t, "administrator", cfg.AdminUsername)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTBOARD_SERVER_HOST", "0.0.0.0")
	t.Setenv("POSTBOARD_SERVER_PORT", "9000")
	t.Setenv("POSTBOARD_ENV", "production")
	t.Setenv("POSTBOARD_DO_SEED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr())
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.DoSeed)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("POSTBOARD_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{LogLevel: tt.level}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}
