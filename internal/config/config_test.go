package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Pin the database location so the default DSN resolves without
	// touching the real data directory.
	dbPath := filepath.Join(t.TempDir(), "mathmate.db")
	t.Setenv("MATHMATE_DB", dbPath)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, dbPath, cfg.DB.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.TextGen.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATHMATE_DB", filepath.Join(t.TempDir(), "mathmate.db"))
	t.Setenv("MATHMATE_SERVER_ADDR", ":9999")
	t.Setenv("MATHMATE_LOG_LEVEL", "debug")
	t.Setenv("MATHMATE_TEXTGEN_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "openai", cfg.TextGen.Provider)
}

func TestNewLogger_LevelFallback(t *testing.T) {
	log := NewLogger(LogConfig{Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger(LogConfig{Level: "not-a-level"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
