// Package config loads the application configuration from config.yaml,
// environment variables, and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tebogo/mathmate/internal/store"
	"github.com/tebogo/mathmate/internal/textgen"
)

// Config is the fully resolved application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Log     LogConfig
	TextGen textgen.Config
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string
}

// DBConfig selects the database. A "postgres://" DSN picks the Postgres
// driver; anything else is treated as a SQLite path.
type DBConfig struct {
	DSN string
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string
}

// Load resolves configuration with the precedence: environment variables
// (MATHMATE_*), then config.yaml in the working directory, then defaults.
// A .env file is folded into the environment first when present.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	dsn, err := store.DefaultDSN()
	if err != nil {
		return Config{}, fmt.Errorf("resolve default database path: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.dsn", dsn)
	v.SetDefault("log.level", "info")
	v.SetDefault("textgen.provider", "")

	v.SetEnvPrefix("MATHMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// config.yaml is optional; anything else is a real problem.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	cfg := Config{
		Server:  ServerConfig{Addr: v.GetString("server.addr")},
		DB:      DBConfig{DSN: v.GetString("db.dsn")},
		Log:     LogConfig{Level: v.GetString("log.level")},
		TextGen: textgen.ConfigFromEnv(),
	}
	if p := v.GetString("textgen.provider"); p != "" {
		cfg.TextGen.Provider = p
	}
	return cfg, nil
}

// NewLogger builds the application logger at the configured level.
func NewLogger(cfg LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
