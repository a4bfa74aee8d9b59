// Package store provides the persistence layer: gorm models for users,
// sessions, questions, responses and weaknesses, plus repository interfaces
// over them. SQLite (pure Go) backs development and tests; Postgres backs
// production. The DSN decides which.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store holds the gorm handle and hands out repositories.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at dsn and runs auto-migration.
// DSNs starting with postgres:// (or postgresql://) use the Postgres
// driver; anything else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		if err := applyPragmas(db); err != nil {
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&User{},
		&Session{},
		&Question{},
		&Choice{},
		&Response{},
		&Weakness{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying gorm handle for raw queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users returns a UserRepo backed by this store.
func (s *Store) Users() UserRepo { return &userRepo{db: s.db} }

// Sessions returns a SessionRepo backed by this store.
func (s *Store) Sessions() SessionRepo { return &sessionRepo{db: s.db} }

// Questions returns a QuestionRepo backed by this store.
func (s *Store) Questions() QuestionRepo { return &questionRepo{db: s.db} }

// Responses returns a ResponseRepo backed by this store.
func (s *Store) Responses() ResponseRepo { return &responseRepo{db: s.db} }

// Weaknesses returns a WeaknessRepo backed by this store.
func (s *Store) Weaknesses() WeaknessRepo { return &weaknessRepo{db: s.db} }

// applyPragmas configures SQLite for concurrent webhook handling.
func applyPragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDSN resolves the database location in priority order:
// 1. MATHMATE_DB environment variable
// 2. $XDG_DATA_HOME/mathmate/mathmate.db
// 3. ~/.local/share/mathmate/mathmate.db
func DefaultDSN() (string, error) {
	if p := os.Getenv("MATHMATE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mathmate", "mathmate.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
// No-op for non-file DSNs.
func EnsureDir(path string) error {
	if strings.Contains(path, "://") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
