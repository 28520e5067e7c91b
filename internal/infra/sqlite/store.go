// Package sqlite provides an embedded catalog and storage engine backed by a
// single SQLite file through GORM.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds SQLite backend configuration.
type Config struct {
	// Path is the database file.
	Path string
	// Debug enables GORM statement logging.
	Debug bool
}

// Store is both the catalog and the storage engine factory. Catalog rows
// and ingested tables live in the same database file.
type Store struct {
	db     *gorm.DB
	path   string
	engine *Engine
}

// Open opens (creating if needed) the database at cfg.Path and migrates the
// catalog schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create database directory: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: get connection pool: %w", err)
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&tableRecord{}, &columnRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate catalog schema: %w", err)
	}

	return &Store{db: db, path: cfg.Path, engine: &Engine{db: db}}, nil
}

// DB returns the underlying GORM database.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite: get connection pool: %w", err)
	}
	return sqlDB.Close()
}
