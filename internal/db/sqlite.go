// Package db stores the packet diagnostics journal in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// Database is a single-connection SQLite handle. Writes are serialized;
// reads go straight to the pool.
type Database struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewDatabase opens or creates the SQLite file at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			log.Warn().Err(err).Str("pragma", p).Msg("sqlite pragma failed")
		}
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("database opened")
	return &Database{db: sqlDB, path: dbPath}, nil
}

// Migrate applies the steps past the stored user_version, each in its
// own transaction, and returns the resulting schema version.
func (d *Database) Migrate(steps []string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var current int
	if err := d.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	for v := current; v < len(steps); v++ {
		tx, err := d.db.Begin()
		if err != nil {
			return v, err
		}
		if _, err := tx.Exec(steps[v]); err != nil {
			tx.Rollback()
			return v, fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		// PRAGMA does not take bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return v, err
		}
		if err := tx.Commit(); err != nil {
			return v, err
		}
	}
	if current > len(steps) {
		return current, fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(steps))
	}
	return len(steps), nil
}

// Path returns the database file path.
func (d *Database) Path() string { return d.path }

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Exec runs a write statement.
func (d *Database) Exec(query string, args ...interface{}) (sql.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Exec(query, args...)
}

// Query runs a read statement.
func (d *Database) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.db.Query(query, args...)
}
