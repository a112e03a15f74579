package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"dhankavach/pkg/logger"
)

// SQLiteDB wraps a single-connection SQLite handle
type SQLiteDB struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
}

// NewSQLite opens (creating if needed) the database at path and applies migrations
func NewSQLite(ctx context.Context, path string, log *logger.Logger) (*SQLiteDB, error) {
	log = log.WithComponent("sqlite")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; every Put serializes on this connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteDB{db: db, path: path, logger: log}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("opened SQLite risk store")
	return s, nil
}

// DB returns the underlying handle
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Ping checks the database connection
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteDB) Close() error {
	s.logger.Info().Msg("closing SQLite risk store")
	return s.db.Close()
}

// WithTx executes fn within a transaction
func (s *SQLiteDB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrate brings the schema to the latest version tracked in PRAGMA user_version
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range sqliteMigrations {
		if m.Version <= current {
			continue
		}

		err := s.WithTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d failed: %w", m.Version, err)
				}
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
				return fmt.Errorf("failed to update schema version: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		s.logger.Info().Int("version", m.Version).Str("description", m.Description).Msg("applied migration")
	}
	return nil
}
