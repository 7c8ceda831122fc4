package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"video-kb/shared/logger"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS videos (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier      TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL,
	full_transcript TEXT NOT NULL,
	summary         TEXT NOT NULL,
	chunks          TEXT NOT NULL DEFAULT '[]',
	created_at      TIMESTAMP NOT NULL
)`

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(ctx context.Context, path string, log *logger.Logger) (Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create videos table: %w", err)
	}

	log.Info("SQLite store opened", "path", path)
	return &sqlStore{db: db, isUniqueError: isSQLiteUnique, log: log}, nil
}

func isSQLiteUnique(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
