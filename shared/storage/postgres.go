package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"video-kb/shared/logger"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS videos (
	id              BIGSERIAL PRIMARY KEY,
	identifier      TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL,
	full_transcript TEXT NOT NULL,
	summary         TEXT NOT NULL,
	chunks          TEXT NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL
)`

const pgUniqueViolation = "23505"

// NewPostgresStore connects through the pgx database/sql driver.
func NewPostgresStore(ctx context.Context, dsn string, log *logger.Logger) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create videos table: %w", err)
	}

	log.Info("Postgres store connected")
	return &sqlStore{db: db, numbered: true, isUniqueError: isPostgresUnique, log: log}, nil
}

func isPostgresUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
