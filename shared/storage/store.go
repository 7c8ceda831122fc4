package storage

import (
	"context"
	"errors"
	"fmt"

	"video-kb/internal/models"
	"video-kb/shared/config"
	"video-kb/shared/logger"
)

var (
	// ErrAlreadyExists is returned by Insert when the identifier is already stored.
	ErrAlreadyExists = errors.New("video already exists")
	// ErrNotFound is returned by FindByIdentifier when nothing matches.
	ErrNotFound = errors.New("video not found")
)

// Store is the knowledge base of processed videos. Records are never updated
// in place. Insert enforces identifier uniqueness.
type Store interface {
	// Insert assigns v.ID (and CreatedAt when zero) and persists v.
	Insert(ctx context.Context, v *models.Video) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.Video, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]*models.Video, error)
	// DeleteByID reports whether a record was removed.
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.StorageConfig, log *logger.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLiteStore(ctx, cfg.Path, log)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, log)
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.DSN, cfg.Database, cfg.Collection, log)
	case config.DriverFile:
		return NewFileStore(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
