package database

import (
	"context"
	"fmt"

	"github.com/Paul-frank/todo-tracker-api/internal/models"
)

// Store is a todo store that can also be migrated, pinged and closed.
type Store interface {
	GetAllByOwner(ctx context.Context, owner string) ([]models.RawRecord, error)
	GetByKey(ctx context.Context, owner, id string) (models.RawRecord, bool, error)
	PutWhole(ctx context.Context, t models.Todo) error
	DeleteByKey(ctx context.Context, owner, id string) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*Database)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open connects to the store selected by driver ("sqlite3" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite3", "sqlite":
		db, err := NewDatabase(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres", "pgx":
		pg, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
