package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/service"
)

// Open returns the storage backend selected by cfg.Driver. The schema is not
// migrated; callers run Migrate explicitly.
func Open(ctx context.Context, cfg config.DatabaseConfig) (service.Storage, error) {
	switch cfg.Driver {
	case "sqlite", "":
		store, err := NewSQLiteStorage(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStorage(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", common.ErrInvalidConfig, cfg.Driver)
	}
}
