package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/novelstudio/internal/model"
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", model.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		return NewSQLiteStore(cfg.Path)
	case model.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the postgres driver")
		}
		return NewPostgresStore(ctx, cfg.DSN)
	case model.DriverDiskv:
		if err := os.MkdirAll(cfg.DiskvDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating documents directory: %w", err)
		}
		return NewDiskvStore(cfg.DiskvDir), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
