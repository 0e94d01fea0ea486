// Package tokenstore persists the console's access/refresh token pair between
// runs.
package tokenstore

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/stockroom/internal/console/tokenstore/drivers/sqlite"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Store is a TokenStore that owns resources.
type Store interface {
	invsdk.TokenStore

	// Close releases any underlying resources.
	Close() error
}

// Config selects and configures the driver.
type Config struct {
	Driver string
	// Path is the SQLite database file. Ignored by the memory driver.
	Path string
}

// Open returns the configured store. The SQLite driver creates the database
// file if needed and brings its schema up to date.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverMemory:
		return memoryStore{invsdk.NewMemoryTokenStore()}, nil

	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("tokenstore: sqlite driver needs a path")
		}
		s, err := sqlite.NewStore(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: open %s: %w", cfg.Path, err)
		}
		if err := s.ApplyMigrations(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("tokenstore: migrate %s: %w", cfg.Path, err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("tokenstore: unknown driver %q", cfg.Driver)
	}
}

type memoryStore struct {
	*invsdk.MemoryTokenStore
}

func (memoryStore) Close() error { return nil }
