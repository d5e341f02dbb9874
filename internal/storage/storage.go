// Package storage defines the filter persistence interface and its implementations.
package storage

import (
	"context"
	"fmt"

	"penny_watch/internal/config"
)

// Storage persists the ordered filter list. Every call round-trips to
// durable storage; implementations keep no cache.
type Storage interface {
	LoadFilters(ctx context.Context) ([]string, error)
	SaveFilters(ctx context.Context, filters []string) error
	Close() error
}

// Open returns the backend selected by cfg.StorageDriver.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return NewSQLite(cfg.DatabasePath)
	case config.DriverJSON, "":
		return NewJSONFile(cfg.FiltersPath), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
