package kv

import (
	"context"
	"fmt"
	"io"

	"github.com/dukerupert/listkeeper/internal/database"
)

// Open returns the store for driver. The returned closer releases any
// underlying resources and is never nil.
func Open(ctx context.Context, driver, path string) (Store, io.Closer, error) {
	switch driver {
	case DriverSQLite:
		db, err := database.OpenContext(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return NewSQLStore(db), db, nil
	case DriverFile:
		s, err := NewFileStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return s, nopCloser{}, nil
	case DriverMemory:
		return NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
