// Package kv provides durable string key/value stores.
//
// Stores hold raw strings only and never cache. Every failure of the
// underlying medium is returned to the caller wrapped with the operation
// and key that failed.
package kv

import (
	"context"
	"fmt"
	"strings"
)

// Store is a device-local string key/value store.
type Store interface {
	// Get returns the value at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys returns every key in the store, sorted.
	Keys(ctx context.Context) ([]string, error)
	// Clear removes every key.
	Clear(ctx context.Context) error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

func opError(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("kv %s: %w", op, err)
	}
	return fmt.Errorf("kv %s %q: %w", op, key, err)
}

// WithPrefix returns the keys that start with prefix.
func WithPrefix(keys []string, prefix string) []string {
	var out []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
