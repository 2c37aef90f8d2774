// Package storage layers JSON values over a kv.Store with a one-generation
// backup, verified writes and backup promotion on corrupt reads.
//
// Reads never fail: any problem degrades to the caller's default and is
// logged. Writes always report failure as *Error.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/listkeeper/internal/kv"
)

// BackupSuffix is appended to a key to form its shadow key.
const BackupSuffix = "_backup"

const (
	defaultWriteAttempts = 2
	defaultRetryDelay    = 500 * time.Millisecond
)

// BackupKey returns the shadow key holding the previous generation of key.
func BackupKey(key string) string {
	return key + BackupSuffix
}

// IsBackupKey reports whether key is a shadow key.
func IsBackupKey(key string) bool {
	return strings.HasSuffix(key, BackupSuffix)
}

// Facade is safe for concurrent use when the underlying store is.
type Facade struct {
	store         kv.Store
	logger        *slog.Logger
	writeAttempts int
	retryDelay    time.Duration
}

// Option configures a Facade.
type Option func(*Facade)

// WithWriteAttempts sets how many times a write is tried before failing.
func WithWriteAttempts(n int) Option {
	return func(f *Facade) {
		if n > 0 {
			f.writeAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between write attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Facade) {
		if d > 0 {
			f.retryDelay = d
		}
	}
}

func New(store kv.Store, logger *slog.Logger, opts ...Option) *Facade {
	f := &Facade{
		store:         store,
		logger:        logger,
		writeAttempts: defaultWriteAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type setConfig struct {
	backup bool
}

// SetOption adjusts a single SetItem call.
type SetOption func(*setConfig)

// WithoutBackup skips copying the current value to the backup key.
func WithoutBackup() SetOption {
	return func(c *setConfig) { c.backup = false }
}

// SetItem stores value as JSON under key. Unless WithoutBackup is given the
// current raw value is first copied to BackupKey(key); that copy is best
// effort. The primary write is verified by reading it back and retried.
func (f *Facade) SetItem(ctx context.Context, key string, value any, opts ...SetOption) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &Error{Op: "set", Key: key, Err: fmt.Errorf("%w: %v", ErrSerialize, err)}
	}
	return f.SetRaw(ctx, key, string(data), opts...)
}

// SetRaw is SetItem for an already encoded value.
func (f *Facade) SetRaw(ctx context.Context, key, raw string, opts ...SetOption) error {
	cfg := setConfig{backup: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.backup {
		f.copyToBackup(ctx, key)
	}

	attempt := 0
	b := retry.WithMaxRetries(uint64(f.writeAttempts-1), retry.NewConstant(f.retryDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := f.writeVerified(ctx, key, raw); err != nil {
			f.logger.Warn("write attempt failed", "key", key, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		f.logger.Error("write failed", "key", key, "attempts", attempt, "error", err)
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (f *Facade) writeVerified(ctx context.Context, key, raw string) error {
	if err := f.store.Set(ctx, key, raw); err != nil {
		return err
	}
	got, ok, err := f.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if !ok || got != raw {
		return ErrVerifyMismatch
	}
	return nil
}

func (f *Facade) copyToBackup(ctx context.Context, key string) {
	prev, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.logger.Warn("read for backup failed", "key", key, "error", err)
		return
	}
	if !ok {
		return
	}
	if err := f.store.Set(ctx, BackupKey(key), prev); err != nil {
		f.logger.Warn("backup write failed", "key", key, "error", err)
	}
}

type getConfig struct {
	fallback bool
}

// GetOption adjusts a single GetItem call.
type GetOption func(*getConfig)

// WithoutBackupFallback returns the default instead of consulting the backup
// when the primary value is malformed.
func WithoutBackupFallback() GetOption {
	return func(c *getConfig) { c.fallback = false }
}

// GetItem decodes the JSON value at key into a T. An absent key, a store
// error or an unreadable value yields def. When the primary value is
// malformed and the backup decodes, the backup is promoted to the primary
// key and returned.
func GetItem[T any](ctx context.Context, f *Facade, key string, def T, opts ...GetOption) T {
	cfg := getConfig{fallback: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.logger.Warn("read failed, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}

	var v T
	perr := json.Unmarshal([]byte(raw), &v)
	if perr == nil {
		return v
	}
	f.logger.Warn("malformed value", "key", key, "error", perr)

	if !cfg.fallback {
		return def
	}

	backupRaw, ok, err := f.store.Get(ctx, BackupKey(key))
	if err != nil || !ok {
		f.logger.Warn("no usable backup, using default", "key", key, "error", err)
		return def
	}

	var restored T
	if err := json.Unmarshal([]byte(backupRaw), &restored); err != nil {
		f.logger.Warn("malformed backup, using default", "key", key, "error", err)
		return def
	}

	if err := f.store.Set(ctx, key, backupRaw); err != nil {
		f.logger.Warn("promote backup failed", "key", key, "error", err)
	} else {
		f.logger.Info("promoted backup", "key", key)
	}
	return restored
}

// GetRaw returns the raw value at key without decoding it.
func (f *Facade) GetRaw(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil {
		return "", false, &Error{Op: "get", Key: key, Err: err}
	}
	return raw, ok, nil
}

type removeConfig struct {
	keepBackup bool
}

// RemoveOption adjusts a single RemoveItem call.
type RemoveOption func(*removeConfig)

// KeepBackup leaves BackupKey(key) in place.
func KeepBackup() RemoveOption {
	return func(c *removeConfig) { c.keepBackup = true }
}

// RemoveItem deletes key and, unless KeepBackup is given, its backup.
func (f *Facade) RemoveItem(ctx context.Context, key string, opts ...RemoveOption) error {
	var cfg removeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := f.store.Remove(ctx, key); err != nil {
		return &Error{Op: "remove", Key: key, Err: err}
	}
	if cfg.keepBackup {
		return nil
	}
	if err := f.store.Remove(ctx, BackupKey(key)); err != nil {
		return &Error{Op: "remove", Key: BackupKey(key), Err: err}
	}
	return nil
}

// Clear wipes the store but keeps every backup generation: each backup value
// is written back under its backup key and under the key it shadows.
func (f *Facade) Clear(ctx context.Context) error {
	keys, err := f.store.Keys(ctx)
	if err != nil {
		return &Error{Op: "clear", Err: err}
	}

	backups := make(map[string]string)
	for _, k := range keys {
		if !IsBackupKey(k) {
			continue
		}
		v, ok, err := f.store.Get(ctx, k)
		if err != nil {
			return &Error{Op: "clear", Key: k, Err: err}
		}
		if ok {
			backups[k] = v
		}
	}

	if err := f.store.Clear(ctx); err != nil {
		return &Error{Op: "clear", Err: err}
	}

	var errs []error
	for bk, v := range backups {
		original := strings.TrimSuffix(bk, BackupSuffix)
		if err := f.store.Set(ctx, original, v); err != nil {
			errs = append(errs, fmt.Errorf("restore %q: %w", original, err))
		}
		if err := f.store.Set(ctx, bk, v); err != nil {
			errs = append(errs, fmt.Errorf("restore %q: %w", bk, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return &Error{Op: "clear", Err: err}
	}
	f.logger.Info("storage cleared", "preserved_backups", len(backups))
	return nil
}

// Snapshot returns every raw key/value pair in the store.
func (f *Facade) Snapshot(ctx context.Context) (map[string]string, error) {
	keys, err := f.store.Keys(ctx)
	if err != nil {
		return nil, &Error{Op: "snapshot", Err: err}
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := f.store.Get(ctx, k)
		if err != nil {
			return nil, &Error{Op: "snapshot", Key: k, Err: err}
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// Restore replaces the whole store with snapshot.
func (f *Facade) Restore(ctx context.Context, snapshot map[string]string) error {
	if err := f.store.Clear(ctx); err != nil {
		return &Error{Op: "restore", Err: err}
	}
	for k, v := range snapshot {
		if err := f.writeVerified(ctx, k, v); err != nil {
			return &Error{Op: "restore", Key: k, Err: err}
		}
	}
	return nil
}
