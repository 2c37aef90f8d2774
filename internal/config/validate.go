package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukerupert/listkeeper/internal/kv"
)

var (
	drivers    = []string{kv.DriverSQLite, kv.DriverFile, kv.DriverMemory}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("store.driver must be one of %s (got %q)", strings.Join(drivers, ", "), c.Store.Driver)
	}
	if c.Store.Driver != kv.DriverMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the %s driver", c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.Namespace) == "" {
		return fmt.Errorf("store.namespace must not be empty")
	}

	if c.Storage.WriteAttempts <= 0 {
		return fmt.Errorf("storage.write_attempts must be > 0 (got %d)", c.Storage.WriteAttempts)
	}
	if c.Storage.RetryDelay < 0 {
		return fmt.Errorf("storage.retry_delay must be >= 0 (got %v)", c.Storage.RetryDelay)
	}

	if c.Repository.LookupAttempts <= 0 {
		return fmt.Errorf("repository.lookup_attempts must be > 0 (got %d)", c.Repository.LookupAttempts)
	}
	if c.Repository.LookupBackoff <= 0 {
		return fmt.Errorf("repository.lookup_backoff must be > 0 (got %v)", c.Repository.LookupBackoff)
	}
	if c.Repository.StartupDelay < 0 {
		return fmt.Errorf("repository.startup_delay must be >= 0 (got %v)", c.Repository.StartupDelay)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %s (got %q)", strings.Join(logLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %s (got %q)", strings.Join(logFormats, ", "), c.Log.Format)
	}

	if err := c.Backup.validate(); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	return nil
}

func (b *BackupConfig) validate() error {
	if b.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", b.Interval)
	}
	if b.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be > 0 (got %d)", b.RetentionDays)
	}
	partial := b.Bucket != "" || b.AccessKey != "" || b.SecretKey != ""
	if partial && !b.Enabled() {
		return fmt.Errorf("bucket, access_key and secret_key must be set together")
	}
	return nil
}
