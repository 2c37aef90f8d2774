// Package config loads listkeeper settings from YAML and the environment.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Storage    StorageConfig    `yaml:"storage"`
	Repository RepositoryConfig `yaml:"repository"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Backup     BackupConfig     `yaml:"backup"`
	Debug      bool             `yaml:"debug" env:"LISTKEEPER_DEBUG" env-default:"false"`
}

// StoreConfig selects the key/value backend.
type StoreConfig struct {
	Driver    string `yaml:"driver"    env:"LISTKEEPER_STORE_DRIVER"    env-default:"sqlite"`
	Path      string `yaml:"path"      env:"LISTKEEPER_STORE_PATH"      env-default:"listkeeper.db"`
	Namespace string `yaml:"namespace" env:"LISTKEEPER_STORE_NAMESPACE" env-default:"listkeeper"`
}

// StorageConfig tunes the write-verify loop of the storage facade.
type StorageConfig struct {
	WriteAttempts int           `yaml:"write_attempts" env:"LISTKEEPER_STORAGE_WRITE_ATTEMPTS" env-default:"2"`
	RetryDelay    time.Duration `yaml:"retry_delay"    env:"LISTKEEPER_STORAGE_RETRY_DELAY"    env-default:"500ms"`
}

// RepositoryConfig tunes list loading and read-through lookups.
type RepositoryConfig struct {
	LookupAttempts int           `yaml:"lookup_attempts" env:"LISTKEEPER_LOOKUP_ATTEMPTS" env-default:"3"`
	LookupBackoff  time.Duration `yaml:"lookup_backoff"  env:"LISTKEEPER_LOOKUP_BACKOFF"  env-default:"500ms"`
	StartupDelay   time.Duration `yaml:"startup_delay"   env:"LISTKEEPER_STARTUP_DELAY"   env-default:"0s"`
	// CollapsedByDefault is the state of sections with no saved state.
	CollapsedByDefault bool `yaml:"collapsed_by_default" env:"LISTKEEPER_COLLAPSED_BY_DEFAULT" env-default:"false"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"LISTKEEPER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"LISTKEEPER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"LISTKEEPER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"LISTKEEPER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"LISTKEEPER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	// OriginPatterns restricts websocket origins. Empty allows any origin.
	OriginPatterns []string `yaml:"origin_patterns" env:"LISTKEEPER_ORIGIN_PATTERNS" env-separator:","`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LISTKEEPER_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LISTKEEPER_LOG_FORMAT" env-default:"text"`
}

// BackupConfig holds encrypted remote backup settings. Backups are disabled
// until bucket and keys are set.
type BackupConfig struct {
	Endpoint      string        `yaml:"endpoint"       env:"LISTKEEPER_S3_ENDPOINT"`
	Bucket        string        `yaml:"bucket"         env:"LISTKEEPER_S3_BUCKET"`
	Region        string        `yaml:"region"         env:"LISTKEEPER_S3_REGION"         env-default:"us-east-1"`
	AccessKey     string        `yaml:"access_key"     env:"LISTKEEPER_S3_ACCESS_KEY"`
	SecretKey     string        `yaml:"secret_key"     env:"LISTKEEPER_S3_SECRET_KEY"`
	Prefix        string        `yaml:"prefix"         env:"LISTKEEPER_BACKUP_PREFIX"     env-default:"listkeeper/"`
	Interval      time.Duration `yaml:"interval"       env:"LISTKEEPER_BACKUP_INTERVAL"   env-default:"24h"`
	RetentionDays int           `yaml:"retention_days" env:"LISTKEEPER_BACKUP_RETENTION"  env-default:"30"`
	Passphrase    string        `yaml:"passphrase"     env:"LISTKEEPER_BACKUP_PASSPHRASE"`
}

// Enabled reports whether enough is configured to reach object storage.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != ""
}
