// Package backup ships encrypted snapshots of the key/value store to
// S3-compatible object storage and restores them.
package backup

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/storage"
	"github.com/dukerupert/listkeeper/internal/store"
)

const (
	snapshotVersion      = 1
	defaultInterval      = 24 * time.Hour
	defaultRetentionDays = 30
	defaultPrefix        = "listkeeper/"
)

var (
	ErrNotConfigured  = errors.New("backup not configured: S3 credentials missing")
	ErrNoPassphrase   = errors.New("backup passphrase not provided")
	ErrBackupNotFound = errors.New("backup not found")
	ErrBusy           = errors.New("another backup operation is running")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration.
type Config struct {
	S3 S3Config
	// Prefix is prepended to every object key.
	Prefix string
	// Interval between scheduled backups.
	Interval      time.Duration
	RetentionDays int
	// Passphrase, when set, enables scheduled backups from startup.
	Passphrase string
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"lastBackup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"inProgress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// snapshot is the plaintext document inside an encrypted backup.
type snapshot struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Keys      map[string]string `json:"keys"`
}

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	facade        *storage.Facade
	backupStore   *store.BackupStore
	settingsStore *store.SettingsStore
	client        s3Client

	// passphrase for scheduled backups, memory only
	passphrase string

	opMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager.
func NewManager(cfg Config, facade *storage.Facade, bs *store.BackupStore, ss *store.SettingsStore, logger *slog.Logger, callback StatusCallback) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Manager{
		cfg:           cfg,
		facade:        facade,
		backupStore:   bs,
		settingsStore: ss,
		logger:        logger,
		callback:      callback,
		passphrase:    cfg.Passphrase,
		status:        Status{State: StateDisabled},
	}

	if cfg.S3.complete() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// UpdateS3Config hot-reloads the S3 configuration.
func (m *Manager) UpdateS3Config(s3cfg S3Config) {
	m.mu.Lock()
	m.cfg.S3 = s3cfg
	if s3cfg.complete() {
		m.client = newS3Client(s3cfg)
		m.status.State = StateIdle
	} else {
		m.client = nil
		m.status.State = StateDisabled
	}
	status := m.status
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(status)
	}
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scheduled(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(id string, err error) {
	if id != "" && m.backupStore != nil {
		if uerr := m.backupStore.UpdateStatus(context.Background(), id, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Warn("record backup failure", "backup_id", id, "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: err.Error()})
}

// CacheKey keeps the passphrase in memory for scheduled backups.
func (m *Manager) CacheKey(passphrase string) {
	m.mu.Lock()
	m.passphrase = passphrase
	m.mu.Unlock()
}

// HasCachedKey reports whether scheduled backups can run.
func (m *Manager) HasCachedKey() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.passphrase != ""
}

func (m *Manager) scheduled(ctx context.Context) {
	m.mu.RLock()
	passphrase := m.passphrase
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()

	if passphrase == "" {
		m.logger.Info("skipping scheduled backup, no cached passphrase")
		return
	}

	if _, err := m.RunNow(ctx, passphrase); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx, retention); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow runs a backup immediately with the provided passphrase and returns
// the id of the new backup record.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrNoPassphrase
	}
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return "", ErrNotConfigured
	}
	if !m.opMu.TryLock() {
		return "", ErrBusy
	}
	defer m.opMu.Unlock()

	salt, err := m.salt(ctx)
	if err != nil {
		return "", err
	}
	return m.runBackup(ctx, passphrase, salt)
}

// salt returns the persisted key-derivation salt, creating it on first use.
func (m *Manager) salt(ctx context.Context) ([]byte, error) {
	settings, err := m.settingsStore.GetBackupSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get backup settings: %w", err)
	}
	if saltHex := settings[store.SettingBackupSalt]; saltHex != "" {
		salt, err := hex.DecodeString(saltHex)
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
		return salt, nil
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	if err := m.settingsStore.Set(ctx, store.SettingBackupSalt, hex.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("save salt: %w", err)
	}
	return salt, nil
}

func (m *Manager) runBackup(ctx context.Context, passphrase string, salt []byte) (string, error) {
	// Copy S3 client and bucket under lock
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	prefix := m.cfg.Prefix
	m.mu.RUnlock()

	m.setStatus(Status{State: StateRunning, InProgress: true})

	now := time.Now().UTC()
	filename := fmt.Sprintf("backup-%s.json.enc", now.Format("2006-01-02T150405Z"))
	objectKey := prefix + filename

	record, err := m.backupStore.Create(ctx, filename, objectKey)
	if err != nil {
		m.fail("", err)
		return "", fmt.Errorf("create backup record: %w", err)
	}
	if err := m.backupStore.UpdateStatus(ctx, record.ID, model.BackupStatusUploading, ""); err != nil {
		m.logger.Warn("mark backup uploading", "backup_id", record.ID, "error", err)
	}

	keys, err := m.facade.Snapshot(ctx)
	if err != nil {
		m.fail(record.ID, err)
		return "", fmt.Errorf("snapshot storage: %w", err)
	}
	history := m.backupStore.Key()
	delete(keys, history)
	delete(keys, storage.BackupKey(history))

	plaintext, err := json.Marshal(snapshot{Version: snapshotVersion, CreatedAt: now, Keys: keys})
	if err != nil {
		m.fail(record.ID, err)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	encrypted, err := Encrypt(plaintext, passphrase, salt)
	if err != nil {
		m.fail(record.ID, err)
		return "", fmt.Errorf("encrypt: %w", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(encrypted),
		ContentLength: aws.Int64(int64(len(encrypted))),
	})
	if err != nil {
		m.fail(record.ID, err)
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.backupStore.UpdateCompleted(ctx, record.ID, int64(len(encrypted)), len(keys)); err != nil {
		m.logger.Warn("mark backup completed", "backup_id", record.ID, "error", err)
	}

	done := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &done})
	m.logger.Info("backup uploaded", "backup_id", record.ID, "object_key", objectKey, "keys", len(keys), "bytes", len(encrypted))

	return record.ID, nil
}

// List returns the backup history, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]model.Backup, error) {
	return m.backupStore.List(ctx, limit)
}

// Restore downloads a backup, decrypts it and replaces the contents of the
// key/value store with it. The backup history itself is kept as it is now.
// It returns the number of restored keys. Callers must reload any state
// they cache from storage.
func (m *Manager) Restore(ctx context.Context, backupID, passphrase string) (int, error) {
	if passphrase == "" {
		return 0, ErrNoPassphrase
	}
	if !m.opMu.TryLock() {
		return 0, ErrBusy
	}
	defer m.opMu.Unlock()

	body, _, err := m.Download(ctx, backupID)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}

	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return 0, fmt.Errorf("decrypt backup: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Keys == nil {
		snap.Keys = map[string]string{}
	}
	restored := len(snap.Keys)

	for _, k := range []string{m.backupStore.Key(), storage.BackupKey(m.backupStore.Key())} {
		raw, ok, err := m.facade.GetRaw(ctx, k)
		if err != nil {
			return 0, fmt.Errorf("read backup history: %w", err)
		}
		if ok {
			snap.Keys[k] = raw
		}
	}

	if err := m.facade.Restore(ctx, snap.Keys); err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("restore storage: %w", err)
	}

	m.logger.Info("backup restored", "backup_id", backupID, "keys", restored)
	return restored, nil
}

// Download streams an encrypted backup from S3.
func (m *Manager) Download(ctx context.Context, backupID string) (io.ReadCloser, int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, 0, ErrNotConfigured
	}

	record, err := m.backupStore.GetByID(ctx, backupID)
	if err != nil {
		return nil, 0, fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return nil, 0, ErrBackupNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.ObjectKey),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("download from s3: %w", err)
	}

	return result.Body, record.SizeBytes, nil
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := time.Now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.backupStore.DeleteOlderThan(ctx, before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete backup object", "object_key", key, "error", err)
		}
	}

	return nil
}
