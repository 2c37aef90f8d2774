package backup

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/listkeeper/internal/kv"
	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/storage"
	"github.com/dukerupert/listkeeper/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, nil, nil, nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// With S3 config -> idle
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, nil, nil)
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, nil, cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerCachedKey(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, nil)

	if m.HasCachedKey() {
		t.Error("expected no cached key")
	}

	m.CacheKey("passphrase")

	if !m.HasCachedKey() {
		t.Error("expected cached key")
	}

	m2 := NewManager(Config{Passphrase: "from-config"}, nil, nil, nil, nil, nil)
	if !m2.HasCachedKey() {
		t.Error("expected configured passphrase to be cached")
	}
}

func TestUpdateS3Config(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	// Start disabled
	m := NewManager(Config{}, nil, nil, nil, nil, cb)
	if m.Status().State != StateDisabled {
		t.Fatalf("initial state = %q, want %q", m.Status().State, StateDisabled)
	}

	// Set valid config -> transitions to idle
	m.UpdateS3Config(S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Region: "us-east-1"})
	if m.Status().State != StateIdle {
		t.Errorf("state after set = %q, want %q", m.Status().State, StateIdle)
	}

	// Clear config -> transitions back to disabled
	m.UpdateS3Config(S3Config{})
	if m.Status().State != StateDisabled {
		t.Errorf("state after clear = %q, want %q", m.Status().State, StateDisabled)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateIdle {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateIdle)
	}
	if received[1].State != StateDisabled {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateDisabled)
	}
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, nil)

	ctx := context.Background()
	m.Start(ctx) // should be a no-op for disabled state

	// Stop should not block
	m.Stop()

	if _, err := m.RunNow(ctx, "passphrase"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("RunNow err = %v, want ErrNotConfigured", err)
	}
}

type managerFixture struct {
	m       *Manager
	s3      *mockS3Client
	facade  *storage.Facade
	backups *store.BackupStore
}

func setupManager(t *testing.T) *managerFixture {
	t.Helper()
	facade := storage.New(kv.NewMemoryStore(), logging.Discard(), storage.WithRetryDelay(time.Millisecond))
	bs := store.NewBackupStore(facade, "")
	ss := store.NewSettingsStore(facade, "")
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, facade, bs, ss, logging.Discard(), nil)
	mock := newMockS3()
	m.client = mock
	return &managerFixture{m: m, s3: mock, facade: facade, backups: bs}
}

func TestRunNowAndRestore(t *testing.T) {
	ctx := context.Background()
	f := setupManager(t)
	listsKey := store.ListsKey(store.DefaultNamespace)

	if err := f.facade.SetRaw(ctx, listsKey, `[{"id":"a","name":"Weekly","items":[]}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	id, err := f.m.RunNow(ctx, "secret-passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := f.backups.GetByID(ctx, id)
	if err != nil || record == nil {
		t.Fatalf("get record: %v %v", record, err)
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", record.Status)
	}
	if record.SizeBytes == 0 || record.KeyCount == 0 {
		t.Errorf("expected size and key count, got %d bytes %d keys", record.SizeBytes, record.KeyCount)
	}
	if _, ok := f.s3.objects[record.ObjectKey]; !ok {
		t.Fatalf("object %q not uploaded", record.ObjectKey)
	}
	if strings.Contains(string(f.s3.objects[record.ObjectKey]), "Weekly") {
		t.Error("uploaded object should be encrypted")
	}
	if f.m.Status().State != StateIdle || f.m.Status().LastBackup == nil {
		t.Errorf("unexpected status %+v", f.m.Status())
	}

	if err := f.facade.SetRaw(ctx, listsKey, `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	if _, err := f.m.Restore(ctx, id, "wrong"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}

	n, err := f.m.Restore(ctx, id, "secret-passphrase")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n == 0 {
		t.Error("expected restored keys")
	}

	raw, ok, err := f.facade.GetRaw(ctx, listsKey)
	if err != nil || !ok {
		t.Fatalf("read restored: %v %v", ok, err)
	}
	if raw != `[{"id":"a","name":"Weekly","items":[]}]` {
		t.Errorf("restored lists = %s", raw)
	}

	// History survives the restore.
	if got, _ := f.backups.GetByID(ctx, id); got == nil {
		t.Error("backup history lost on restore")
	}
}

func TestRestoreUnknownBackup(t *testing.T) {
	f := setupManager(t)
	_, err := f.m.Restore(context.Background(), "missing", "passphrase")
	if !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("err = %v, want ErrBackupNotFound", err)
	}
}

func TestRunNowUploadFailure(t *testing.T) {
	ctx := context.Background()
	f := setupManager(t)
	f.s3.putErr = errors.New("bucket unavailable")

	if _, err := f.m.RunNow(ctx, "passphrase"); err == nil {
		t.Fatal("expected upload error")
	}
	if f.m.Status().State != StateError {
		t.Errorf("state = %q, want error", f.m.Status().State)
	}

	list, err := f.backups.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.BackupStatusFailed {
		t.Fatalf("expected one failed record, got %+v", list)
	}
	if list[0].ErrorMessage != "bucket unavailable" {
		t.Errorf("error message = %q", list[0].ErrorMessage)
	}
}

func TestRunNowRequiresPassphrase(t *testing.T) {
	f := setupManager(t)
	if _, err := f.m.RunNow(context.Background(), ""); !errors.Is(err, ErrNoPassphrase) {
		t.Errorf("err = %v, want ErrNoPassphrase", err)
	}
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	f := setupManager(t)

	id, err := f.m.RunNow(ctx, "passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	record, _ := f.backups.GetByID(ctx, id)

	// Negative retention puts the cutoff in the future.
	if err := f.m.Cleanup(ctx, -1); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok := f.s3.objects[record.ObjectKey]; ok {
		t.Error("expected object deleted")
	}
	list, _ := f.backups.List(ctx, 0)
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d", len(list))
	}
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	f := setupManager(t)

	id, err := f.m.RunNow(ctx, "passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	body, size, err := f.m.Download(ctx, id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if int64(len(data)) != size {
		t.Errorf("size = %d, downloaded %d", size, len(data))
	}
	if _, err := Decrypt(data, "passphrase"); err != nil {
		t.Errorf("decrypt downloaded: %v", err)
	}
}
