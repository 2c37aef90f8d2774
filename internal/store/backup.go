package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/storage"
)

// BackupStore keeps the history of remote backups under BackupsKey.
type BackupStore struct {
	facade *storage.Facade
	key    string
	now    func() time.Time
	mu     sync.Mutex
}

func NewBackupStore(facade *storage.Facade, namespace string) *BackupStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &BackupStore{
		facade: facade,
		key:    BackupsKey(namespace),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Key returns the storage key of the history.
func (s *BackupStore) Key() string {
	return s.key
}

func (s *BackupStore) Create(ctx context.Context, filename, objectKey string) (*model.Backup, error) {
	now := s.now()
	b := model.Backup{
		ID:        model.NewID(),
		Filename:  filename,
		ObjectKey: objectKey,
		Status:    model.BackupStatusPending,
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.update(ctx, func(all []model.Backup) ([]model.Backup, error) {
		return append(all, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	return &b, nil
}

// GetByID returns nil, nil when no record has id.
func (s *BackupStore) GetByID(ctx context.Context, id string) (*model.Backup, error) {
	for _, b := range s.load(ctx) {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns everything.
func (s *BackupStore) List(ctx context.Context, limit int) ([]model.Backup, error) {
	all := s.load(ctx)
	slices.SortStableFunc(all, func(a, b model.Backup) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *BackupStore) UpdateStatus(ctx context.Context, id string, status model.BackupStatus, errorMsg string) error {
	err := s.modify(ctx, id, func(b *model.Backup) {
		b.Status = status
		b.ErrorMessage = errorMsg
	})
	if err != nil {
		return fmt.Errorf("update backup status: %w", err)
	}
	return nil
}

func (s *BackupStore) UpdateCompleted(ctx context.Context, id string, sizeBytes int64, keyCount int) error {
	err := s.modify(ctx, id, func(b *model.Backup) {
		now := s.now()
		b.Status = model.BackupStatusCompleted
		b.SizeBytes = sizeBytes
		b.KeyCount = keyCount
		b.ErrorMessage = ""
		b.CompletedAt = &now
	})
	if err != nil {
		return fmt.Errorf("update backup completed: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes records created before the given time and returns
// the object keys of the deleted backups.
func (s *BackupStore) DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error) {
	var keys []string
	err := s.update(ctx, func(all []model.Backup) ([]model.Backup, error) {
		kept := all[:0]
		for _, b := range all {
			if b.CreatedAt.Before(before) {
				keys = append(keys, b.ObjectKey)
				continue
			}
			kept = append(kept, b)
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return kept, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	return keys, nil
}

// LatestCompleted returns nil, nil when no backup has completed.
func (s *BackupStore) LatestCompleted(ctx context.Context) (*model.Backup, error) {
	var latest *model.Backup
	for _, b := range s.load(ctx) {
		if b.Status != model.BackupStatusCompleted || b.CompletedAt == nil {
			continue
		}
		if latest == nil || b.CompletedAt.After(*latest.CompletedAt) {
			latest = &b
		}
	}
	return latest, nil
}

func (s *BackupStore) load(ctx context.Context) []model.Backup {
	return storage.GetItem(ctx, s.facade, s.key, []model.Backup{})
}

func (s *BackupStore) modify(ctx context.Context, id string, fn func(*model.Backup)) error {
	return s.update(ctx, func(all []model.Backup) ([]model.Backup, error) {
		for i := range all {
			if all[i].ID == id {
				fn(&all[i])
				all[i].UpdatedAt = s.now()
				return all, nil
			}
		}
		return nil, fmt.Errorf("backup %q: %w", id, ErrNotFound)
	})
}

// update runs a serialized read-modify-write. fn returns nil to skip the write.
func (s *BackupStore) update(ctx context.Context, fn func([]model.Backup) ([]model.Backup, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.load(ctx))
	if err != nil || next == nil {
		return err
	}
	return s.facade.SetItem(ctx, s.key, next)
}
