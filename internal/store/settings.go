package store

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"

	"github.com/dukerupert/listkeeper/internal/storage"
)

// Setting keys.
const (
	SettingDebug      = "debug"
	SettingBackupSalt = "backup_salt"
)

var backupKeys = []string{
	SettingBackupSalt,
}

// SettingsStore keeps string settings in a single map under SettingsKey.
type SettingsStore struct {
	facade *storage.Facade
	key    string
	mu     sync.Mutex
}

func NewSettingsStore(facade *storage.Facade, namespace string) *SettingsStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &SettingsStore{facade: facade, key: SettingsKey(namespace)}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.load(ctx)[key]
	if !ok {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return v, nil
}

func (s *SettingsStore) GetAll(ctx context.Context) (map[string]string, error) {
	return s.load(ctx), nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx)
	if cur, ok := all[key]; ok && cur == value {
		return nil
	}
	all[key] = value
	if err := s.facade.SetItem(ctx, s.key, all); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) GetBackupSettings(ctx context.Context) (map[string]string, error) {
	all := s.load(ctx)
	out := make(map[string]string)
	for _, k := range backupKeys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Debug returns the persisted debug switch, false when unset or unreadable.
func (s *SettingsStore) Debug(ctx context.Context) bool {
	v, err := s.Get(ctx, SettingDebug)
	if err != nil {
		return false
	}
	on, _ := strconv.ParseBool(v)
	return on
}

func (s *SettingsStore) SetDebug(ctx context.Context, on bool) error {
	return s.Set(ctx, SettingDebug, strconv.FormatBool(on))
}

func (s *SettingsStore) load(ctx context.Context) map[string]string {
	m := storage.GetItem(ctx, s.facade, s.key, map[string]string{})
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
