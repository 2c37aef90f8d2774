package kv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileExt = ".kv"

// FileStore keeps one file per key in a directory. Writes go through a
// temp file that is synced and renamed over the target, so a crash leaves
// either the old or the new value on disk.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + fileExt
}

func decodeKey(name string) (string, bool) {
	if !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileExt))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, encodeKey(key))
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, opError("get", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, opError("get", key, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return opError("set", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.dir, s.path(key), []byte(value)); err != nil {
		return opError("set", key, err)
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".kv-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return opError("remove", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opError("remove", key, err)
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("keys", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.keysLocked()
}

func (s *FileStore) keysLocked() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, opError("keys", "", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := decodeKey(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return opError("clear", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.keysLocked()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return opError("clear", key, err)
		}
	}
	return nil
}
