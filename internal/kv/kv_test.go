package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/listkeeper/internal/database"
)

func newSQLTestStore(t *testing.T) Store {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db)
}

func newFileTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": newSQLTestStore(t),
		"file":   newFileTestStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStoreGetAbsent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := s.Get(context.Background(), "missing")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, v)
		})
	}
}

func TestStoreSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "@Economizae:shoppingLists", `[{"id":"1"}]`))
			v, ok, err := s.Get(ctx, "@Economizae:shoppingLists")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, s.Set(ctx, "@Economizae:shoppingLists", `[]`))
			v, _, err = s.Get(ctx, "@Economizae:shoppingLists")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)
		})
	}
}

func TestStoreEmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "empty", ""))
			_, ok, err := s.Get(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStoreRemoveAndKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "b", "2"))
			require.NoError(t, s.Set(ctx, "a", "1"))
			require.NoError(t, s.Set(ctx, "collapsedSections-list-x", "{}"))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "collapsedSections-list-x"}, keys)

			require.NoError(t, s.Remove(ctx, "a"))
			require.NoError(t, s.Remove(ctx, "never-set"))

			keys, err = s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "collapsedSections-list-x"}, keys)
		})
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "a", "1"))
			require.NoError(t, s.Set(ctx, "a_backup", "0"))
			require.NoError(t, s.Clear(ctx))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, name := range []string{"file", "memory"} {
		s := stores(t)[name]
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Set(ctx, "a", "1"))
			_, _, err := s.Get(ctx, "a")
			assert.Error(t, err)
		})
	}
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	s := newFileTestStore(t).(*FileStore)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "README"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".kv-123.tmp"), []byte("x"), 0o644))
	require.NoError(t, s.Set(ctx, "k/with/slashes", "v"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k/with/slashes"}, keys)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		driver string
		path   string
	}{
		{DriverSQLite, database.MemoryPath},
		{DriverFile, filepath.Join(t.TempDir(), "files")},
		{DriverMemory, ""},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, closer, err := Open(ctx, tt.driver, tt.path)
			require.NoError(t, err)
			defer closer.Close()
			require.NoError(t, s.Set(ctx, "k", "v"))
		})
	}

	_, _, err := Open(ctx, "redis", "")
	assert.Error(t, err)
}

func TestWithPrefix(t *testing.T) {
	keys := []string{"collapsedSections-list-1", "listkeeper:shoppingLists", "collapsedSections-list-2"}
	assert.Equal(t, []string{"collapsedSections-list-1", "collapsedSections-list-2"}, WithPrefix(keys, "collapsedSections-list-"))
	assert.Nil(t, WithPrefix(keys, "nope"))
}
