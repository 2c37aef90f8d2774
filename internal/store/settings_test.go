package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/listkeeper/internal/kv"
	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/storage"
)

func setupSettingsStore(t *testing.T) *SettingsStore {
	t.Helper()
	facade := storage.New(kv.NewMemoryStore(), logging.Discard())
	return NewSettingsStore(facade, "")
}

func TestSettingsGetSet(t *testing.T) {
	ctx := context.Background()
	ss := setupSettingsStore(t)

	_, err := ss.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ss.Set(ctx, SettingBackupSalt, "c2FsdA"))
	v, err := ss.Get(ctx, SettingBackupSalt)
	require.NoError(t, err)
	assert.Equal(t, "c2FsdA", v)

	all, err := ss.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{SettingBackupSalt: "c2FsdA"}, all)

	backup, err := ss.GetBackupSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c2FsdA", backup[SettingBackupSalt])
}

func TestSettingsDebug(t *testing.T) {
	ctx := context.Background()
	ss := setupSettingsStore(t)

	assert.False(t, ss.Debug(ctx))
	require.NoError(t, ss.SetDebug(ctx, true))
	assert.True(t, ss.Debug(ctx))
	require.NoError(t, ss.SetDebug(ctx, false))
	assert.False(t, ss.Debug(ctx))
}
