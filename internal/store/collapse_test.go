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

func setupCollapseStore(t *testing.T, defaultCollapsed bool) (*CollapseStore, *kv.MemoryStore) {
	t.Helper()
	backing := kv.NewMemoryStore()
	facade := storage.New(backing, logging.Discard())
	return NewCollapseStore(facade, logging.Discard(), defaultCollapsed), backing
}

func TestCollapseGetFillsDefaults(t *testing.T) {
	ctx := context.Background()
	cs, backing := setupCollapseStore(t, true)

	state, err := cs.Get(ctx, "l1", []string{"carnes", "bebidas"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"carnes": true, "bebidas": true}, state)

	raw, ok, err := backing.Get(ctx, CollapseKey("l1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"carnes":true,"bebidas":true}`, raw)

	_, ok, err = backing.Get(ctx, storage.BackupKey(CollapseKey("l1")))
	require.NoError(t, err)
	assert.False(t, ok, "collapse state is written without a backup")
}

func TestCollapseToggle(t *testing.T) {
	ctx := context.Background()
	cs, _ := setupCollapseStore(t, false)

	assert.False(t, cs.IsCollapsed(ctx, "l1", "carnes"))
	collapsed, err := cs.Toggle(ctx, "l1", "carnes")
	require.NoError(t, err)
	assert.True(t, collapsed)
	assert.True(t, cs.IsCollapsed(ctx, "l1", "carnes"))
	assert.False(t, cs.IsCollapsed(ctx, "l2", "carnes"))
}

func TestCollapseToggleAll(t *testing.T) {
	ctx := context.Background()
	sections := []string{"carnes", "bebidas", "padaria"}

	tests := []struct {
		name      string
		collapsed []string
		want      bool
	}{
		{"none collapsed", nil, true},
		{"half or fewer collapsed", []string{"carnes"}, true},
		{"majority collapsed", []string{"carnes", "bebidas"}, false},
		{"all collapsed", sections, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, _ := setupCollapseStore(t, false)
			for _, sec := range tt.collapsed {
				_, err := cs.Toggle(ctx, "l1", sec)
				require.NoError(t, err)
			}
			state, err := cs.ToggleAll(ctx, "l1", sections)
			require.NoError(t, err)
			for _, sec := range sections {
				assert.Equal(t, tt.want, state[sec], sec)
			}
		})
	}
}

func TestCollapseExpandCollapseClear(t *testing.T) {
	ctx := context.Background()
	cs, backing := setupCollapseStore(t, false)
	sections := []string{"carnes", "bebidas"}

	state, err := cs.CollapseAll(ctx, "l1", sections)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"carnes": true, "bebidas": true}, state)

	state, err = cs.ExpandAll(ctx, "l1", sections)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"carnes": false, "bebidas": false}, state)

	require.NoError(t, cs.Clear(ctx, "l1"))
	_, ok, err := backing.Get(ctx, CollapseKey("l1"))
	require.NoError(t, err)
	assert.False(t, ok)
}
