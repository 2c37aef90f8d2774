package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/grocery"
	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/storage"
	"github.com/dukerupert/listkeeper/internal/store"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("add item: %w", store.ErrValidation), http.StatusBadRequest},
		{backup.ErrNoPassphrase, http.StatusBadRequest},
		{fmt.Errorf("list %q: %w", "x", store.ErrNotFound), http.StatusNotFound},
		{backup.ErrBackupNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{backup.ErrBusy, http.StatusConflict},
		{backup.ErrNotConfigured, http.StatusServiceUnavailable},
		{&storage.Error{Op: "set", Key: "k", Err: storage.ErrStorage}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), "errorStatus(%v)", tt.err)
	}
}

func TestWriteStoreErrorHidesServerDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeStoreError(rec, logging.Discard(), "failed to save", errors.New("disk path /var/x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/var/x")
	assert.Contains(t, rec.Body.String(), "failed to save")

	rec = httptest.NewRecorder()
	writeStoreError(rec, logging.Discard(), "failed to save", fmt.Errorf("name: %w", store.ErrValidation))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name")
}

func TestParseFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/lists?completed=true&category=carnes&sort=total&order=desc&from=2026-01-01T00:00:00Z", nil)
	opts, err := parseFilter(r)
	require.NoError(t, err)
	require.NotNil(t, opts.Completed)
	assert.True(t, *opts.Completed)
	assert.Equal(t, grocery.Carnes, opts.Category)
	assert.Equal(t, grocery.SortByTotal, opts.SortBy)
	assert.True(t, opts.Desc)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), opts.From)
	assert.True(t, opts.To.IsZero())

	for _, q := range []string{"completed=yes", "from=yesterday", "to=2026-13-01"} {
		_, err := parseFilter(httptest.NewRequest("GET", "/api/lists?"+q, nil))
		require.Error(t, err, q)
		assert.True(t, strings.HasPrefix(err.Error(), "invalid "), q)
	}
}

func TestDecodeJSONAllowsEmptyBody(t *testing.T) {
	var v struct{ Name string }
	require.NoError(t, decodeJSON(httptest.NewRequest("POST", "/", nil), &v))
	assert.Error(t, decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader("{")), &v))
}
