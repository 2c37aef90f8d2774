// Package handler serves the JSON API over the shopping list repository.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, backup.ErrNoPassphrase):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, backup.ErrBackupNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, backup.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, backup.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeStoreError writes err with its mapped status. Server errors are
// logged and their detail is not sent to the client.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}
