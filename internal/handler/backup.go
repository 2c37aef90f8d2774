package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/store"
)

const defaultBackupLimit = 20

type BackupHandler struct {
	manager *backup.Manager
	lists   *store.ListStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, ls *store.ListStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, lists: ls, logger: logger}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
	// Remember keeps the passphrase in memory for scheduled backups.
	Remember bool `json:"remember"`
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		writeStoreError(w, h.logger, "backup failed", err)
		return
	}
	if req.Remember {
		h.manager.CacheKey(req.Passphrase)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultBackupLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	backups, err := h.manager.List(r.Context(), limit)
	if err != nil {
		writeStoreError(w, h.logger, "failed to list backups", err)
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// Restore replaces storage with a backup and reloads the lists from it.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	n, err := h.manager.Restore(r.Context(), r.PathValue("id"), req.Passphrase)
	if err != nil {
		writeStoreError(w, h.logger, "restore failed", err)
		return
	}
	if err := h.lists.RefreshLists(r.Context()); err != nil {
		writeStoreError(w, h.logger, "reload lists after restore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"keys": n})
}

func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "download failed", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.json.enc"`)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream backup", "backup_id", id, "error", err)
	}
}
