package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/listkeeper/internal/flags"
	"github.com/dukerupert/listkeeper/internal/store"
)

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	debug         *flags.Value[bool]
	logger        *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, debug *flags.Value[bool], logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, debug: debug, logger: logger}
}

type debugSetting struct {
	Debug *bool `json:"debug"`
}

func (h *SettingsHandler) GetDebug(w http.ResponseWriter, r *http.Request) {
	on := h.debug.Get()
	writeJSON(w, http.StatusOK, debugSetting{Debug: &on})
}

// UpdateDebug persists the switch, then flips it for the running process.
func (h *SettingsHandler) UpdateDebug(w http.ResponseWriter, r *http.Request) {
	var req debugSetting
	if err := decodeJSON(r, &req); err != nil || req.Debug == nil {
		writeError(w, http.StatusBadRequest, "debug must be true or false")
		return
	}
	if err := h.settingsStore.SetDebug(r.Context(), *req.Debug); err != nil {
		writeStoreError(w, h.logger, "failed to save settings", err)
		return
	}
	h.debug.Set(*req.Debug)
	writeJSON(w, http.StatusOK, req)
}
