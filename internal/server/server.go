package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/flags"
	"github.com/dukerupert/listkeeper/internal/handler"
	"github.com/dukerupert/listkeeper/internal/middleware"
	"github.com/dukerupert/listkeeper/internal/store"
	ws "github.com/dukerupert/listkeeper/internal/websocket"
)

const (
	backupRateLimit  = 5
	backupRateWindow = time.Minute
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Lists    *store.ListStore
	Collapse *store.CollapseStore
	Settings *store.SettingsStore
	Backups  *backup.Manager
	Hub      *ws.Hub
	Debug    *flags.Value[bool]
	Logger   *slog.Logger
	// OriginPatterns restricts websocket origins; empty allows any.
	OriginPatterns []string
}

type Server struct {
	hub            *ws.Hub
	listH          *handler.ListHandler
	settingsH      *handler.SettingsHandler
	backupH        *handler.BackupHandler
	rateLimiter    *middleware.RateLimiter
	originPatterns []string
	logger         *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	return &Server{
		hub:            d.Hub,
		listH:          handler.NewListHandler(d.Lists, d.Collapse, logger.With("component", "lists")),
		settingsH:      handler.NewSettingsHandler(d.Settings, d.Debug, logger.With("component", "settings")),
		backupH:        handler.NewBackupHandler(d.Backups, d.Lists, logger.With("component", "backup_handler")),
		rateLimiter:    middleware.NewRateLimiter(),
		originPatterns: d.OriginPatterns,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.originPatterns))

	mux.HandleFunc("GET /api/categories", handler.Categories)

	// List API routes
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/clear-checked", s.listH.ClearChecked)
	mux.HandleFunc("POST /api/lists/{id}/voice", s.listH.Voice)
	mux.HandleFunc("GET /api/lists/{id}/sections", s.listH.Sections)
	mux.HandleFunc("PUT /api/lists/{id}/sections/{section}", s.listH.UpdateSection)

	// Item API routes
	mux.HandleFunc("POST /api/lists/{id}/items", s.listH.CreateItem)
	mux.HandleFunc("PUT /api/lists/{id}/items/{item_id}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{item_id}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/lists/{id}/items/{item_id}/check", s.listH.ToggleItem)

	// Settings API routes
	mux.HandleFunc("GET /api/settings/debug", s.settingsH.GetDebug)
	mux.HandleFunc("PUT /api/settings/debug", s.settingsH.UpdateDebug)

	// Backup API routes; key derivation is expensive, so writes are limited
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups", s.rateLimitedHandler(s.backupH.Run))
	mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimitedHandler(s.backupH.Restore))
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)

	var h http.Handler = mux
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.Recover(s.logger)(h)
	return middleware.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, backupRateLimit, backupRateWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
