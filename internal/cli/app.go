package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/config"
	"github.com/dukerupert/listkeeper/internal/flags"
	"github.com/dukerupert/listkeeper/internal/kv"
	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/notify"
	"github.com/dukerupert/listkeeper/internal/storage"
	"github.com/dukerupert/listkeeper/internal/store"
	ws "github.com/dukerupert/listkeeper/internal/websocket"
)

// app is the wired object graph behind every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
	closer io.Closer

	facade   *storage.Facade
	lists    *store.ListStore
	collapse *store.CollapseStore
	settings *store.SettingsStore
	history  *store.BackupStore
	backups  *backup.Manager
	hub      *ws.Hub
	debug    *flags.Value[bool]
	notes    *notify.Memory

	unsubscribe func()
}

// openApp loads configuration, opens the key/value store and builds the
// repository on top of it. The lists are loaded before it returns.
func openApp(ctx context.Context, g *globals) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, usageError{msg: err.Error()}
	}

	a := &app{cfg: cfg, level: new(slog.LevelVar), notes: &notify.Memory{}}
	baseLevel := logging.ParseLevel(cfg.Log.Level)
	a.level.Set(baseLevel)
	a.logger = logging.SetupLeveled(a.level, cfg.Log.Format)

	kvStore, closer, err := kv.Open(ctx, cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closer = closer

	a.facade = storage.New(kvStore, a.logger.With("component", "storage"),
		storage.WithWriteAttempts(cfg.Storage.WriteAttempts),
		storage.WithRetryDelay(cfg.Storage.RetryDelay),
	)

	ns := cfg.Store.Namespace
	a.settings = store.NewSettingsStore(a.facade, ns)
	a.history = store.NewBackupStore(a.facade, ns)
	a.collapse = store.NewCollapseStore(a.facade, a.logger.With("component", "collapse"), cfg.Repository.CollapsedByDefault)
	a.hub = ws.NewHub(a.logger.With("component", "hub"))

	a.debug = flags.New(cfg.Debug || a.settings.Debug(ctx))
	applyLevel := func(on bool) {
		if on {
			a.level.Set(slog.LevelDebug)
			return
		}
		a.level.Set(baseLevel)
	}
	applyLevel(a.debug.Get())
	a.unsubscribe = a.debug.Subscribe(applyLevel)

	a.lists = store.NewListStore(a.facade, store.ListConfig{
		Namespace:      ns,
		LookupAttempts: cfg.Repository.LookupAttempts,
		LookupBackoff:  cfg.Repository.LookupBackoff,
		StartupDelay:   cfg.Repository.StartupDelay,
	},
		store.WithLogger(a.logger.With("component", "lists")),
		store.WithNotifier(notify.Multi{notify.NewLog(a.logger.With("component", "notify")), a.notes, a.hub}),
		store.WithPublisher(a.hub),
		store.WithRecorder(logging.NewRecorder(a.logger.With("component", "telemetry"))),
		store.WithDebug(a.debug),
	)

	a.backups = backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		Prefix:        cfg.Backup.Prefix,
		Interval:      cfg.Backup.Interval,
		RetentionDays: cfg.Backup.RetentionDays,
		Passphrase:    cfg.Backup.Passphrase,
	}, a.facade, a.history, a.settings, a.logger.With("component", "backup"), a.broadcastBackupStatus)

	if err := a.lists.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load lists: %w", err)
	}
	return a, nil
}

func (a *app) broadcastBackupStatus(s backup.Status) {
	extra := map[string]any{"state": string(s.State), "inProgress": s.InProgress}
	if s.Error != "" {
		extra["error"] = s.Error
	}
	a.hub.Broadcast(ws.NewMessage(ws.EntityBackup, "status", "", extra))
}

func (a *app) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
