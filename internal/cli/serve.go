package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/listkeeper/internal/server"
)

const rateLimitCleanup = time.Minute

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and WebSocket updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(cmd, g, func(_ context.Context, a *app) error {
				return serve(ctx, a)
			})
		},
	}
}

// serve runs until ctx is canceled, then shuts the HTTP server down.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	srv := server.New(server.Deps{
		Lists:          a.lists,
		Collapse:       a.collapse,
		Settings:       a.settings,
		Backups:        a.backups,
		Hub:            a.hub,
		Debug:          a.debug,
		Logger:         a.logger,
		OriginPatterns: cfg.Server.OriginPatterns,
	})

	unsubscribe := a.debug.Subscribe(func(on bool) {
		a.logger.Info("debug mode changed", "debug", on)
		a.hub.BroadcastDebug(on)
	})
	defer unsubscribe()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)

	a.backups.Start(ctx)
	defer a.backups.Stop()

	eg.Go(func() error {
		a.logger.Info("listkeeper running", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "lists", len(a.lists.Lists()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		srv.RateLimiter().Run(ctx, rateLimitCleanup)
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return eg.Wait()
}
