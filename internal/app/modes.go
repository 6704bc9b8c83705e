package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/server"
	"github.com/bchsol/CryptoDragon/internal/server/handler"
	"github.com/bchsol/CryptoDragon/internal/server/ws"
)

// ServerMode runs the HTTP + WebSocket API, the signal-bus hub, and the
// periodic reconcile loop. It blocks until the context is cancelled or a
// component fails.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	g, gctx := errgroup.WithContext(ctx)

	// Warm the snapshot so the first API read is served from cache. A
	// failure here is not fatal; the loop and on-demand reads retry.
	if _, err := deps.Station.Refresh(gctx); err != nil {
		a.logger.WarnContext(gctx, "initial refresh failed",
			slog.String("error", err.Error()),
		)
	}

	// WebSocket hub bridging the signal bus to clients.
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Owner:     deps.Station.Owner(),
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		if err := hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ws hub: %w", err)
		}
		return nil
	})

	// Periodic reconcile loop.
	if interval := a.cfg.Reconcile.Interval.Duration; interval > 0 {
		g.Go(func() error {
			a.reconcileLoop(gctx, deps, interval)
			return nil
		})
	}

	// HTTP server.
	if a.cfg.Server.Enabled {
		var archives *handler.ArchiveHandler
		if deps.ArchiveReader != nil {
			archives = handler.NewArchiveHandler(deps.ArchiveReader, deps.Station.Owner, a.logger)
		}

		srv := server.NewServer(server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			ActionRateLimit: a.cfg.Server.ActionRateLimit,
		}, server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Assets:   handler.NewAssetHandler(deps.Station, a.logger),
			Actions:  handler.NewActionHandler(deps.Station, a.logger),
			Archives: archives,
		}, hub, deps.RateLimiter, a.logger)

		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		if deps.Notifier != nil {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if nerr := deps.Notifier.NotifyAll(notifyCtx, "station stopped", err.Error()); nerr != nil {
				a.logger.WarnContext(notifyCtx, "shutdown notification failed",
					slog.String("error", nerr.Error()),
				)
			}
		}
		return err
	}
	return nil
}

// ReconcileMode performs one wholesale refresh of the listing table and
// exits. Useful for cron-driven snapshots and smoke checks.
func (a *App) ReconcileMode(ctx context.Context, deps *Dependencies) error {
	snap, err := deps.Station.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("app: reconcile: %w", err)
	}

	listed := 0
	for _, state := range snap.Listings {
		if state.Kind != domain.ListedNone {
			listed++
		}
	}
	a.logger.InfoContext(ctx, "reconcile complete",
		slog.String("owner", snap.Owner),
		slog.Int("assets", len(snap.Assets)),
		slog.Int("listed", listed),
		slog.String("drink_balance", snap.DrinkBalance),
	)
	return nil
}

// reconcileLoop refreshes the snapshot on a fixed interval so the cached
// table converges with chain state even when no actions are flowing.
func (a *App) reconcileLoop(ctx context.Context, deps *Dependencies, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.InfoContext(ctx, "reconcile loop started",
		slog.Duration("interval", interval),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := deps.Station.Refresh(ctx); err != nil {
				a.logger.WarnContext(ctx, "periodic refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
