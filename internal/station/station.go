// Package station orchestrates the user-facing marketplace actions: list a
// dragon for sale or auction, evolve or feed it, and resolve finished
// listings. Every mutating call travels through the gasless forwarder
// relay; after a successful action the cached listing view is invalidated
// and rebuilt from chain instead of patched locally.
package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/notify"
	"github.com/bchsol/CryptoDragon/internal/reconcile"
	"github.com/bchsol/CryptoDragon/internal/session"
)

// Signal-bus channels. The WebSocket hub subscribes to both.
const (
	listingChannel = "listings"
	actionChannel  = "actions"
)

// Config holds the orchestrator's tunables.
type Config struct {
	// DefaultGas is the forwarder gas limit used when no estimate is made.
	DefaultGas uint64
	// LockTTL bounds how long a per-token in-flight lock may linger if the
	// process dies mid-action.
	LockTTL time.Duration
	// CacheTTL is advisory for the listing cache implementation.
	CacheTTL time.Duration
}

// Deps bundles the collaborators the station needs. Cache, Journal,
// Notifier, Bus, and Waiter are optional; the corresponding behavior is
// skipped when nil.
type Deps struct {
	Dragon     domain.DragonContract
	Market     domain.MarketContract
	Forwarder  domain.ForwarderContract
	Transport  domain.RelayTransport
	Source     domain.CollectionSource
	Reconciler *reconcile.Reconciler
	Locks      domain.LockManager
	Cache      domain.ListingCache
	Journal    domain.ActionStore
	Notifier   *notify.Notifier
	Bus        domain.SignalBus
	Waiter     domain.ReceiptWaiter
	Archiver   domain.SnapshotArchiver
}

// Station is the action orchestrator for one wallet session.
type Station struct {
	sess   *session.Session
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

// New creates a Station. The session may be disconnected; every action
// refuses to start until it carries a signer.
func New(sess *session.Session, deps Deps, cfg Config, logger *slog.Logger) *Station {
	if cfg.DefaultGas == 0 {
		cfg.DefaultGas = 300_000
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &Station{
		sess:   sess,
		deps:   deps,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "station")),
	}
}

// Refresh rebuilds the full listing snapshot from chain, stores it in the
// cache, and announces it on the signal bus. It is called on connect and
// after every successful mutating action.
func (st *Station) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if !st.sess.Connected() {
		return domain.Snapshot{}, domain.ErrNotConnected
	}
	owner := st.sess.Address()

	assets, err := st.deps.Source.OwnedAssets(ctx, owner)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("station: owned assets: %w", err)
	}

	snap, err := st.deps.Reconciler.Reconcile(ctx, owner, assets)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("station: reconcile: %w", err)
	}

	if st.deps.Cache != nil {
		if err := st.deps.Cache.SetSnapshot(ctx, snap); err != nil {
			st.logger.WarnContext(ctx, "snapshot cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	st.publishSnapshot(ctx, snap)

	if st.deps.Archiver != nil {
		if path, err := st.deps.Archiver.Archive(ctx, snap); err != nil {
			st.logger.WarnContext(ctx, "snapshot archive failed",
				slog.String("error", err.Error()),
			)
		} else {
			st.logger.DebugContext(ctx, "snapshot archived",
				slog.String("path", path),
			)
		}
	}

	return snap, nil
}

// Snapshot returns the cached listing view, falling back to a full refresh
// when the cache is cold or disabled.
func (st *Station) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if !st.sess.Connected() {
		return domain.Snapshot{}, domain.ErrNotConnected
	}
	if st.deps.Cache != nil {
		snap, err := st.deps.Cache.GetSnapshot(ctx, st.sess.Address().Hex())
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			st.logger.WarnContext(ctx, "snapshot cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return st.Refresh(ctx)
}

// GrowthInfo reads a token's growth stage on demand.
func (st *Station) GrowthInfo(ctx context.Context, tokenID uint64) (domain.GrowthInfo, error) {
	if !st.sess.Connected() {
		return domain.GrowthInfo{}, domain.ErrNotConnected
	}
	return st.deps.Dragon.GrowthInfo(ctx, tokenID)
}

// Owner returns the connected wallet address in hex, or "" when
// disconnected.
func (st *Station) Owner() string {
	if !st.sess.Connected() {
		return ""
	}
	return st.sess.Address().Hex()
}

// History returns the most recent journaled actions for the connected
// wallet.
func (st *Station) History(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	if !st.sess.Connected() {
		return nil, domain.ErrNotConnected
	}
	if st.deps.Journal == nil {
		return nil, nil
	}
	return st.deps.Journal.ListRecent(ctx, st.sess.Address().Hex(), limit)
}

// publishSnapshot announces a refreshed snapshot on the signal bus so API
// consumers (the WebSocket hub) can push it to clients.
func (st *Station) publishSnapshot(ctx context.Context, snap domain.Snapshot) {
	if st.deps.Bus == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := st.deps.Bus.Publish(ctx, listingChannel, payload); err != nil {
		st.logger.WarnContext(ctx, "snapshot publish failed",
			slog.String("error", err.Error()),
		)
	}
}

// publishAction announces a completed action on the signal bus.
func (st *Station) publishAction(ctx context.Context, res domain.ActionResult) {
	if st.deps.Bus == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := st.deps.Bus.Publish(ctx, actionChannel, payload); err != nil {
		st.logger.WarnContext(ctx, "action publish failed",
			slog.String("error", err.Error()),
		)
	}
}
