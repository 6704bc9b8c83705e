package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// ListingCache implements domain.ListingCache with one JSON-serialized
// snapshot per owner.
//
// Key schema:
//
//	listings:{owner} - JSON snapshot of the owner's assets and listing table
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache creates a ListingCache backed by the given Client. A
// non-positive ttl falls back to one minute.
func NewListingCache(c *Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ListingCache{rdb: c.Underlying(), ttl: ttl}
}

func listingKey(owner string) string { return "listings:" + owner }

// SetSnapshot stores an owner's reconciled snapshot, replacing any prior
// one. Snapshots are always written whole; per-token patches never happen.
func (lc *ListingCache) SetSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.Owner, err)
	}
	if err := lc.rdb.Set(ctx, listingKey(snap.Owner), data, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.Owner, err)
	}
	return nil
}

// GetSnapshot retrieves an owner's snapshot. It returns domain.ErrNotFound
// when no snapshot is cached.
func (lc *ListingCache) GetSnapshot(ctx context.Context, owner string) (domain.Snapshot, error) {
	data, err := lc.rdb.Get(ctx, listingKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot %s: %w", owner, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: unmarshal snapshot %s: %w", owner, err)
	}
	return snap, nil
}

// Invalidate drops an owner's cached snapshot so the next read rebuilds it
// from chain.
func (lc *ListingCache) Invalidate(ctx context.Context, owner string) error {
	if err := lc.rdb.Del(ctx, listingKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate snapshot %s: %w", owner, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ListingCache = (*ListingCache)(nil)
