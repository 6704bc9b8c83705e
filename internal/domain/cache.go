package domain

import (
	"context"
	"time"
)

// ListingCache stores the most recent reconciled snapshot per owner.
type ListingCache interface {
	SetSnapshot(ctx context.Context, snap Snapshot) error
	GetSnapshot(ctx context.Context, owner string) (Snapshot, error)
	Invalidate(ctx context.Context, owner string) error
}

// LockManager guards against duplicate in-flight actions. Acquire returns
// ErrLockHeld when the key is already locked.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed rate limiting for the API surface.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is the pub/sub channel that carries listing and action events
// to API consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
