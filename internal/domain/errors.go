package domain

import "errors"

var (
	ErrNotConnected    = errors.New("no wallet session")
	ErrNotFound        = errors.New("not found")
	ErrActionInFlight  = errors.New("action already in flight")
	ErrInvalidPrice    = errors.New("invalid price input")
	ErrInvalidDuration = errors.New("unknown duration label")
	ErrSigningFailed   = errors.New("signing failed")
	ErrRelayRejected   = errors.New("relay rejected request")
	ErrNotResolvable   = errors.New("listing not resolvable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLockHeld        = errors.New("lock already held")
)
