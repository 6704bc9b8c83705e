package domain

import (
	"context"
	"time"
)

// ActionStatus tracks one relay submission's outcome in the journal.
type ActionStatus string

const (
	ActionStatusSubmitted ActionStatus = "submitted"
	ActionStatusConfirmed ActionStatus = "confirmed"
	ActionStatusFailed    ActionStatus = "failed"
)

// ActionRecord is one journaled relay submission.
type ActionRecord struct {
	ID        string
	Wallet    string
	Action    ActionType
	TokenID   uint64
	ListingID uint64
	TxHash    string
	TaskID    string
	Status    ActionStatus
	Error     string
	CreatedAt time.Time
}

// ActionStore persists the relay submission journal.
type ActionStore interface {
	Insert(ctx context.Context, rec ActionRecord) error
	ListRecent(ctx context.Context, wallet string, limit int) ([]ActionRecord, error)
}
