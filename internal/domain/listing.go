package domain

import "time"

// ListingKind is the variant tag of a token's marketplace state.
type ListingKind string

const (
	ListedNone    ListingKind = "notListed"
	ListedMarket  ListingKind = "market"
	ListedAuction ListingKind = "auction"
)

// ListingStatus is the decoded fixed-width status code the marketplace
// contract reports for a sale or auction. Values other than the known
// constants are kept verbatim; reads that fail to decode map to
// StatusUnknown.
type ListingStatus string

const (
	StatusActive   ListingStatus = "ACTIVE"
	StatusEnded    ListingStatus = "ENDED"
	StatusCanceled ListingStatus = "CANCELED"
	StatusUnknown  ListingStatus = "UNKNOWN"
)

// ListingState classifies one owned token against the marketplace contract.
// A token is in at most one of market/auction; when the contract reports
// both, the auction classification wins.
type ListingState struct {
	Kind      ListingKind   `json:"kind"`
	MarketID  uint64        `json:"marketId,omitempty"`
	AuctionID uint64        `json:"auctionId,omitempty"`
	Status    ListingStatus `json:"status,omitempty"`
}

// Resolvable reports whether the listing has concluded and can be cleared
// from the marketplace (unlist for market items, resolve for auctions).
func (s ListingState) Resolvable() bool {
	if s.Kind == ListedNone {
		return false
	}
	return s.Status == StatusEnded || s.Status == StatusCanceled
}

// Trading reports whether the listing is live and must run its course
// before any further action is possible.
func (s ListingState) Trading() bool {
	return s.Kind != ListedNone && s.Status == StatusActive
}

// ListingTable maps token id to its reconciled marketplace state. It is
// rebuilt wholesale on every reconciliation pass, never patched in place.
type ListingTable map[uint64]ListingState

// Snapshot is the full reconciled view for one owner: every owned token's
// listing state plus the owner's fungible Drink balance in whole units.
type Snapshot struct {
	Owner        string       `json:"owner"`
	Assets       []Asset      `json:"assets"`
	Listings     ListingTable `json:"listings"`
	DrinkBalance string       `json:"drinkBalance"`
	TakenAt      time.Time    `json:"takenAt"`
}

// State returns the listing state for a token, defaulting to ListedNone
// when the token is absent from the table.
func (s Snapshot) State(tokenID uint64) ListingState {
	if st, ok := s.Listings[tokenID]; ok {
		return st
	}
	return ListingState{Kind: ListedNone}
}
