package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotStateDefaultsToNotListed(t *testing.T) {
	snap := Snapshot{
		Listings: ListingTable{
			3: {Kind: ListedMarket, MarketID: 9, Status: StatusActive},
		},
	}

	assert.Equal(t, ListedMarket, snap.State(3).Kind)
	assert.Equal(t, ListingState{Kind: ListedNone}, snap.State(99))
}

func TestListingStateResolvable(t *testing.T) {
	tests := []struct {
		name  string
		state ListingState
		want  bool
	}{
		{"market ended", ListingState{Kind: ListedMarket, Status: StatusEnded}, true},
		{"market canceled", ListingState{Kind: ListedMarket, Status: StatusCanceled}, true},
		{"auction ended", ListingState{Kind: ListedAuction, Status: StatusEnded}, true},
		{"market active", ListingState{Kind: ListedMarket, Status: StatusActive}, false},
		{"auction unknown", ListingState{Kind: ListedAuction, Status: StatusUnknown}, false},
		{"not listed", ListingState{Kind: ListedNone}, false},
		{"not listed ended status", ListingState{Kind: ListedNone, Status: StatusEnded}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Resolvable())
		})
	}
}

func TestListingStateTrading(t *testing.T) {
	assert.True(t, ListingState{Kind: ListedAuction, Status: StatusActive}.Trading())
	assert.True(t, ListingState{Kind: ListedMarket, Status: StatusActive}.Trading())
	assert.False(t, ListingState{Kind: ListedMarket, Status: StatusEnded}.Trading())
	assert.False(t, ListingState{Kind: ListedNone, Status: StatusActive}.Trading())
}

func TestStageName(t *testing.T) {
	assert.Equal(t, "egg", StageName(0))
	assert.Equal(t, "adult", StageName(3))
	assert.Equal(t, "unknown", StageName(4))
	assert.Equal(t, "unknown", StageName(-1))
	assert.True(t, FinalStage("adult"))
	assert.False(t, FinalStage("egg"))
}
