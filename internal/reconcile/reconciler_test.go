package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

var (
	testCollection = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testOwner      = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

// tokenFixture drives the fake market's answers for one token.
type tokenFixture struct {
	inAuction bool
	inMarket  bool

	auctionID     uint64
	auctionStatus domain.ListingStatus
	auctionIDErr  error

	itemID     uint64
	saleStatus domain.ListingStatus
	itemIDErr  error

	checkErr error // fails the ListedIn* views themselves
}

type fakeMarket struct {
	tokens map[uint64]tokenFixture
}

func (f *fakeMarket) Address() common.Address { return common.Address{} }

func (f *fakeMarket) ListedInAuction(_ context.Context, _ common.Address, tokenID uint64) (bool, error) {
	fx := f.tokens[tokenID]
	return fx.inAuction, fx.checkErr
}

func (f *fakeMarket) ListedInMarket(_ context.Context, _ common.Address, tokenID uint64) (bool, error) {
	fx := f.tokens[tokenID]
	return fx.inMarket, fx.checkErr
}

func (f *fakeMarket) AuctionIDForToken(_ context.Context, _ common.Address, tokenID uint64) (uint64, error) {
	fx := f.tokens[tokenID]
	return fx.auctionID, fx.auctionIDErr
}

func (f *fakeMarket) AuctionStatus(_ context.Context, auctionID uint64) (domain.ListingStatus, error) {
	for _, fx := range f.tokens {
		if fx.inAuction && fx.auctionID == auctionID {
			return fx.auctionStatus, nil
		}
	}
	return domain.StatusUnknown, errors.New("unknown auction")
}

func (f *fakeMarket) ItemIDForToken(_ context.Context, _ common.Address, tokenID uint64) (uint64, error) {
	fx := f.tokens[tokenID]
	return fx.itemID, fx.itemIDErr
}

func (f *fakeMarket) SaleStatus(_ context.Context, itemID uint64) (domain.ListingStatus, error) {
	for _, fx := range f.tokens {
		if fx.inMarket && fx.itemID == itemID {
			return fx.saleStatus, nil
		}
	}
	return domain.StatusUnknown, errors.New("unknown item")
}

func (f *fakeMarket) EncodeListItem(common.Address, uint64, int64, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeMarket) EncodeListAuction(common.Address, uint64, int64, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeMarket) EncodeResolveAuction(uint64) ([]byte, error) { return nil, nil }
func (f *fakeMarket) EncodeUnlistItem(uint64) ([]byte, error)     { return nil, nil }

type fakeDrink struct {
	balance *big.Int
	err     error
}

func (f *fakeDrink) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	return f.balance, f.err
}

func newTestReconciler(market *fakeMarket, drink *fakeDrink) *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(market, drink, testCollection, logger)
}

func assets(ids ...uint64) []domain.Asset {
	out := make([]domain.Asset, len(ids))
	for i, id := range ids {
		out[i] = domain.Asset{ID: id, Owner: testOwner.Hex()}
	}
	return out
}

func TestReconcileClassifiesEachToken(t *testing.T) {
	market := &fakeMarket{tokens: map[uint64]tokenFixture{
		1: {},
		2: {inMarket: true, itemID: 10, saleStatus: domain.StatusActive},
		3: {inAuction: true, auctionID: 20, auctionStatus: domain.StatusEnded},
	}}
	drink := &fakeDrink{balance: big.NewInt(0).Mul(big.NewInt(5), big.NewInt(1e18))}
	r := newTestReconciler(market, drink)

	snap, err := r.Reconcile(context.Background(), testOwner, assets(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, testOwner.Hex(), snap.Owner)
	assert.Equal(t, "5", snap.DrinkBalance)
	assert.Len(t, snap.Listings, 3)

	assert.Equal(t, domain.ListingState{Kind: domain.ListedNone}, snap.Listings[1])
	assert.Equal(t, domain.ListingState{Kind: domain.ListedMarket, MarketID: 10, Status: domain.StatusActive}, snap.Listings[2])
	assert.Equal(t, domain.ListingState{Kind: domain.ListedAuction, AuctionID: 20, Status: domain.StatusEnded}, snap.Listings[3])
}

func TestReconcileAuctionWinsOverMarket(t *testing.T) {
	// The contract inconsistently reports token 5 in both views; the
	// auction classification takes precedence.
	market := &fakeMarket{tokens: map[uint64]tokenFixture{
		5: {
			inAuction: true, auctionID: 7, auctionStatus: domain.StatusActive,
			inMarket: true, itemID: 8, saleStatus: domain.StatusActive,
		},
	}}
	r := newTestReconciler(market, &fakeDrink{balance: big.NewInt(0)})

	snap, err := r.Reconcile(context.Background(), testOwner, assets(5))
	require.NoError(t, err)

	assert.Equal(t, domain.ListingState{Kind: domain.ListedAuction, AuctionID: 7, Status: domain.StatusActive}, snap.Listings[5])
}

func TestReconcileOneEntryPerDistinctToken(t *testing.T) {
	market := &fakeMarket{tokens: map[uint64]tokenFixture{
		1: {}, 2: {},
	}}
	r := newTestReconciler(market, &fakeDrink{balance: big.NewInt(0)})

	snap, err := r.Reconcile(context.Background(), testOwner, assets(1, 2, 1, 2, 1))
	require.NoError(t, err)

	assert.Len(t, snap.Listings, 2)
	assert.Len(t, snap.Assets, 5, "assets pass through untouched")
}

func TestReconcileDegradesFailedDetailFetch(t *testing.T) {
	market := &fakeMarket{tokens: map[uint64]tokenFixture{
		4: {inAuction: true, auctionIDErr: errors.New("rpc timeout")},
	}}
	r := newTestReconciler(market, &fakeDrink{balance: big.NewInt(0)})

	snap, err := r.Reconcile(context.Background(), testOwner, assets(4))
	require.NoError(t, err)

	// The token stays visible as an auction listing with an explicit
	// unknown status rather than failing the whole snapshot.
	assert.Equal(t, domain.ListingState{Kind: domain.ListedAuction, AuctionID: 0, Status: domain.StatusUnknown}, snap.Listings[4])
}

func TestReconcileDegradesFailedListingCheck(t *testing.T) {
	market := &fakeMarket{tokens: map[uint64]tokenFixture{
		6: {checkErr: errors.New("rpc timeout")},
	}}
	r := newTestReconciler(market, &fakeDrink{balance: big.NewInt(0)})

	snap, err := r.Reconcile(context.Background(), testOwner, assets(6))
	require.NoError(t, err)

	assert.Equal(t, domain.ListingState{Kind: domain.ListedNone, Status: domain.StatusUnknown}, snap.Listings[6])
}

func TestReconcileDegradesFailedBalanceRead(t *testing.T) {
	market := &fakeMarket{tokens: map[uint64]tokenFixture{1: {}}}
	r := newTestReconciler(market, &fakeDrink{err: errors.New("rpc timeout")})

	snap, err := r.Reconcile(context.Background(), testOwner, assets(1))
	require.NoError(t, err)

	assert.Equal(t, "0", snap.DrinkBalance)
}

func TestReconcileEmptyAssets(t *testing.T) {
	r := newTestReconciler(&fakeMarket{tokens: map[uint64]tokenFixture{}}, &fakeDrink{balance: big.NewInt(0)})

	snap, err := r.Reconcile(context.Background(), testOwner, nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Listings)
	assert.False(t, snap.TakenAt.IsZero())
}
