package station

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/reconcile"
	"github.com/bchsol/CryptoDragon/internal/session"
)

var (
	dragonAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	marketAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	walletAddr = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

// --------------------------------------------------------------------------
// Fakes
// --------------------------------------------------------------------------

type fakeSigner struct{ addr common.Address }

func (f *fakeSigner) Address() common.Address { return f.addr }
func (f *fakeSigner) SignForwardRequest(domain.ForwarderRequest) ([]byte, error) {
	return []byte{0x01}, nil
}

type fakeDragon struct {
	approved bool
}

func (f *fakeDragon) Address() common.Address { return dragonAddr }
func (f *fakeDragon) IsApprovedForAll(context.Context, common.Address, common.Address) (bool, error) {
	return f.approved, nil
}
func (f *fakeDragon) GrowthInfo(_ context.Context, tokenID uint64) (domain.GrowthInfo, error) {
	return domain.GrowthInfo{StageIndex: 1, Stage: "hatch"}, nil
}
func (f *fakeDragon) EncodeSetApprovalForAll(operator common.Address, approved bool) ([]byte, error) {
	return []byte(fmt.Sprintf("approve:%s:%t", operator.Hex(), approved)), nil
}
func (f *fakeDragon) EncodeEvolve(tokenID uint64) ([]byte, error) {
	return []byte(fmt.Sprintf("evolve:%d", tokenID)), nil
}
func (f *fakeDragon) EncodeFeeding(tokenID uint64) ([]byte, error) {
	return []byte(fmt.Sprintf("feed:%d", tokenID)), nil
}
func (f *fakeDragon) EstimateCall(context.Context, common.Address, []byte) (uint64, error) {
	return 80_000, nil
}

// fakeMarket answers the reconciler's views as "not listed" and encodes
// calls as readable markers.
type fakeMarket struct{}

func (f *fakeMarket) Address() common.Address { return marketAddr }
func (f *fakeMarket) ListedInMarket(context.Context, common.Address, uint64) (bool, error) {
	return false, nil
}
func (f *fakeMarket) ListedInAuction(context.Context, common.Address, uint64) (bool, error) {
	return false, nil
}
func (f *fakeMarket) AuctionIDForToken(context.Context, common.Address, uint64) (uint64, error) {
	return 0, nil
}
func (f *fakeMarket) AuctionStatus(context.Context, uint64) (domain.ListingStatus, error) {
	return domain.StatusUnknown, nil
}
func (f *fakeMarket) ItemIDForToken(context.Context, common.Address, uint64) (uint64, error) {
	return 0, nil
}
func (f *fakeMarket) SaleStatus(context.Context, uint64) (domain.ListingStatus, error) {
	return domain.StatusUnknown, nil
}
func (f *fakeMarket) EncodeListItem(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error) {
	return []byte(fmt.Sprintf("listItem:%s:%d:%d:%s", collection.Hex(), tokenID, durationSec, price)), nil
}
func (f *fakeMarket) EncodeListAuction(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error) {
	return []byte(fmt.Sprintf("listAuction:%s:%d:%d:%s", collection.Hex(), tokenID, durationSec, price)), nil
}
func (f *fakeMarket) EncodeResolveAuction(auctionID uint64) ([]byte, error) {
	return []byte(fmt.Sprintf("resolveAuction:%d", auctionID)), nil
}
func (f *fakeMarket) EncodeUnlistItem(itemID uint64) ([]byte, error) {
	return []byte(fmt.Sprintf("unlistItem:%d", itemID)), nil
}

type fakeDrink struct{}

func (f *fakeDrink) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

// fakeForwarder hands out sequential nonces, one per NextNonce call, the
// way the on-chain forwarder does after each executed request.
type fakeForwarder struct {
	next int64
}

func (f *fakeForwarder) Address() common.Address { return common.Address{} }
func (f *fakeForwarder) NextNonce(context.Context, common.Address) (*big.Int, error) {
	n := big.NewInt(f.next)
	f.next++
	return n, nil
}

type fakeTransport struct {
	envelopes []domain.SignedEnvelope
}

func (f *fakeTransport) Submit(_ context.Context, env domain.SignedEnvelope) (domain.RelayResult, error) {
	f.envelopes = append(f.envelopes, env)
	return domain.RelayResult{TaskID: fmt.Sprintf("task-%d", len(f.envelopes))}, nil
}

type fakeSource struct {
	assets []domain.Asset
}

func (f *fakeSource) OwnedAssets(context.Context, common.Address) ([]domain.Asset, error) {
	return f.assets, nil
}

type fakeLocks struct {
	held bool
	keys []string
}

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.keys = append(f.keys, key)
	return func() {}, nil
}

type fakeCache struct {
	snapshots   map[string]domain.Snapshot
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[string]domain.Snapshot)}
}

func (f *fakeCache) SetSnapshot(_ context.Context, snap domain.Snapshot) error {
	f.snapshots[snap.Owner] = snap
	return nil
}

func (f *fakeCache) GetSnapshot(_ context.Context, owner string) (domain.Snapshot, error) {
	snap, ok := f.snapshots[owner]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func (f *fakeCache) Invalidate(_ context.Context, owner string) error {
	f.invalidated = append(f.invalidated, owner)
	delete(f.snapshots, owner)
	return nil
}

type fakeBus struct {
	published map[string][][]byte
}

func newFakeBus() *fakeBus { return &fakeBus{published: make(map[string][][]byte)} }

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

// --------------------------------------------------------------------------
// Harness
// --------------------------------------------------------------------------

type harness struct {
	station   *Station
	transport *fakeTransport
	forwarder *fakeForwarder
	dragon    *fakeDragon
	locks     *fakeLocks
	cache     *fakeCache
	bus       *fakeBus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dragon := &fakeDragon{}
	market := &fakeMarket{}
	transport := &fakeTransport{}
	forwarder := &fakeForwarder{}
	locks := &fakeLocks{}
	cache := newFakeCache()
	bus := newFakeBus()

	sess := session.New(&fakeSigner{addr: walletAddr})
	rec := reconcile.New(market, &fakeDrink{}, dragonAddr, logger)

	st := New(sess, Deps{
		Dragon:     dragon,
		Market:     market,
		Forwarder:  forwarder,
		Transport:  transport,
		Source:     &fakeSource{assets: []domain.Asset{{ID: 7, Owner: walletAddr.Hex()}}},
		Reconciler: rec,
		Locks:      locks,
		Cache:      cache,
		Bus:        bus,
	}, Config{}, logger)

	return &harness{
		station:   st,
		transport: transport,
		forwarder: forwarder,
		dragon:    dragon,
		locks:     locks,
		cache:     cache,
		bus:       bus,
	}
}

func saleTerms(t *testing.T, price, duration string) domain.SaleTerms {
	t.Helper()
	var terms domain.SaleTerms
	require.True(t, terms.SetPrice(price))
	require.NoError(t, terms.SetDuration(duration, time.Now()))
	return terms
}

// preloadSnapshot seeds the cache so Snapshot and Resolve read listing
// state without a chain round trip.
func (h *harness) preloadSnapshot(tokenID uint64, state domain.ListingState) {
	h.cache.snapshots[walletAddr.Hex()] = domain.Snapshot{
		Owner:    walletAddr.Hex(),
		Assets:   []domain.Asset{{ID: tokenID, Owner: walletAddr.Hex()}},
		Listings: domain.ListingTable{tokenID: state},
		TakenAt:  time.Now().UTC(),
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestListForSaleRelaysApprovalFirst(t *testing.T) {
	h := newHarness(t)
	h.dragon.approved = false

	res, err := h.station.ListForSale(context.Background(), 7, saleTerms(t, "2.5", "6 hours"))
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 2)

	approval := h.transport.envelopes[0]
	assert.Equal(t, dragonAddr, approval.Request.To)
	assert.Equal(t, fmt.Sprintf("approve:%s:true", marketAddr.Hex()), string(approval.Request.Data))
	assert.Equal(t, uint64(80_000), approval.Request.Gas, "approval uses the estimated gas")

	listing := h.transport.envelopes[1]
	assert.Equal(t, marketAddr, listing.Request.To)
	assert.Equal(t,
		fmt.Sprintf("listItem:%s:7:21600:2500000000000000000", dragonAddr.Hex()),
		string(listing.Request.Data))

	// Each call carries a freshly fetched nonce; the listing must not reuse
	// the approval's.
	assert.Equal(t, "0", approval.Request.Nonce.String())
	assert.Equal(t, "1", listing.Request.Nonce.String())

	require.NotNil(t, res.Approval)
	assert.Equal(t, "task-2", res.Relay.TaskID)
	assert.Equal(t, domain.ActionListSale, res.Action)
}

func TestListForSaleSkipsApprovalWhenApproved(t *testing.T) {
	h := newHarness(t)
	h.dragon.approved = true

	res, err := h.station.ListForSale(context.Background(), 7, saleTerms(t, "1", "1 day"))
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 1)
	assert.Equal(t, marketAddr, h.transport.envelopes[0].Request.To)
	assert.Nil(t, res.Approval)
}

func TestListForAuctionEncodesTerms(t *testing.T) {
	h := newHarness(t)
	h.dragon.approved = true

	_, err := h.station.ListForAuction(context.Background(), 7, saleTerms(t, "0.5", "3 days"))
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 1)
	assert.Equal(t,
		fmt.Sprintf("listAuction:%s:7:259200:500000000000000000", dragonAddr.Hex()),
		string(h.transport.envelopes[0].Request.Data))
}

func TestListForSaleRejectsIncompleteTerms(t *testing.T) {
	h := newHarness(t)

	var noPrice domain.SaleTerms
	require.NoError(t, noPrice.SetDuration("1 day", time.Now()))
	_, err := h.station.ListForSale(context.Background(), 7, noPrice)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	var noDuration domain.SaleTerms
	require.True(t, noDuration.SetPrice("1"))
	_, err = h.station.ListForSale(context.Background(), 7, noDuration)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	assert.Empty(t, h.transport.envelopes, "nothing may reach the relay on bad terms")
}

func TestActionLockAlreadyHeld(t *testing.T) {
	h := newHarness(t)
	h.dragon.approved = true
	h.locks.held = true

	_, err := h.station.ListForSale(context.Background(), 7, saleTerms(t, "1", "1 day"))
	assert.ErrorIs(t, err, domain.ErrActionInFlight)
	assert.Empty(t, h.transport.envelopes)
}

func TestActionLockKeyIsPerToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.station.Evolve(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, h.locks.keys, 1)
	assert.Equal(t, fmt.Sprintf("action:%s:7", walletAddr.Hex()), h.locks.keys[0])
}

func TestEvolveRelaysSingleCall(t *testing.T) {
	h := newHarness(t)

	res, err := h.station.Evolve(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 1)
	env := h.transport.envelopes[0]
	assert.Equal(t, dragonAddr, env.Request.To)
	assert.Equal(t, "evolve:7", string(env.Request.Data))
	assert.Equal(t, domain.ActionEvolve, res.Action)
	assert.Len(t, h.bus.published["actions"], 1)
}

func TestResolveDispatchesEndedMarketListing(t *testing.T) {
	h := newHarness(t)
	h.preloadSnapshot(7, domain.ListingState{Kind: domain.ListedMarket, MarketID: 3, Status: domain.StatusEnded})

	res, err := h.station.Resolve(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 1)
	env := h.transport.envelopes[0]
	assert.Equal(t, marketAddr, env.Request.To)
	assert.Equal(t, "unlistItem:3", string(env.Request.Data))
	assert.Equal(t, domain.ActionUnlist, res.Action)
}

func TestResolveDispatchesEndedAuction(t *testing.T) {
	h := newHarness(t)
	h.preloadSnapshot(7, domain.ListingState{Kind: domain.ListedAuction, AuctionID: 9, Status: domain.StatusEnded})

	res, err := h.station.Resolve(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, h.transport.envelopes, 1)
	assert.Equal(t, "resolveAuction:9", string(h.transport.envelopes[0].Request.Data))
	assert.Equal(t, domain.ActionResolveAuction, res.Action)
}

func TestResolveRefusesActiveOrUnlistedToken(t *testing.T) {
	h := newHarness(t)

	h.preloadSnapshot(7, domain.ListingState{Kind: domain.ListedAuction, AuctionID: 9, Status: domain.StatusActive})
	_, err := h.station.Resolve(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotResolvable)

	h.preloadSnapshot(7, domain.ListingState{Kind: domain.ListedNone})
	_, err = h.station.Resolve(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotResolvable)

	assert.Empty(t, h.transport.envelopes)
}

func TestActionRebuildsSnapshotAfterSuccess(t *testing.T) {
	h := newHarness(t)
	h.preloadSnapshot(7, domain.ListingState{Kind: domain.ListedMarket, MarketID: 3, Status: domain.StatusEnded})

	_, err := h.station.Resolve(context.Background(), 7)
	require.NoError(t, err)

	// The stale snapshot is dropped and a fresh one written from chain
	// state, where token 7 is no longer listed.
	assert.Equal(t, []string{walletAddr.Hex()}, h.cache.invalidated)
	snap, err := h.cache.GetSnapshot(context.Background(), walletAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.ListedNone, snap.State(7).Kind)
}

func TestRefreshCachesAndPublishes(t *testing.T) {
	h := newHarness(t)

	snap, err := h.station.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, walletAddr.Hex(), snap.Owner)
	assert.Contains(t, h.cache.snapshots, walletAddr.Hex())
	assert.Len(t, h.bus.published["listings"], 1)
}

func TestSnapshotFallsBackToRefreshOnColdCache(t *testing.T) {
	h := newHarness(t)

	snap, err := h.station.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, walletAddr.Hex(), snap.Owner)

	// The fallback refresh warms the cache for the next read.
	assert.Contains(t, h.cache.snapshots, walletAddr.Hex())
}

func TestDisconnectedSessionRefusesEverything(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := New(session.New(nil), Deps{Dragon: &fakeDragon{}, Market: &fakeMarket{}}, Config{}, logger)

	_, err := st.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	_, err = st.ListForSale(context.Background(), 7, saleTerms(t, "1", "1 day"))
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	_, err = st.Evolve(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	assert.Empty(t, st.Owner())
}
