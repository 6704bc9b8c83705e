// Package reconcile derives a consistent client-side view of marketplace
// listing state by combining the marketplace contract's auction and sale
// views per owned token.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// Reconciler rebuilds the full listing table for an owner's tokens. Each
// pass queries every token concurrently and merges the results; a failing
// read degrades that one token to an explicit UNKNOWN status instead of
// failing the batch.
type Reconciler struct {
	market     domain.MarketContract
	drink      domain.DrinkContract
	collection common.Address
	logger     *slog.Logger
}

// New creates a Reconciler for tokens of the given collection contract.
func New(market domain.MarketContract, drink domain.DrinkContract, collection common.Address, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		market:     market,
		drink:      drink,
		collection: collection,
		logger:     logger.With(slog.String("component", "reconciler")),
	}
}

// Reconcile classifies every asset and reads the owner's Drink balance in
// one pass. The returned snapshot holds exactly one listing entry per
// distinct input token id.
func (r *Reconciler) Reconcile(ctx context.Context, owner common.Address, assets []domain.Asset) (domain.Snapshot, error) {
	ids := uniqueIDs(assets)

	states := make([]domain.ListingState, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			states[i] = r.classify(gctx, id)
			return nil
		})
	}
	// classify never returns an error; degraded reads are folded into the
	// per-token state.
	_ = g.Wait()

	table := make(domain.ListingTable, len(ids))
	for i, id := range ids {
		table[id] = states[i]
	}

	return domain.Snapshot{
		Owner:        owner.Hex(),
		Assets:       assets,
		Listings:     table,
		DrinkBalance: r.drinkBalance(ctx, owner),
		TakenAt:      time.Now().UTC(),
	}, nil
}

// classify resolves one token's listing state. The auction view is checked
// first and short-circuits the market view, so a token the contract
// inconsistently reports in both is classified as an auction listing.
func (r *Reconciler) classify(ctx context.Context, tokenID uint64) domain.ListingState {
	inAuction, err := r.market.ListedInAuction(ctx, r.collection, tokenID)
	if err != nil {
		r.logger.WarnContext(ctx, "auction listing check failed",
			slog.Uint64("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return domain.ListingState{Kind: domain.ListedNone, Status: domain.StatusUnknown}
	}
	if inAuction {
		return r.classifyAuction(ctx, tokenID)
	}

	inMarket, err := r.market.ListedInMarket(ctx, r.collection, tokenID)
	if err != nil {
		r.logger.WarnContext(ctx, "market listing check failed",
			slog.Uint64("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return domain.ListingState{Kind: domain.ListedNone, Status: domain.StatusUnknown}
	}
	if inMarket {
		return r.classifyMarket(ctx, tokenID)
	}

	return domain.ListingState{Kind: domain.ListedNone}
}

func (r *Reconciler) classifyAuction(ctx context.Context, tokenID uint64) domain.ListingState {
	auctionID, err := r.market.AuctionIDForToken(ctx, r.collection, tokenID)
	if err == nil {
		var status domain.ListingStatus
		status, err = r.market.AuctionStatus(ctx, auctionID)
		if err == nil {
			return domain.ListingState{Kind: domain.ListedAuction, AuctionID: auctionID, Status: status}
		}
	}

	r.logger.WarnContext(ctx, "auction status fetch failed",
		slog.Uint64("token_id", tokenID),
		slog.String("error", err.Error()),
	)
	return domain.ListingState{Kind: domain.ListedAuction, Status: domain.StatusUnknown}
}

func (r *Reconciler) classifyMarket(ctx context.Context, tokenID uint64) domain.ListingState {
	itemID, err := r.market.ItemIDForToken(ctx, r.collection, tokenID)
	if err == nil {
		var status domain.ListingStatus
		status, err = r.market.SaleStatus(ctx, itemID)
		if err == nil {
			return domain.ListingState{Kind: domain.ListedMarket, MarketID: itemID, Status: status}
		}
	}

	r.logger.WarnContext(ctx, "sale status fetch failed",
		slog.Uint64("token_id", tokenID),
		slog.String("error", err.Error()),
	)
	return domain.ListingState{Kind: domain.ListedMarket, Status: domain.StatusUnknown}
}

// drinkBalance reads the owner's fungible balance reduced to whole units.
// A failing read degrades to "0" with a log entry; balance display never
// blocks the listing table.
func (r *Reconciler) drinkBalance(ctx context.Context, owner common.Address) string {
	raw, err := r.drink.BalanceOf(ctx, owner)
	if err != nil {
		r.logger.WarnContext(ctx, "drink balance read failed",
			slog.String("owner", owner.Hex()),
			slog.String("error", err.Error()),
		)
		return "0"
	}
	return domain.FormatWholeUnits(raw)
}

// uniqueIDs returns the distinct token ids in input order.
func uniqueIDs(assets []domain.Asset) []uint64 {
	seen := make(map[uint64]bool, len(assets))
	ids := make([]uint64, 0, len(assets))
	for _, a := range assets {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		ids = append(ids, a.ID)
	}
	return ids
}
