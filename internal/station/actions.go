package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/bchsol/CryptoDragon/internal/domain"
	"github.com/bchsol/CryptoDragon/internal/relay"
)

// ListForSale lists a token on the fixed-price market. The terms must carry
// an accepted price and a resolved duration. When the market is not yet an
// approved operator for the wallet's tokens, an approval call is relayed
// first and reported in the result.
func (st *Station) ListForSale(ctx context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error) {
	price, err := terms.PriceWei()
	if err != nil {
		return domain.ActionResult{}, err
	}
	if terms.DurationSeconds() <= 0 {
		return domain.ActionResult{}, fmt.Errorf("station: duration not set: %w", domain.ErrInvalidDuration)
	}
	data, err := st.deps.Market.EncodeListItem(st.deps.Dragon.Address(), tokenID, terms.DurationSeconds(), price)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("station: encode list item: %w", err)
	}
	return st.listOnMarket(ctx, domain.ActionListSale, tokenID, data)
}

// ListForAuction lists a token on the auction market with the given
// starting price and duration.
func (st *Station) ListForAuction(ctx context.Context, tokenID uint64, terms domain.SaleTerms) (domain.ActionResult, error) {
	price, err := terms.PriceWei()
	if err != nil {
		return domain.ActionResult{}, err
	}
	if terms.DurationSeconds() <= 0 {
		return domain.ActionResult{}, fmt.Errorf("station: duration not set: %w", domain.ErrInvalidDuration)
	}
	data, err := st.deps.Market.EncodeListAuction(st.deps.Dragon.Address(), tokenID, terms.DurationSeconds(), price)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("station: encode list auction: %w", err)
	}
	return st.listOnMarket(ctx, domain.ActionListAuction, tokenID, data)
}

// Evolve advances a token to its next growth stage via the relay.
func (st *Station) Evolve(ctx context.Context, tokenID uint64) (domain.ActionResult, error) {
	data, err := st.deps.Dragon.EncodeEvolve(tokenID)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("station: encode evolve: %w", err)
	}
	return st.singleCall(ctx, domain.ActionEvolve, tokenID, st.deps.Dragon.Address(), data, 0)
}

// Feed relays a feeding call for the token, spending Drink.
func (st *Station) Feed(ctx context.Context, tokenID uint64) (domain.ActionResult, error) {
	data, err := st.deps.Dragon.EncodeFeeding(tokenID)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("station: encode feeding: %w", err)
	}
	return st.singleCall(ctx, domain.ActionFeed, tokenID, st.deps.Dragon.Address(), data, 0)
}

// Resolve finishes a no-longer-active listing for the token. The call to
// make depends on how the token is listed: a market listing is taken down
// with unlistItem, an ended auction is settled with resolveAuction. A token
// that is not listed, or whose listing is still trading, is not resolvable.
func (st *Station) Resolve(ctx context.Context, tokenID uint64) (domain.ActionResult, error) {
	snap, err := st.Snapshot(ctx)
	if err != nil {
		return domain.ActionResult{}, err
	}
	state := snap.State(tokenID)
	if !state.Resolvable() {
		return domain.ActionResult{}, fmt.Errorf("station: token %d kind=%s status=%s: %w",
			tokenID, state.Kind, state.Status, domain.ErrNotResolvable)
	}

	var (
		action    domain.ActionType
		listingID uint64
		data      []byte
	)
	switch state.Kind {
	case domain.ListedMarket:
		action = domain.ActionUnlist
		listingID = state.MarketID
		data, err = st.deps.Market.EncodeUnlistItem(state.MarketID)
	case domain.ListedAuction:
		action = domain.ActionResolveAuction
		listingID = state.AuctionID
		data, err = st.deps.Market.EncodeResolveAuction(state.AuctionID)
	default:
		return domain.ActionResult{}, domain.ErrNotResolvable
	}
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("station: encode resolve: %w", err)
	}

	return st.runAction(ctx, action, tokenID, listingID, func(ctx context.Context, res *domain.ActionResult) error {
		rr, err := st.relayCall(ctx, st.deps.Market.Address(), data, 0)
		if err != nil {
			return err
		}
		res.Relay = rr
		return nil
	})
}

// listOnMarket runs the shared listing pipeline: acquire the per-token
// lock, relay an approval first when the market operator is not yet
// approved, then relay the listing call with a nonce fetched after the
// approval settled.
func (st *Station) listOnMarket(ctx context.Context, action domain.ActionType, tokenID uint64, data []byte) (domain.ActionResult, error) {
	return st.runAction(ctx, action, tokenID, 0, func(ctx context.Context, res *domain.ActionResult) error {
		owner := st.sess.Address()
		operator := st.deps.Market.Address()

		approved, err := st.deps.Dragon.IsApprovedForAll(ctx, owner, operator)
		if err != nil {
			return fmt.Errorf("approval check: %w", err)
		}
		if !approved {
			approval, err := st.relayApproval(ctx, owner, operator)
			if err != nil {
				return fmt.Errorf("approve: %w", err)
			}
			res.Approval = &approval
		}

		rr, err := st.relayCall(ctx, operator, data, 0)
		if err != nil {
			return err
		}
		res.Relay = rr
		return nil
	})
}

// relayApproval relays setApprovalForAll(market, true) with an estimated
// gas limit and, when a receipt waiter is configured, blocks until it is
// mined so the subsequent listing call sees both the approval and the
// incremented forwarder nonce.
func (st *Station) relayApproval(ctx context.Context, owner, operator common.Address) (domain.RelayResult, error) {
	data, err := st.deps.Dragon.EncodeSetApprovalForAll(operator, true)
	if err != nil {
		return domain.RelayResult{}, fmt.Errorf("encode: %w", err)
	}

	gas, err := st.deps.Dragon.EstimateCall(ctx, owner, data)
	if err != nil {
		st.logger.WarnContext(ctx, "approval gas estimate failed, using default",
			slog.String("error", err.Error()),
		)
		gas = st.cfg.DefaultGas
	}

	rr, err := st.relayCall(ctx, st.deps.Dragon.Address(), data, gas)
	if err != nil {
		return domain.RelayResult{}, err
	}

	if st.deps.Waiter != nil && rr.TxHash != "" {
		if err := st.deps.Waiter.WaitMined(ctx, rr.TxHash); err != nil {
			return domain.RelayResult{}, fmt.Errorf("wait mined: %w", err)
		}
	}
	st.journal(ctx, domain.ActionRecord{
		ID:        uuid.NewString(),
		Wallet:    owner.Hex(),
		Action:    domain.ActionApprove,
		TxHash:    rr.TxHash,
		TaskID:    rr.TaskID,
		Status:    domain.ActionStatusSubmitted,
		CreatedAt: time.Now().UTC(),
	})
	return rr, nil
}

// relayCall runs the forwarder pipeline once: fetch the sender's nonce
// fresh, build and sign the request, and submit the envelope. The nonce
// read happens here, never earlier, so chained calls always carry the
// forwarder's current expectation.
func (st *Station) relayCall(ctx context.Context, to common.Address, data []byte, gas uint64) (domain.RelayResult, error) {
	signer, err := st.sess.Signer()
	if err != nil {
		return domain.RelayResult{}, err
	}
	from := signer.Address()

	nonce, err := st.deps.Forwarder.NextNonce(ctx, from)
	if err != nil {
		return domain.RelayResult{}, fmt.Errorf("nonce: %w", err)
	}
	if gas == 0 {
		gas = st.cfg.DefaultGas
	}

	req := relay.NewRequest(from, to, data, nonce, gas)
	sig, err := signer.SignForwardRequest(req)
	if err != nil {
		return domain.RelayResult{}, err
	}

	rr, err := st.deps.Transport.Submit(ctx, domain.SignedEnvelope{Request: req, Signature: sig})
	if err != nil {
		return domain.RelayResult{}, err
	}

	st.logger.InfoContext(ctx, "relay accepted",
		slog.String("to", to.Hex()),
		slog.String("txHash", rr.TxHash),
		slog.String("taskId", rr.TaskID),
	)
	return rr, nil
}

// runAction wraps an action body with the shared lifecycle: session check,
// per-token in-flight lock, journaling, notification, and the
// invalidate-and-refetch of the listing snapshot on success.
func (st *Station) runAction(ctx context.Context, action domain.ActionType, tokenID, listingID uint64, body func(ctx context.Context, res *domain.ActionResult) error) (domain.ActionResult, error) {
	if !st.sess.Connected() {
		return domain.ActionResult{}, domain.ErrNotConnected
	}
	owner := st.sess.Address().Hex()

	unlock, err := st.acquireLock(ctx, tokenID)
	if err != nil {
		return domain.ActionResult{}, err
	}
	defer unlock()

	res := domain.ActionResult{
		ID:      uuid.NewString(),
		Action:  action,
		TokenID: tokenID,
	}
	rec := domain.ActionRecord{
		ID:        res.ID,
		Wallet:    owner,
		Action:    action,
		TokenID:   tokenID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}

	if err := body(ctx, &res); err != nil {
		rec.Status = domain.ActionStatusFailed
		rec.Error = err.Error()
		st.journal(ctx, rec)
		st.notify(ctx, "action", fmt.Sprintf("%s failed", action),
			fmt.Sprintf("token %d: %v", tokenID, err))
		return domain.ActionResult{}, fmt.Errorf("station: %s token %d: %w", action, tokenID, err)
	}
	res.CompletedAt = time.Now().UTC()

	rec.Status = domain.ActionStatusSubmitted
	rec.TxHash = res.Relay.TxHash
	rec.TaskID = res.Relay.TaskID
	if st.deps.Waiter != nil && res.Relay.TxHash != "" {
		if err := st.deps.Waiter.WaitMined(ctx, res.Relay.TxHash); err != nil {
			st.logger.WarnContext(ctx, "confirmation wait failed",
				slog.String("txHash", res.Relay.TxHash),
				slog.String("error", err.Error()),
			)
		} else {
			rec.Status = domain.ActionStatusConfirmed
		}
	}
	st.journal(ctx, rec)
	st.publishAction(ctx, res)
	st.notify(ctx, "action", fmt.Sprintf("%s submitted", action),
		fmt.Sprintf("token %d by %s", tokenID, domain.TruncateAddress(owner)))

	// The snapshot is never patched in place. Drop it and rebuild from
	// chain so the table reflects what actually committed.
	if st.deps.Cache != nil {
		if err := st.deps.Cache.Invalidate(ctx, owner); err != nil {
			st.logger.WarnContext(ctx, "cache invalidate failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if _, err := st.Refresh(ctx); err != nil {
		st.logger.WarnContext(ctx, "post-action refresh failed",
			slog.String("error", err.Error()),
		)
	}

	return res, nil
}

// singleCall is runAction for the plain one-relay-call actions.
func (st *Station) singleCall(ctx context.Context, action domain.ActionType, tokenID uint64, to common.Address, data []byte, gas uint64) (domain.ActionResult, error) {
	return st.runAction(ctx, action, tokenID, 0, func(ctx context.Context, res *domain.ActionResult) error {
		rr, err := st.relayCall(ctx, to, data, gas)
		if err != nil {
			return err
		}
		res.Relay = rr
		return nil
	})
}

// acquireLock takes the per-token action lock, translating a held lock
// into the caller-facing in-flight error.
func (st *Station) acquireLock(ctx context.Context, tokenID uint64) (func(), error) {
	if st.deps.Locks == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("action:%s:%d", st.sess.Address().Hex(), tokenID)
	unlock, err := st.deps.Locks.Acquire(ctx, key, st.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return nil, fmt.Errorf("station: token %d: %w", tokenID, domain.ErrActionInFlight)
		}
		return nil, fmt.Errorf("station: lock: %w", err)
	}
	return unlock, nil
}

// journal best-effort persists an action record.
func (st *Station) journal(ctx context.Context, rec domain.ActionRecord) {
	if st.deps.Journal == nil {
		return
	}
	if err := st.deps.Journal.Insert(ctx, rec); err != nil {
		st.logger.WarnContext(ctx, "journal insert failed",
			slog.String("action", string(rec.Action)),
			slog.String("error", err.Error()),
		)
	}
}

// notify best-effort fans an event out to the configured channels.
func (st *Station) notify(ctx context.Context, event, title, message string) {
	if st.deps.Notifier == nil {
		return
	}
	if err := st.deps.Notifier.Notify(ctx, event, title, message); err != nil {
		st.logger.WarnContext(ctx, "notification failed",
			slog.String("error", err.Error()),
		)
	}
}
