package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bchsol/CryptoDragon/internal/chain/consts"
	"github.com/bchsol/CryptoDragon/internal/domain"
)

// Market is the typed wrapper for the marketplace contract.
type Market struct {
	addr   common.Address
	abi    abi.ABI
	caller caller
}

// NewMarket creates the marketplace contract wrapper.
func NewMarket(c caller, addr common.Address) (*Market, error) {
	a, err := abi.JSON(strings.NewReader(consts.MarketABI))
	if err != nil {
		return nil, fmt.Errorf("chain: market abi: %w", err)
	}
	return &Market{addr: addr, abi: a, caller: c}, nil
}

// Address returns the marketplace contract address.
func (m *Market) Address() common.Address { return m.addr }

// ListedInMarket reports whether the token has a direct-sale listing.
func (m *Market) ListedInMarket(ctx context.Context, collection common.Address, tokenID uint64) (bool, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "getListedInMarket", collection, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return false, err
	}
	return asBool(vals[0])
}

// ListedInAuction reports whether the token has an auction listing.
func (m *Market) ListedInAuction(ctx context.Context, collection common.Address, tokenID uint64) (bool, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "getListedInAuction", collection, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return false, err
	}
	return asBool(vals[0])
}

// AuctionIDForToken resolves the auction id covering the token.
func (m *Market) AuctionIDForToken(ctx context.Context, collection common.Address, tokenID uint64) (uint64, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "getAuctionStatusByToken", collection, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return 0, err
	}
	id, err := asBig(vals[0])
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

// AuctionStatus reads and decodes an auction's fixed-width status code.
func (m *Market) AuctionStatus(ctx context.Context, auctionID uint64) (domain.ListingStatus, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "getAuctionStatus", new(big.Int).SetUint64(auctionID))
	if err != nil {
		return domain.StatusUnknown, err
	}
	raw, err := asBytes32(vals[0])
	if err != nil {
		return domain.StatusUnknown, err
	}
	return decodeStatus(raw), nil
}

// ItemIDForToken resolves the market item id covering the token.
func (m *Market) ItemIDForToken(ctx context.Context, collection common.Address, tokenID uint64) (uint64, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "tokenToItemId", collection, new(big.Int).SetUint64(tokenID))
	if err != nil {
		return 0, err
	}
	id, err := asBig(vals[0])
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

// SaleStatus reads and decodes a market item's fixed-width status code.
func (m *Market) SaleStatus(ctx context.Context, itemID uint64) (domain.ListingStatus, error) {
	vals, err := m.caller.Call(ctx, m.addr, m.abi, "getSaleStatus", new(big.Int).SetUint64(itemID))
	if err != nil {
		return domain.StatusUnknown, err
	}
	raw, err := asBytes32(vals[0])
	if err != nil {
		return domain.StatusUnknown, err
	}
	return decodeStatus(raw), nil
}

// EncodeListItem packs the direct-sale listing call: quantity is fixed to 1
// and the listing is flagged for sale.
func (m *Market) EncodeListItem(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error) {
	data, err := m.abi.Pack("listItem",
		collection,
		new(big.Int).SetUint64(tokenID),
		big.NewInt(durationSec),
		price,
		big.NewInt(1),
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("chain: pack listItem: %w", err)
	}
	return data, nil
}

// EncodeListAuction packs the auction listing call.
func (m *Market) EncodeListAuction(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error) {
	data, err := m.abi.Pack("listAuction",
		collection,
		new(big.Int).SetUint64(tokenID),
		big.NewInt(durationSec),
		price,
	)
	if err != nil {
		return nil, fmt.Errorf("chain: pack listAuction: %w", err)
	}
	return data, nil
}

// EncodeResolveAuction packs the auction resolution call.
func (m *Market) EncodeResolveAuction(auctionID uint64) ([]byte, error) {
	data, err := m.abi.Pack("resolveAuction", new(big.Int).SetUint64(auctionID))
	if err != nil {
		return nil, fmt.Errorf("chain: pack resolveAuction: %w", err)
	}
	return data, nil
}

// EncodeUnlistItem packs the market item removal call.
func (m *Market) EncodeUnlistItem(itemID uint64) ([]byte, error) {
	data, err := m.abi.Pack("unlistItem", new(big.Int).SetUint64(itemID))
	if err != nil {
		return nil, fmt.Errorf("chain: pack unlistItem: %w", err)
	}
	return data, nil
}

// Compile-time interface check.
var _ domain.MarketContract = (*Market)(nil)
