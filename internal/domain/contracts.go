package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DragonContract is the typed capability surface of the dragon NFT
// contract: approval state, growth reads, and call-data encoding for the
// relayed mutating methods.
type DragonContract interface {
	Address() common.Address
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
	GrowthInfo(ctx context.Context, tokenID uint64) (GrowthInfo, error)
	EncodeSetApprovalForAll(operator common.Address, approved bool) ([]byte, error)
	EncodeEvolve(tokenID uint64) ([]byte, error)
	EncodeFeeding(tokenID uint64) ([]byte, error)
	EstimateCall(ctx context.Context, from common.Address, data []byte) (uint64, error)
}

// MarketContract is the typed capability surface of the marketplace
// contract's listing/auction views and relayed mutating methods.
type MarketContract interface {
	Address() common.Address
	ListedInMarket(ctx context.Context, collection common.Address, tokenID uint64) (bool, error)
	ListedInAuction(ctx context.Context, collection common.Address, tokenID uint64) (bool, error)
	AuctionIDForToken(ctx context.Context, collection common.Address, tokenID uint64) (uint64, error)
	AuctionStatus(ctx context.Context, auctionID uint64) (ListingStatus, error)
	ItemIDForToken(ctx context.Context, collection common.Address, tokenID uint64) (uint64, error)
	SaleStatus(ctx context.Context, itemID uint64) (ListingStatus, error)
	EncodeListItem(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error)
	EncodeListAuction(collection common.Address, tokenID uint64, durationSec int64, price *big.Int) ([]byte, error)
	EncodeResolveAuction(auctionID uint64) ([]byte, error)
	EncodeUnlistItem(itemID uint64) ([]byte, error)
}

// DrinkContract reads the fungible Drink token balance.
type DrinkContract interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

// ForwarderContract reads the trusted forwarder's per-sender nonce.
type ForwarderContract interface {
	Address() common.Address
	NextNonce(ctx context.Context, sender common.Address) (*big.Int, error)
}

// CollectionSource enumerates the tokens a wallet currently owns.
type CollectionSource interface {
	OwnedAssets(ctx context.Context, owner common.Address) ([]Asset, error)
}

// TxSigner produces EIP-712 signatures over forwarder requests. Private key
// custody stays behind this interface.
type TxSigner interface {
	Address() common.Address
	SignForwardRequest(req ForwarderRequest) ([]byte, error)
}

// RelayTransport submits a signed envelope for third-party execution.
type RelayTransport interface {
	Submit(ctx context.Context, env SignedEnvelope) (RelayResult, error)
}

// ReceiptWaiter blocks until a relayed transaction is mined. Implementations
// enforce their own polling interval and timeout.
type ReceiptWaiter interface {
	WaitMined(ctx context.Context, txHash string) error
}
