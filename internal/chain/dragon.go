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

// Dragon is the typed wrapper for the dragon NFT contract. Besides the
// approval and growth capability surface it doubles as the collection
// source, enumerating owned tokens through the ERC-721 enumerable views.
type Dragon struct {
	addr   common.Address
	abi    abi.ABI
	caller caller
}

// NewDragon creates the dragon contract wrapper.
func NewDragon(c caller, addr common.Address) (*Dragon, error) {
	a, err := abi.JSON(strings.NewReader(consts.DragonABI))
	if err != nil {
		return nil, fmt.Errorf("chain: dragon abi: %w", err)
	}
	return &Dragon{addr: addr, abi: a, caller: c}, nil
}

// Address returns the dragon contract address.
func (d *Dragon) Address() common.Address { return d.addr }

// IsApprovedForAll reports whether operator may manage all of owner's tokens.
func (d *Dragon) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	vals, err := d.caller.Call(ctx, d.addr, d.abi, "isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	return asBool(vals[0])
}

// GrowthInfo reads a token's current growth stage and the seconds remaining
// until the next stage.
func (d *Dragon) GrowthInfo(ctx context.Context, tokenID uint64) (domain.GrowthInfo, error) {
	vals, err := d.caller.Call(ctx, d.addr, d.abi, "getGrowthInfo", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return domain.GrowthInfo{}, err
	}

	stage, err := asBig(vals[0])
	if err != nil {
		return domain.GrowthInfo{}, err
	}
	remaining, err := asBig(vals[1])
	if err != nil {
		return domain.GrowthInfo{}, err
	}

	idx := int(stage.Int64())
	return domain.GrowthInfo{
		StageIndex:    idx,
		Stage:         domain.StageName(idx),
		TimeRemaining: remaining.Int64(),
	}, nil
}

// OwnedAssets enumerates every token the owner currently holds.
func (d *Dragon) OwnedAssets(ctx context.Context, owner common.Address) ([]domain.Asset, error) {
	vals, err := d.caller.Call(ctx, d.addr, d.abi, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("chain: dragon balance: %w", err)
	}
	count, err := asBig(vals[0])
	if err != nil {
		return nil, err
	}

	n := count.Uint64()
	assets := make([]domain.Asset, 0, n)
	for i := uint64(0); i < n; i++ {
		vals, err := d.caller.Call(ctx, d.addr, d.abi, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(i))
		if err != nil {
			return nil, fmt.Errorf("chain: token of owner at %d: %w", i, err)
		}
		id, err := asBig(vals[0])
		if err != nil {
			return nil, err
		}
		assets = append(assets, domain.Asset{
			ID:    id.Uint64(),
			Owner: owner.Hex(),
			Name:  fmt.Sprintf("Dragon #%d", id.Uint64()),
		})
	}
	return assets, nil
}

// EncodeSetApprovalForAll packs the operator approval call data.
func (d *Dragon) EncodeSetApprovalForAll(operator common.Address, approved bool) ([]byte, error) {
	data, err := d.abi.Pack("setApprovalForAll", operator, approved)
	if err != nil {
		return nil, fmt.Errorf("chain: pack setApprovalForAll: %w", err)
	}
	return data, nil
}

// EncodeEvolve packs the evolve call data.
func (d *Dragon) EncodeEvolve(tokenID uint64) ([]byte, error) {
	data, err := d.abi.Pack("evolve", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("chain: pack evolve: %w", err)
	}
	return data, nil
}

// EncodeFeeding packs the feeding call data.
func (d *Dragon) EncodeFeeding(tokenID uint64) ([]byte, error) {
	data, err := d.abi.Pack("feeding", new(big.Int).SetUint64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("chain: pack feeding: %w", err)
	}
	return data, nil
}

// EstimateCall estimates the gas for executing data against this contract.
func (d *Dragon) EstimateCall(ctx context.Context, from common.Address, data []byte) (uint64, error) {
	return d.caller.EstimateGas(ctx, from, d.addr, data)
}

// Compile-time interface checks.
var (
	_ domain.DragonContract   = (*Dragon)(nil)
	_ domain.CollectionSource = (*Dragon)(nil)
)
