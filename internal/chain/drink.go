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

// Drink is the typed wrapper for the fungible Drink token contract.
type Drink struct {
	addr   common.Address
	abi    abi.ABI
	caller caller
}

// NewDrink creates the Drink token contract wrapper.
func NewDrink(c caller, addr common.Address) (*Drink, error) {
	a, err := abi.JSON(strings.NewReader(consts.DrinkABI))
	if err != nil {
		return nil, fmt.Errorf("chain: drink abi: %w", err)
	}
	return &Drink{addr: addr, abi: a, caller: c}, nil
}

// BalanceOf reads the account's raw 18-decimal balance.
func (d *Drink) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	vals, err := d.caller.Call(ctx, d.addr, d.abi, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return asBig(vals[0])
}

// Compile-time interface check.
var _ domain.DrinkContract = (*Drink)(nil)
