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

// Forwarder is the typed wrapper for the trusted forwarder contract.
type Forwarder struct {
	addr   common.Address
	abi    abi.ABI
	caller caller
}

// NewForwarder creates the forwarder contract wrapper.
func NewForwarder(c caller, addr common.Address) (*Forwarder, error) {
	a, err := abi.JSON(strings.NewReader(consts.ForwarderABI))
	if err != nil {
		return nil, fmt.Errorf("chain: forwarder abi: %w", err)
	}
	return &Forwarder{addr: addr, abi: a, caller: c}, nil
}

// Address returns the forwarder contract address.
func (f *Forwarder) Address() common.Address { return f.addr }

// NextNonce reads the forwarder's expected nonce for the sender. The value
// is only valid for the request built immediately after this call.
func (f *Forwarder) NextNonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	vals, err := f.caller.Call(ctx, f.addr, f.abi, "getNonce", sender)
	if err != nil {
		return nil, fmt.Errorf("chain: forwarder nonce: %w", err)
	}
	return asBig(vals[0])
}

// Compile-time interface check.
var _ domain.ForwarderContract = (*Forwarder)(nil)
