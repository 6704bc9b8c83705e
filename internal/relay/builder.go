// Package relay builds forwarder requests and submits signed envelopes to
// the gasless relay service.
package relay

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// DefaultGasLimit is used when the caller has no estimate for the relayed
// call. Relays re-check gas before execution, so a generous bound is safe.
const DefaultGasLimit uint64 = 300_000

// NewRequest assembles an unsigned forwarder request. It is pure: the data
// and nonce inputs are copied, so mutating them afterwards does not affect
// the request. A zero gas falls back to DefaultGasLimit.
//
// The nonce must come from a fresh ForwarderContract.NextNonce read made
// immediately before this call; a chained action increments the on-chain
// nonce between its calls, so a cached value would be stale.
func NewRequest(from, to common.Address, data []byte, nonce *big.Int, gas uint64) domain.ForwarderRequest {
	if gas == 0 {
		gas = DefaultGasLimit
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	nonceCopy := new(big.Int)
	if nonce != nil {
		nonceCopy.Set(nonce)
	}

	return domain.ForwarderRequest{
		From:  from,
		To:    to,
		Value: big.NewInt(0),
		Gas:   gas,
		Nonce: nonceCopy,
		Data:  dataCopy,
	}
}
