// Package chain implements the typed contract wrappers over an Ethereum
// JSON-RPC endpoint. Each wrapper exposes only the capability surface its
// consumers need; nothing shares a generic contract handle.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// caller is the read surface the contract wrappers need. *Client implements
// it; tests substitute a fake.
type caller interface {
	Call(ctx context.Context, to common.Address, a abi.ABI, method string, args ...any) ([]any, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
}

// ClientConfig holds RPC connection and receipt-wait parameters.
type ClientConfig struct {
	RPCURL string
	// PollInterval is the receipt polling cadence for WaitMined.
	PollInterval time.Duration
	// MinedTimeout bounds how long WaitMined blocks before giving up.
	MinedTimeout time.Duration
}

// Client wraps an ethclient connection and provides contract view calls,
// gas estimation, and receipt polling.
type Client struct {
	eth          *ethclient.Client
	chainID      *big.Int
	pollInterval time.Duration
	minedTimeout time.Duration
}

// Dial connects to the RPC endpoint and verifies it by reading the chain id.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	timeout := cfg.MinedTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		eth:          eth,
		chainID:      chainID,
		pollInterval: poll,
		minedTimeout: timeout,
	}, nil
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Call packs a view method call, executes it against the latest block, and
// unpacks the outputs.
func (c *Client) Call(ctx context.Context, to common.Address, a abi.ABI, method string, args ...any) ([]any, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}

	vals, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return vals, nil
}

// EstimateGas estimates the gas for executing data against the target
// contract from the given sender.
func (c *Client) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	gas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return 0, fmt.Errorf("chain: estimate gas: %w", err)
	}
	return gas, nil
}

// WaitMined polls for the transaction receipt until it is mined or the
// configured timeout elapses. A reverted execution is reported as an error.
func (c *Client) WaitMined(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, c.minedTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("chain: tx %s reverted", txHash)
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("chain: receipt %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("chain: waiting for tx %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --------------------------------------------------------------------------
// Unpack helpers shared by the contract wrappers
// --------------------------------------------------------------------------

func asBig(v any) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chain: expected *big.Int, got %T", v)
	}
	return b, nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("chain: expected bool, got %T", v)
	}
	return b, nil
}

func asBytes32(v any) ([32]byte, error) {
	b, ok := v.([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("chain: expected bytes32, got %T", v)
	}
	return b, nil
}

// Compile-time interface checks.
var (
	_ caller               = (*Client)(nil)
	_ domain.ReceiptWaiter = (*Client)(nil)
)
