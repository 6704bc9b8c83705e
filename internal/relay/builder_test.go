package relay

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestCopiesInputs(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	nonce := big.NewInt(7)

	req := NewRequest(from, to, data, nonce, 100_000)

	// Mutating the caller's slices and values after the fact must not leak
	// into the built request.
	data[0] = 0x00
	nonce.SetInt64(99)

	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, req.Data)
	assert.Equal(t, "7", req.Nonce.String())
	assert.Equal(t, from, req.From)
	assert.Equal(t, to, req.To)
	assert.Equal(t, uint64(100_000), req.Gas)
}

func TestNewRequestDefaults(t *testing.T) {
	req := NewRequest(common.Address{}, common.Address{}, nil, nil, 0)

	assert.Equal(t, DefaultGasLimit, req.Gas)
	require.NotNil(t, req.Value)
	assert.Zero(t, req.Value.Sign())
	require.NotNil(t, req.Nonce)
	assert.Zero(t, req.Nonce.Sign())
	assert.Empty(t, req.Data)
}
