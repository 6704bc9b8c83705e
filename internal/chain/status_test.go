package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

func bytes32(s string) [32]byte {
	var b [32]byte
	copy(b[:], s)
	return b
}

func TestDecodeStatus(t *testing.T) {
	assert.Equal(t, domain.StatusActive, decodeStatus(bytes32("ACTIVE")))
	assert.Equal(t, domain.StatusEnded, decodeStatus(bytes32("ENDED")))
	assert.Equal(t, domain.StatusCanceled, decodeStatus(bytes32("CANCELED")))

	// Unrecognised codes pass through verbatim rather than being coerced.
	assert.Equal(t, domain.ListingStatus("PAUSED"), decodeStatus(bytes32("PAUSED")))

	assert.Equal(t, domain.StatusUnknown, decodeStatus([32]byte{}))
}
