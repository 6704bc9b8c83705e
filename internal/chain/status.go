package chain

import (
	"bytes"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// decodeStatus converts the contract's fixed-width bytes32 status code into
// its string form by trimming the zero padding. Anything that decodes to an
// empty string maps to StatusUnknown.
func decodeStatus(raw [32]byte) domain.ListingStatus {
	trimmed := bytes.TrimRight(raw[:], "\x00")
	if len(trimmed) == 0 {
		return domain.StatusUnknown
	}
	return domain.ListingStatus(trimmed)
}
