package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// ForwardRequest(address from,address to,uint256 value,uint256 gas,uint256 nonce,bytes data)
	forwardRequestTypeHash = ethcrypto.Keccak256(
		[]byte("ForwardRequest(address from,address to,uint256 value,uint256 gas,uint256 nonce,bytes data)"),
	)
)

// SignerConfig identifies the key and the forwarder's EIP-712 domain.
type SignerConfig struct {
	// PrivateKeyHex is the hex-encoded secp256k1 key (0x prefix optional).
	PrivateKeyHex string
	// ChainID is the EVM chain id, e.g. 11155111 for Sepolia.
	ChainID int64
	// Forwarder is the trusted forwarder contract address (the EIP-712
	// verifying contract).
	Forwarder common.Address
	// DomainName and DomainVersion default to the MinimalForwarder values.
	DomainName    string
	DomainVersion string
}

// Signer holds the station wallet's key and produces EIP-712 signatures
// over forwarder requests.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	domainSep  []byte // cached EIP-712 domain separator hash
}

// NewSigner creates a Signer for the given forwarder domain.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	keyHex := strings.TrimPrefix(cfg.PrivateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: invalid private key: %w", err)
	}

	name := cfg.DomainName
	if name == "" {
		name = "MinimalForwarder"
	}
	version := cfg.DomainVersion
	if version == "" {
		version = "0.0.1"
	}

	s := &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}
	s.domainSep = buildDomainSeparator(name, version, cfg.ChainID, cfg.Forwarder)

	return s, nil
}

// Address returns the Ethereum address derived from the signer's key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignForwardRequest produces a 65-byte (r || s || v) EIP-712 signature over
// the forwarder request, suitable for on-chain verification by the forwarder.
func (s *Signer) SignForwardRequest(req domain.ForwarderRequest) ([]byte, error) {
	digest := ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			s.domainSep,
			forwardRequestStructHash(req),
		),
	)

	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("crypto/signer: %w: %v", domain.ErrSigningFailed, err)
	}

	// go-ethereum returns v in {0,1}; EIP-712 verifiers expect {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}

	return sig, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// buildDomainSeparator returns
// keccak256(abi.encode(typeHash, nameHash, versionHash, chainId, verifyingContract)).
func buildDomainSeparator(name, version string, chainID int64, verifying common.Address) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(name)),
			ethcrypto.Keccak256([]byte(version)),
			bigIntTo32Bytes(big.NewInt(chainID)),
			common.LeftPadBytes(verifying.Bytes(), 32),
		),
	)
}

// forwardRequestStructHash encodes and hashes the request per EIP-712.
// The dynamic data field contributes its keccak256 hash.
func forwardRequestStructHash(req domain.ForwarderRequest) []byte {
	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}
	nonce := req.Nonce
	if nonce == nil {
		nonce = big.NewInt(0)
	}

	return ethcrypto.Keccak256(
		concatBytes(
			forwardRequestTypeHash,
			common.LeftPadBytes(req.From.Bytes(), 32),
			common.LeftPadBytes(req.To.Bytes(), 32),
			bigIntTo32Bytes(value),
			bigIntTo32Bytes(new(big.Int).SetUint64(req.Gas)),
			bigIntTo32Bytes(nonce),
			ethcrypto.Keccak256(req.Data),
		),
	)
}

// bigIntTo32Bytes returns a 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// concatBytes concatenates multiple byte slices into one.
func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}

// Compile-time interface check.
var _ domain.TxSigner = (*Signer)(nil)
