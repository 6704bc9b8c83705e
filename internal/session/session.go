// Package session carries the connected wallet's identity and signing
// capability as an explicit value. Components never read connection state
// from ambient globals; they receive a *Session and ask it.
package session

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// Session is the explicit wallet session passed into every component that
// signs or attributes chain state to the user.
type Session struct {
	signer domain.TxSigner
}

// New creates a connected session around the given signer.
func New(signer domain.TxSigner) *Session {
	return &Session{signer: signer}
}

// Connected reports whether a wallet is attached.
func (s *Session) Connected() bool {
	return s != nil && s.signer != nil
}

// Address returns the connected wallet address, or the zero address when
// disconnected.
func (s *Session) Address() common.Address {
	if !s.Connected() {
		return common.Address{}
	}
	return s.signer.Address()
}

// Signer returns the signing capability, or ErrNotConnected when no wallet
// session is active. Every action starts with this check.
func (s *Session) Signer() (domain.TxSigner, error) {
	if !s.Connected() {
		return nil, domain.ErrNotConnected
	}
	return s.signer, nil
}
