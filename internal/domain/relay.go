package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ForwarderRequest is the unsigned forwarder call envelope. The nonce must
// match the forwarder's expected nonce for From at submission time, so it is
// fetched fresh immediately before each request is built and never reused.
type ForwarderRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Gas   uint64
	Nonce *big.Int
	Data  []byte
}

// SignedEnvelope is a ForwarderRequest plus its EIP-712 signature. It is
// single-use: submit once, then discard.
type SignedEnvelope struct {
	Request   ForwarderRequest
	Signature []byte
}

// RelayResult is the relay transport's acknowledgement of a submitted
// envelope. Depending on the relay, either the on-chain transaction hash or
// a relay-assigned task id is populated.
type RelayResult struct {
	TxHash  string `json:"txHash,omitempty"`
	TaskID  string `json:"taskId,omitempty"`
	Message string `json:"message,omitempty"`
}

// ActionType identifies a user-triggered marketplace or dragon operation.
type ActionType string

const (
	ActionApprove        ActionType = "approve"
	ActionListSale       ActionType = "list_sale"
	ActionListAuction    ActionType = "list_auction"
	ActionEvolve         ActionType = "evolve"
	ActionFeed           ActionType = "feeding"
	ActionResolveAuction ActionType = "resolve_auction"
	ActionUnlist         ActionType = "unlist_item"
)

// ActionResult is the orchestrator's explicit report for one completed
// action. Approval is set when an operator-approval call had to be relayed
// before the primary call.
type ActionResult struct {
	ID          string       `json:"id"`
	Action      ActionType   `json:"action"`
	TokenID     uint64       `json:"tokenId"`
	Approval    *RelayResult `json:"approval,omitempty"`
	Relay       RelayResult  `json:"relay"`
	CompletedAt time.Time    `json:"completedAt"`
}
