package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SwapConfig is an owner-registered fixed denomination: every deposit that
// references it locks exactly FixedAmount of TokenIn. Configs are immutable
// once created so that observers cannot distinguish depositors by amount.
type SwapConfig struct {
	ID          *BigInt `json:"id" cbor:"0,keyasint"`
	TokenIn     Asset   `json:"tokenIn" cbor:"1,keyasint"`
	FixedAmount *BigInt `json:"fixedAmount" cbor:"2,keyasint"`
}

// SwapResult is the outcome of the swap phase for one nullifier hash. It is
// written exactly once and later released to the withdrawal recipient.
type SwapResult struct {
	TokenOut Asset   `json:"tokenOut" cbor:"0,keyasint"`
	Amount   *BigInt `json:"amount" cbor:"1,keyasint"`
}

// NullifierStatus tracks the per-nullifier-hash state machine. Transitions
// are strictly forward: Unseen -> Swapped -> Withdrawn.
type NullifierStatus uint8

const (
	NullifierUnseen NullifierStatus = iota
	NullifierSwapped
	NullifierWithdrawn
)

func (s NullifierStatus) String() string {
	switch s {
	case NullifierUnseen:
		return "unseen"
	case NullifierSwapped:
		return "swapped"
	case NullifierWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}

// DepositEvent records one leaf insertion. The ordered deposit log is the only
// practical way to map a commitment back to its leaf index after the fact, so
// it is retained for the lifetime of the accumulator.
type DepositEvent struct {
	Commitment   *BigInt   `json:"commitment" cbor:"0,keyasint"`
	LeafIndex    uint32    `json:"leafIndex" cbor:"1,keyasint"`
	SwapConfigID *BigInt   `json:"swapConfigId" cbor:"2,keyasint"`
	Timestamp    time.Time `json:"timestamp" cbor:"3,keyasint"`
}

// SwapRecordedEvent is emitted when the swap phase stores a result.
type SwapRecordedEvent struct {
	NullifierHash *BigInt `json:"nullifierHash"`
	TokenOut      Asset   `json:"tokenOut"`
	AmountOut     *BigInt `json:"amountOut"`
}

// WithdrawalEvent is emitted when a withdrawal releases funds.
type WithdrawalEvent struct {
	NullifierHash *BigInt        `json:"nullifierHash"`
	Recipient     common.Address `json:"recipient"`
	TokenOut      Asset          `json:"tokenOut"`
	Amount        *BigInt        `json:"amount"`
}
