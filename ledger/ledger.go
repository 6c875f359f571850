// Package ledger implements the protocol state machine: it owns the merkle
// accumulator, the nullifier registries and the pooled funds, and exposes the
// deposit, swap and withdraw operations with their authorization and proof
// checks.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/aggregator"
	"github.com/veilswap/veilswap-node/circuits/withdrawal"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/merkle"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
)

var (
	// ErrUnauthorized is returned when a privileged operation is attempted
	// by an identity other than the configured operator, or when a
	// depositor authorization signature does not verify.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidProof is returned when a withdrawal proof fails Groth16
	// verification.
	ErrInvalidProof = errors.New("invalid withdrawal proof")
	// ErrPublicSignalMismatch is returned when the proof's public signals
	// disagree with the call arguments.
	ErrPublicSignalMismatch = errors.New("public signals do not match call arguments")
	// ErrUnknownRoot is returned when a proof was generated against a root
	// the accumulator never had.
	ErrUnknownRoot = errors.New("unknown merkle root")
	// ErrSwapExecutionFailed is returned when the external aggregator call
	// fails. The underlying cause is preserved so the operator can decide
	// whether to retry with different parameters.
	ErrSwapExecutionFailed = errors.New("swap execution failed")
	// ErrTransferFailed is returned when the final asset transfer of a
	// withdrawal fails. The nullifier hash stays consumed.
	ErrTransferFailed = errors.New("asset transfer failed")
)

// AssetTransferer releases pooled funds to a recipient. Implementations wrap
// whatever holds the pool: a chain client, a custody backend or an in-memory
// pool in tests.
type AssetTransferer interface {
	Transfer(ctx context.Context, asset types.Asset, to common.Address, amount *big.Int) error
}

// Config collects the ledger dependencies.
type Config struct {
	Storage      *storage.Storage
	Executor     aggregator.Executor
	Transfers    AssetTransferer
	VerifyingKey groth16.VerifyingKey
	Operator     common.Address
	ChainID      uint64
}

// Ledger is the authoritative protocol state. All operations are safe for
// concurrent use; the underlying registries provide the atomic
// check-then-set guarantees.
type Ledger struct {
	stg       *storage.Storage
	tree      *merkle.Tree
	executor  aggregator.Executor
	transfers AssetTransferer
	vk        groth16.VerifyingKey
	operator  common.Address
	chainID   uint64
}

// New creates a Ledger over the given dependencies. The merkle accumulator
// is opened from the storage's dedicated tree namespace.
func New(cfg Config) (*Ledger, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("missing storage")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("missing swap executor")
	}
	if cfg.Transfers == nil {
		return nil, fmt.Errorf("missing asset transferer")
	}
	tree, err := merkle.New(cfg.Storage.TreeDB())
	if err != nil {
		return nil, fmt.Errorf("could not open merkle accumulator: %w", err)
	}
	return &Ledger{
		stg:       cfg.Storage,
		tree:      tree,
		executor:  cfg.Executor,
		transfers: cfg.Transfers,
		vk:        cfg.VerifyingKey,
		operator:  cfg.Operator,
		chainID:   cfg.ChainID,
	}, nil
}

// Operator returns the identity authorized to run the swap phase.
func (l *Ledger) Operator() common.Address {
	return l.operator
}

// ChainID returns the chain identifier bound into authorization messages.
func (l *Ledger) ChainID() uint64 {
	return l.chainID
}

// RegisterSwapConfig stores a new immutable swap configuration.
func (l *Ledger) RegisterSwapConfig(cfg *types.SwapConfig) error {
	if err := l.stg.RegisterSwapConfig(cfg); err != nil {
		return err
	}
	log.Infow("registered swap config",
		"id", cfg.ID.String(),
		"tokenIn", cfg.TokenIn.String(),
		"fixedAmount", cfg.FixedAmount.String())
	return nil
}

// SwapConfig returns a swap configuration by ID.
func (l *Ledger) SwapConfig(id *types.BigInt) (*types.SwapConfig, error) {
	return l.stg.SwapConfig(id)
}

// ListSwapConfigs returns every registered swap configuration.
func (l *Ledger) ListSwapConfigs() ([]*types.SwapConfig, error) {
	return l.stg.ListSwapConfigs()
}

// Deposit appends a commitment to the accumulator under a swap configuration
// and records the deposit event. Returns the assigned leaf index.
func (l *Ledger) Deposit(commitment *big.Int, swapConfigID *types.BigInt) (uint32, error) {
	if _, err := l.stg.SwapConfig(swapConfigID); err != nil {
		return 0, fmt.Errorf("unknown swap config %s: %w", swapConfigID.String(), err)
	}
	leafIndex, err := l.tree.Insert(commitment)
	if err != nil {
		return 0, err
	}
	if err := l.stg.PushDepositEvent(&types.DepositEvent{
		Commitment:   new(types.BigInt).SetBigInt(commitment),
		LeafIndex:    leafIndex,
		SwapConfigID: swapConfigID,
		Timestamp:    time.Now(),
	}); err != nil {
		return 0, fmt.Errorf("could not record deposit event: %w", err)
	}
	log.Infow("deposit inserted", "leafIndex", leafIndex, "swapConfig", swapConfigID.String())
	return leafIndex, nil
}

// Root returns the accumulator's current root.
func (l *Ledger) Root() (*big.Int, error) {
	return l.tree.Root()
}

// Proof returns the merkle path of a previously inserted leaf.
func (l *Ledger) Proof(leafIndex uint32) (*merkle.Proof, error) {
	return l.tree.GenerateProof(leafIndex)
}

// IsKnownRoot reports whether root was ever the accumulator's root.
func (l *Ledger) IsKnownRoot(root *big.Int) (bool, error) {
	return l.tree.IsKnownRoot(root)
}

// LeafCount returns the number of deposits accepted so far.
func (l *Ledger) LeafCount() (uint32, error) {
	return l.tree.LeafCount()
}

// NullifierStatus returns the state-machine position of a nullifier hash.
func (l *Ledger) NullifierStatus(nullifierHash *big.Int) types.NullifierStatus {
	return l.stg.NullifierStatus(nullifierHash)
}

// SwapResult returns the recorded swap result of a nullifier hash.
func (l *Ledger) SwapResult(nullifierHash *big.Int) (*types.SwapResult, error) {
	return l.stg.SwapResult(nullifierHash)
}

// IsConsumed reports whether a nullifier hash was already withdrawn.
func (l *Ledger) IsConsumed(nullifierHash *big.Int) bool {
	return l.stg.IsConsumed(nullifierHash)
}

// DepositEvents returns the ordered deposit log.
func (l *Ledger) DepositEvents() ([]*types.DepositEvent, error) {
	return l.stg.DepositEvents()
}

// Withdraw verifies a withdrawal proof, consumes the nullifier hash and
// releases the swap proceeds to the recipient. Verification is purely a
// function of the proof and its embedded public signals; the current root is
// not consulted beyond membership in the known-roots registry.
func (l *Ledger) Withdraw(ctx context.Context, nullifierHash *big.Int, recipient common.Address, proof *types.WithdrawalProof) (*types.SwapResult, error) {
	if proof == nil {
		return nil, fmt.Errorf("%w: missing proof", ErrInvalidProof)
	}
	// the proof's public signals must match what the caller claims
	if proof.NullifierHash().Cmp(nullifierHash) != 0 {
		return nil, fmt.Errorf("%w: nullifier hash", ErrPublicSignalMismatch)
	}
	if proof.Recipient().Cmp(withdrawal.RecipientToField(recipient)) != 0 {
		return nil, fmt.Errorf("%w: recipient", ErrPublicSignalMismatch)
	}
	known, err := l.tree.IsKnownRoot(proof.Root())
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrUnknownRoot
	}

	gnarkProof, err := withdrawal.DecodeProof(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	publicWitness, err := withdrawal.PublicWitness(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if err := groth16.Verify(gnarkProof, l.vk, publicWitness); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	result, err := l.stg.ConsumeNullifier(nullifierHash, recipient)
	if err != nil {
		return nil, err
	}
	// no rollback of the consumed marker on transfer failure; the registry
	// transition is single-fire
	if err := l.transfers.Transfer(ctx, result.TokenOut, recipient, result.Amount.MathBigInt()); err != nil {
		log.Errorw(err, "withdrawal transfer failed")
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	log.Infow("withdrawal completed",
		"recipient", recipient.Hex(),
		"tokenOut", result.TokenOut.String(),
		"amount", result.Amount.String())
	return result, nil
}
