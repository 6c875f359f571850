// Package client implements the depositor-side orchestration: re-deriving
// note material from a passphrase, locating the deposit in the ledger's
// event log, building the withdrawal witness and producing a locally
// verified Groth16 proof.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/circuits"
	"github.com/veilswap/veilswap-node/circuits/withdrawal"
	"github.com/veilswap/veilswap-node/commitment"
	"github.com/veilswap/veilswap-node/log"
	"github.com/veilswap/veilswap-node/merkle"
	"github.com/veilswap/veilswap-node/prover"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
)

// ErrCommitmentNotFound is returned when the derived commitment is not in
// the deposit log: the deposit is not yet confirmed, or the passphrase is
// wrong.
var ErrCommitmentNotFound = errors.New("commitment not found in deposit log")

// scanRetryInterval is the pause between deposit-log scans while waiting for
// a deposit to appear.
const scanRetryInterval = 2 * time.Second

// LedgerReader is the read-only view of the ledger the client needs.
type LedgerReader interface {
	DepositEvents() ([]*types.DepositEvent, error)
	Proof(leafIndex uint32) (*merkle.Proof, error)
	SwapResult(nullifierHash *big.Int) (*types.SwapResult, error)
	IsConsumed(nullifierHash *big.Int) bool
}

// Prover generates withdrawal proofs against a ledger.
type Prover struct {
	ledger LedgerReader
	ccs    constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
}

// New creates a Prover from already loaded circuit material.
func New(ledger LedgerReader, ccs constraint.ConstraintSystem, pk groth16.ProvingKey, vk groth16.VerifyingKey) *Prover {
	return &Prover{ledger: ledger, ccs: ccs, pk: pk, vk: vk}
}

// NewFromArtifacts creates a Prover, downloading and decoding the withdrawal
// circuit artifacts if they are not cached yet.
func NewFromArtifacts(ctx context.Context, ledger LedgerReader) (*Prover, error) {
	if err := withdrawal.Artifacts.DownloadAll(ctx); err != nil {
		return nil, fmt.Errorf("could not fetch circuit artifacts: %w", err)
	}
	ccs, err := withdrawal.Artifacts.CircuitDefinition()
	if err != nil {
		return nil, err
	}
	pk, err := withdrawal.Artifacts.ProvingKey()
	if err != nil {
		return nil, err
	}
	vk, err := withdrawal.Artifacts.VerifyingKey()
	if err != nil {
		return nil, err
	}
	return New(ledger, ccs, pk, vk), nil
}

// GenerateWithdrawalProof re-derives the note from the passphrase, finds its
// commitment in the deposit log, builds the witness and produces a proof
// bound to recipient. The proof is verified locally before being returned,
// so a correctly derived proof never fails ledger-side verification.
func (p *Prover) GenerateWithdrawalProof(ctx context.Context, recipient common.Address, passphrase string) (*types.WithdrawalProof, error) {
	note, err := commitment.Derive(passphrase)
	if err != nil {
		return nil, err
	}
	leafIndex, err := p.findCommitment(ctx, note.Commitment)
	if err != nil {
		return nil, err
	}
	merkleProof, err := p.ledger.Proof(leafIndex)
	if err != nil {
		return nil, err
	}
	// sanity check the path natively before paying for proving time
	if ok, err := merkle.VerifyProof(merkleProof); err != nil || !ok {
		return nil, fmt.Errorf("ledger returned an inconsistent merkle path")
	}

	inputs := &withdrawal.ProofInputs{
		Nullifier:   note.Nullifier,
		Secret:      note.Secret,
		Recipient:   recipient,
		MerkleProof: merkleProof,
	}
	assignment, err := inputs.Assignment()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	gnarkProof, err := prover.Prove(circuits.WithdrawalCurve, p.ccs, p.pk, assignment)
	if err != nil {
		return nil, fmt.Errorf("could not generate proof: %w", err)
	}
	log.Debugw("withdrawal proof generated", "took", time.Since(start).String())

	if err := prover.Verify(circuits.WithdrawalCurve, p.vk, gnarkProof, assignment); err != nil {
		return nil, fmt.Errorf("locally generated proof failed verification: %w", err)
	}
	signals, err := inputs.PublicSignals()
	if err != nil {
		return nil, err
	}
	return withdrawal.EncodeProof(gnarkProof, signals)
}

// CheckWithdrawable reports whether a nullifier hash currently has an
// unclaimed swap result, returning it when available. It surfaces the same
// state errors a withdrawal would hit.
func (p *Prover) CheckWithdrawable(nullifierHash *big.Int) (*types.SwapResult, error) {
	if p.ledger.IsConsumed(nullifierHash) {
		return nil, storage.ErrAlreadyWithdrawn
	}
	return p.ledger.SwapResult(nullifierHash)
}

// findCommitment scans the deposit log for the commitment, retrying with a
// fixed pause until the context expires. A context without deadline scans
// exactly once.
func (p *Prover) findCommitment(ctx context.Context, comm *big.Int) (uint32, error) {
	for {
		events, err := p.ledger.DepositEvents()
		if err != nil {
			return 0, err
		}
		for _, ev := range events {
			if ev.Commitment.MathBigInt().Cmp(comm) == 0 {
				return ev.LeafIndex, nil
			}
		}
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			return 0, ErrCommitmentNotFound
		}
		select {
		case <-ctx.Done():
			return 0, ErrCommitmentNotFound
		case <-time.After(scanRetryInterval):
		}
	}
}
