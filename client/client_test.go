package client

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/veilswap/veilswap-node/aggregator"
	"github.com/veilswap/veilswap-node/circuits"
	"github.com/veilswap/veilswap-node/circuits/withdrawal"
	"github.com/veilswap/veilswap-node/commitment"
	"github.com/veilswap/veilswap-node/crypto/signatures/ethereum"
	"github.com/veilswap/veilswap-node/db/metadb"
	"github.com/veilswap/veilswap-node/ledger"
	"github.com/veilswap/veilswap-node/prover"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
)

const testChainID = 1337

var testTokenOut = common.HexToAddress("0xbbbb00000000000000000000000000000000bbbb")

var (
	fixtureOnce sync.Once
	fixtureCCS  constraint.ConstraintSystem
	fixturePK   groth16.ProvingKey
	fixtureVK   groth16.VerifyingKey
	fixtureErr  error
)

func circuitFixture(t *testing.T) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey) {
	t.Helper()
	fixtureOnce.Do(func() {
		fixtureCCS, fixtureErr = frontend.Compile(
			circuits.WithdrawalCurve.ScalarField(), r1cs.NewBuilder, &withdrawal.Circuit{})
		if fixtureErr != nil {
			return
		}
		fixturePK, fixtureVK, fixtureErr = prover.Setup(fixtureCCS)
	})
	qt.Assert(t, fixtureErr, qt.IsNil)
	return fixtureCCS, fixturePK, fixtureVK
}

type noopTransferer struct{}

func (noopTransferer) Transfer(context.Context, types.Asset, common.Address, *big.Int) error {
	return nil
}

func newTestLedger(t *testing.T, vk groth16.VerifyingKey, operator common.Address) *ledger.Ledger {
	t.Helper()
	d, err := metadb.New(metadb.TypeInMemory, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	stg := storage.New(d)
	t.Cleanup(stg.Close)
	l, err := ledger.New(ledger.Config{
		Storage:      stg,
		Executor:     aggregator.NewFixedRateExecutor(2, 1),
		Transfers:    noopTransferer{},
		VerifyingKey: vk,
		Operator:     operator,
		ChainID:      testChainID,
	})
	qt.Assert(t, err, qt.IsNil)
	return l
}

// TestCommitSwapWithdraw exercises the full protocol round trip from the
// depositor's point of view.
func TestCommitSwapWithdraw(t *testing.T) {
	c := qt.New(t)
	ccs, pk, vk := circuitFixture(t)
	ctx := context.Background()

	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l := newTestLedger(t, vk, operator.Address())

	cfg := &types.SwapConfig{
		ID:          new(types.BigInt).SetInt(1),
		TokenIn:     types.NativeAsset(),
		FixedAmount: new(types.BigInt).SetInt(1000),
	}
	c.Assert(l.RegisterSwapConfig(cfg), qt.IsNil)

	// commit
	note, err := commitment.Derive("abc123")
	c.Assert(err, qt.IsNil)
	_, err = l.Deposit(note.Commitment, cfg.ID)
	c.Assert(err, qt.IsNil)

	// swap
	nullifierHash, err := note.NullifierHash()
	c.Assert(err, qt.IsNil)
	tokenOut := types.FungibleAsset(testTokenOut)
	payload := &aggregator.ExecutionPayload{
		SrcToken: cfg.TokenIn.Address(),
		DstToken: testTokenOut,
		Amount:   cfg.FixedAmount,
		CallData: types.HexBytes{0x01},
	}
	encodedPayload, err := payload.Encode()
	c.Assert(err, qt.IsNil)
	authMsg, err := ledger.SwapAuthorizationMessage(testChainID, cfg.ID.MathBigInt(),
		nullifierHash, tokenOut, depositor.Address())
	c.Assert(err, qt.IsNil)
	sig, err := depositor.Sign(authMsg)
	c.Assert(err, qt.IsNil)
	_, err = l.RecordSwap(ctx, operator.Address(), &ledger.SwapRequest{
		NullifierHash: new(types.BigInt).SetBigInt(nullifierHash),
		SwapConfigID:  cfg.ID,
		TokenOut:      tokenOut,
		Payload:       encodedPayload,
		Depositor:     depositor.Address(),
		Authorization: sig.Bytes(),
	})
	c.Assert(err, qt.IsNil)

	// withdraw
	clientProver := New(l, ccs, pk, vk)
	result, err := clientProver.CheckWithdrawable(nullifierHash)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Amount.MathBigInt().Int64(), qt.Equals, int64(2000))

	recipient := common.HexToAddress("0x9999000000000000000000000000000000009999")
	proof, err := clientProver.GenerateWithdrawalProof(ctx, recipient, "abc123")
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Root(), qt.IsNotNil)
	c.Assert(proof.NullifierHash().Cmp(nullifierHash), qt.Equals, 0)
	for _, word := range proof.ContractProof {
		c.Assert(word, qt.IsNotNil)
	}

	got, err := l.Withdraw(ctx, nullifierHash, recipient, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Amount.MathBigInt().Int64(), qt.Equals, int64(2000))

	// the consumed nullifier is no longer withdrawable
	_, err = clientProver.CheckWithdrawable(nullifierHash)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadyWithdrawn)
}

func TestGenerateWithdrawalProofWrongPassphrase(t *testing.T) {
	c := qt.New(t)
	ccs, pk, vk := circuitFixture(t)

	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l := newTestLedger(t, vk, operator.Address())
	cfg := &types.SwapConfig{
		ID:          new(types.BigInt).SetInt(1),
		TokenIn:     types.NativeAsset(),
		FixedAmount: new(types.BigInt).SetInt(1000),
	}
	c.Assert(l.RegisterSwapConfig(cfg), qt.IsNil)

	note, err := commitment.Derive("abc123")
	c.Assert(err, qt.IsNil)
	_, err = l.Deposit(note.Commitment, cfg.ID)
	c.Assert(err, qt.IsNil)

	clientProver := New(l, ccs, pk, vk)
	recipient := common.HexToAddress("0x9999000000000000000000000000000000009999")
	_, err = clientProver.GenerateWithdrawalProof(context.Background(), recipient, "wrong-passphrase")
	c.Assert(err, qt.ErrorIs, ErrCommitmentNotFound)
}
