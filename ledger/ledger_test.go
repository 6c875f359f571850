package ledger

import (
	"context"
	"fmt"
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
	"github.com/veilswap/veilswap-node/prover"
	"github.com/veilswap/veilswap-node/storage"
	"github.com/veilswap/veilswap-node/types"
)

const testChainID = 1337

var (
	testTokenOut = common.HexToAddress("0xbbbb00000000000000000000000000000000bbbb")
	testRouter   = common.HexToAddress("0xcccc00000000000000000000000000000000cccc")
)

// circuit fixture shared across tests, compiled and set up once
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

// memTransferer records transfers, optionally failing every call.
type memTransferer struct {
	mu        sync.Mutex
	transfers []string
	fail      bool
}

func (m *memTransferer) Transfer(_ context.Context, asset types.Asset, to common.Address, amount *big.Int) error {
	if m.fail {
		return fmt.Errorf("backend unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, fmt.Sprintf("%s:%s:%s", asset.String(), to.Hex(), amount.String()))
	return nil
}

func newTestLedger(t *testing.T, vk groth16.VerifyingKey, operator common.Address) (*Ledger, *memTransferer, *aggregator.FixedRateExecutor) {
	t.Helper()
	d, err := metadb.New(metadb.TypeInMemory, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	stg := storage.New(d)
	t.Cleanup(stg.Close)

	transfers := &memTransferer{}
	executor := aggregator.NewFixedRateExecutor(2, 1)
	l, err := New(Config{
		Storage:      stg,
		Executor:     executor,
		Transfers:    transfers,
		VerifyingKey: vk,
		Operator:     operator,
		ChainID:      testChainID,
	})
	qt.Assert(t, err, qt.IsNil)
	return l, transfers, executor
}

func registerTestConfig(t *testing.T, l *Ledger) *types.SwapConfig {
	t.Helper()
	cfg := &types.SwapConfig{
		ID:          new(types.BigInt).SetInt(1),
		TokenIn:     types.NativeAsset(),
		FixedAmount: new(types.BigInt).SetInt(1000),
	}
	qt.Assert(t, l.RegisterSwapConfig(cfg), qt.IsNil)
	return cfg
}

func signedSwapRequest(t *testing.T, cfg *types.SwapConfig, nullifierHash *big.Int, depositor *ethereum.Signer) *SwapRequest {
	t.Helper()
	c := qt.New(t)

	tokenOut := types.FungibleAsset(testTokenOut)
	payload := &aggregator.ExecutionPayload{
		SrcToken: cfg.TokenIn.Address(),
		DstToken: testTokenOut,
		Amount:   cfg.FixedAmount,
		Router:   testRouter,
		CallData: types.HexBytes{0x01},
	}
	encodedPayload, err := payload.Encode()
	c.Assert(err, qt.IsNil)

	authMsg, err := SwapAuthorizationMessage(testChainID, cfg.ID.MathBigInt(),
		nullifierHash, tokenOut, depositor.Address())
	c.Assert(err, qt.IsNil)
	sig, err := depositor.Sign(authMsg)
	c.Assert(err, qt.IsNil)

	return &SwapRequest{
		NullifierHash: new(types.BigInt).SetBigInt(nullifierHash),
		SwapConfigID:  cfg.ID,
		TokenOut:      tokenOut,
		Payload:       encodedPayload,
		Depositor:     depositor.Address(),
		Authorization: sig.Bytes(),
	}
}

func TestDeposit(t *testing.T) {
	c := qt.New(t)
	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l, _, _ := newTestLedger(t, nil, operator.Address())
	cfg := registerTestConfig(t, l)

	// unknown swap config is rejected
	_, err = l.Deposit(big.NewInt(111), new(types.BigInt).SetInt(9))
	c.Assert(err, qt.IsNotNil)

	idx, err := l.Deposit(big.NewInt(111), cfg.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(0))
	idx, err = l.Deposit(big.NewInt(222), cfg.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(1))

	events, err := l.DepositEvents()
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 2)

	count, err := l.LeafCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint32(2))
}

func TestRecordSwapAuthorization(t *testing.T) {
	c := qt.New(t)
	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l, _, _ := newTestLedger(t, nil, operator.Address())
	cfg := registerTestConfig(t, l)

	nh := big.NewInt(987654321)
	req := signedSwapRequest(t, cfg, nh, depositor)
	ctx := context.Background()

	// only the operator may record swaps
	_, err = l.RecordSwap(ctx, depositor.Address(), req)
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)

	// a signature from someone other than the declared depositor is rejected
	forged := signedSwapRequest(t, cfg, nh, depositor)
	forged.Depositor = operator.Address()
	_, err = l.RecordSwap(ctx, operator.Address(), forged)
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)

	amount, err := l.RecordSwap(ctx, operator.Address(), req)
	c.Assert(err, qt.IsNil)
	c.Assert(amount.Int64(), qt.Equals, int64(2000))
	c.Assert(l.NullifierStatus(nh), qt.Equals, types.NullifierSwapped)

	// at-most-once swap
	_, err = l.RecordSwap(ctx, operator.Address(), req)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadySwapped)
}

func TestRecordSwapPayloadMismatch(t *testing.T) {
	c := qt.New(t)
	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l, _, _ := newTestLedger(t, nil, operator.Address())
	cfg := registerTestConfig(t, l)

	nh := big.NewInt(555)
	req := signedSwapRequest(t, cfg, nh, depositor)

	// rebuild the payload with a wrong amount but keep the valid signature
	badPayload := &aggregator.ExecutionPayload{
		SrcToken: cfg.TokenIn.Address(),
		DstToken: testTokenOut,
		Amount:   new(types.BigInt).SetInt(999),
		Router:   testRouter,
		CallData: types.HexBytes{0x01},
	}
	req.Payload, err = badPayload.Encode()
	c.Assert(err, qt.IsNil)

	_, err = l.RecordSwap(context.Background(), operator.Address(), req)
	c.Assert(err, qt.ErrorIs, aggregator.ErrPayloadMismatch)
	c.Assert(l.NullifierStatus(nh), qt.Equals, types.NullifierUnseen)
}

func TestWithdrawEndToEnd(t *testing.T) {
	c := qt.New(t)
	ccs, pk, vk := circuitFixture(t)

	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l, transfers, _ := newTestLedger(t, vk, operator.Address())
	cfg := registerTestConfig(t, l)
	ctx := context.Background()

	// deposit
	note, err := commitment.Derive("abc123")
	c.Assert(err, qt.IsNil)
	leafIndex, err := l.Deposit(note.Commitment, cfg.ID)
	c.Assert(err, qt.IsNil)

	// swap
	nullifierHash, err := note.NullifierHash()
	c.Assert(err, qt.IsNil)
	req := signedSwapRequest(t, cfg, nullifierHash, depositor)
	amountOut, err := l.RecordSwap(ctx, operator.Address(), req)
	c.Assert(err, qt.IsNil)

	// prove
	recipient := common.HexToAddress("0x9999000000000000000000000000000000009999")
	merkleProof, err := l.Proof(leafIndex)
	c.Assert(err, qt.IsNil)
	inputs := &withdrawal.ProofInputs{
		Nullifier:   note.Nullifier,
		Secret:      note.Secret,
		Recipient:   recipient,
		MerkleProof: merkleProof,
	}
	assignment, err := inputs.Assignment()
	c.Assert(err, qt.IsNil)
	gnarkProof, err := prover.Prove(circuits.WithdrawalCurve, ccs, pk, assignment)
	c.Assert(err, qt.IsNil)
	signals, err := inputs.PublicSignals()
	c.Assert(err, qt.IsNil)
	proof, err := withdrawal.EncodeProof(gnarkProof, signals)
	c.Assert(err, qt.IsNil)

	// a wrong recipient must be rejected before verification
	_, err = l.Withdraw(ctx, nullifierHash, operator.Address(), proof)
	c.Assert(err, qt.ErrorIs, ErrPublicSignalMismatch)

	// rewriting the recipient signal to another address makes the signals
	// self-consistent, so rejection must come from proof verification itself
	attacker := operator.Address()
	stolen := *proof
	stolen.PublicSignals[2] = new(types.BigInt).SetBigInt(withdrawal.RecipientToField(attacker))
	_, err = l.Withdraw(ctx, nullifierHash, attacker, &stolen)
	c.Assert(err, qt.ErrorIs, ErrInvalidProof)
	c.Assert(l.NullifierStatus(nullifierHash), qt.Equals, types.NullifierSwapped)

	// withdraw
	result, err := l.Withdraw(ctx, nullifierHash, recipient, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Amount.MathBigInt().Cmp(amountOut), qt.Equals, 0)
	c.Assert(transfers.transfers, qt.HasLen, 1)

	// at-most-once withdrawal, no double transfer
	_, err = l.Withdraw(ctx, nullifierHash, recipient, proof)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadyWithdrawn)
	c.Assert(transfers.transfers, qt.HasLen, 1)
}

func TestWithdrawUnknownRoot(t *testing.T) {
	c := qt.New(t)
	ccs, pk, vk := circuitFixture(t)

	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)

	// prove against one ledger, withdraw against a fresh one that never had
	// the proof's root
	source, _, _ := newTestLedger(t, vk, operator.Address())
	sourceCfg := registerTestConfig(t, source)
	note, err := commitment.Derive("abc123")
	c.Assert(err, qt.IsNil)
	leafIndex, err := source.Deposit(note.Commitment, sourceCfg.ID)
	c.Assert(err, qt.IsNil)
	merkleProof, err := source.Proof(leafIndex)
	c.Assert(err, qt.IsNil)

	recipient := common.HexToAddress("0x9999000000000000000000000000000000009999")
	inputs := &withdrawal.ProofInputs{
		Nullifier:   note.Nullifier,
		Secret:      note.Secret,
		Recipient:   recipient,
		MerkleProof: merkleProof,
	}
	assignment, err := inputs.Assignment()
	c.Assert(err, qt.IsNil)
	gnarkProof, err := prover.Prove(circuits.WithdrawalCurve, ccs, pk, assignment)
	c.Assert(err, qt.IsNil)
	signals, err := inputs.PublicSignals()
	c.Assert(err, qt.IsNil)
	proof, err := withdrawal.EncodeProof(gnarkProof, signals)
	c.Assert(err, qt.IsNil)

	target, _, _ := newTestLedger(t, vk, operator.Address())
	targetCfg := registerTestConfig(t, target)
	nullifierHash, err := note.NullifierHash()
	c.Assert(err, qt.IsNil)
	req := signedSwapRequest(t, targetCfg, nullifierHash, depositor)
	_, err = target.RecordSwap(context.Background(), operator.Address(), req)
	c.Assert(err, qt.IsNil)

	_, err = target.Withdraw(context.Background(), nullifierHash, recipient, proof)
	c.Assert(err, qt.ErrorIs, ErrUnknownRoot)
}

func TestWithdrawTransferFailure(t *testing.T) {
	c := qt.New(t)
	ccs, pk, vk := circuitFixture(t)

	operator, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	depositor, err := ethereum.NewSigner()
	c.Assert(err, qt.IsNil)
	l, transfers, _ := newTestLedger(t, vk, operator.Address())
	cfg := registerTestConfig(t, l)
	ctx := context.Background()

	note, err := commitment.Derive("transfer-failure")
	c.Assert(err, qt.IsNil)
	leafIndex, err := l.Deposit(note.Commitment, cfg.ID)
	c.Assert(err, qt.IsNil)
	nullifierHash, err := note.NullifierHash()
	c.Assert(err, qt.IsNil)
	req := signedSwapRequest(t, cfg, nullifierHash, depositor)
	_, err = l.RecordSwap(ctx, operator.Address(), req)
	c.Assert(err, qt.IsNil)

	recipient := common.HexToAddress("0x7777000000000000000000000000000000007777")
	merkleProof, err := l.Proof(leafIndex)
	c.Assert(err, qt.IsNil)
	inputs := &withdrawal.ProofInputs{
		Nullifier:   note.Nullifier,
		Secret:      note.Secret,
		Recipient:   recipient,
		MerkleProof: merkleProof,
	}
	assignment, err := inputs.Assignment()
	c.Assert(err, qt.IsNil)
	gnarkProof, err := prover.Prove(circuits.WithdrawalCurve, ccs, pk, assignment)
	c.Assert(err, qt.IsNil)
	signals, err := inputs.PublicSignals()
	c.Assert(err, qt.IsNil)
	proof, err := withdrawal.EncodeProof(gnarkProof, signals)
	c.Assert(err, qt.IsNil)

	transfers.fail = true
	_, err = l.Withdraw(ctx, nullifierHash, recipient, proof)
	c.Assert(err, qt.ErrorIs, ErrTransferFailed)

	// the consumed marker is not rolled back
	c.Assert(l.IsConsumed(nullifierHash), qt.IsTrue)
	_, err = l.Withdraw(ctx, nullifierHash, recipient, proof)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadyWithdrawn)
}
