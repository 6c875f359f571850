package withdrawal

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/veilswap/veilswap-node/commitment"
	"github.com/veilswap/veilswap-node/db/metadb"
	"github.com/veilswap/veilswap-node/merkle"
)

func testProofInputs(t *testing.T, passphrase string, recipient common.Address) *ProofInputs {
	t.Helper()
	c := qt.New(t)

	d, err := metadb.New(metadb.TypeInMemory, t.TempDir())
	c.Assert(err, qt.IsNil)
	t.Cleanup(func() { _ = d.Close() })
	tree, err := merkle.New(d)
	c.Assert(err, qt.IsNil)

	note, err := commitment.Derive(passphrase)
	c.Assert(err, qt.IsNil)

	// surround the target leaf with unrelated commitments
	_, err = tree.Insert(big.NewInt(1001))
	c.Assert(err, qt.IsNil)
	leafIndex, err := tree.Insert(note.Commitment)
	c.Assert(err, qt.IsNil)
	_, err = tree.Insert(big.NewInt(1002))
	c.Assert(err, qt.IsNil)

	proof, err := tree.GenerateProof(leafIndex)
	c.Assert(err, qt.IsNil)

	return &ProofInputs{
		Nullifier:   note.Nullifier,
		Secret:      note.Secret,
		Recipient:   recipient,
		MerkleProof: proof,
	}
}

func TestWithdrawalCircuit(t *testing.T) {
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	inputs := testProofInputs(t, "abc123", recipient)

	assignment, err := inputs.Assignment()
	qt.Assert(t, err, qt.IsNil)

	assert := test.NewAssert(t)
	assert.SolvingSucceeded(&Circuit{}, assignment,
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16))
}

func TestWithdrawalCircuitWrongSecret(t *testing.T) {
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")
	inputs := testProofInputs(t, "abc123", recipient)

	assignment, err := inputs.Assignment()
	qt.Assert(t, err, qt.IsNil)
	assignment.Secret = new(big.Int).Add(inputs.Secret, big.NewInt(1))

	assert := test.NewAssert(t)
	assert.SolvingFailed(&Circuit{}, assignment,
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16))
}

func TestWithdrawalCircuitWrongRoot(t *testing.T) {
	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	inputs := testProofInputs(t, "abc123", recipient)

	assignment, err := inputs.Assignment()
	qt.Assert(t, err, qt.IsNil)
	assignment.Root = big.NewInt(424242)

	assert := test.NewAssert(t)
	assert.SolvingFailed(&Circuit{}, assignment,
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16))
}

func TestPublicSignalsOrder(t *testing.T) {
	c := qt.New(t)
	recipient := common.HexToAddress("0x4444444444444444444444444444444444444444")
	inputs := testProofInputs(t, "abc123", recipient)

	signals, err := inputs.PublicSignals()
	c.Assert(err, qt.IsNil)
	c.Assert(signals[0].Cmp(inputs.MerkleProof.Root), qt.Equals, 0)

	nh, err := inputs.NullifierHash()
	c.Assert(err, qt.IsNil)
	c.Assert(signals[1].Cmp(nh), qt.Equals, 0)
	c.Assert(signals[2].Cmp(RecipientToField(recipient)), qt.Equals, 0)
}
