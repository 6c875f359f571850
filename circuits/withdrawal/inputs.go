package withdrawal

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilswap/veilswap-node/crypto/hash/poseidon"
	"github.com/veilswap/veilswap-node/merkle"
)

// ProofInputs collects everything needed to build a withdrawal witness: the
// secret note material, the merkle path of its commitment and the recipient
// address the proof will be bound to.
type ProofInputs struct {
	Nullifier   *big.Int
	Secret      *big.Int
	Recipient   common.Address
	MerkleProof *merkle.Proof
}

// Assignment builds the full circuit witness.
func (pi *ProofInputs) Assignment() (*Circuit, error) {
	if pi.Nullifier == nil || pi.Secret == nil {
		return nil, fmt.Errorf("missing note material")
	}
	if pi.MerkleProof == nil {
		return nil, fmt.Errorf("missing merkle proof")
	}
	if len(pi.MerkleProof.PathElements) != TreeDepth {
		return nil, fmt.Errorf("merkle proof depth mismatch: got %d, expected %d",
			len(pi.MerkleProof.PathElements), TreeDepth)
	}
	nullifierHash, err := pi.NullifierHash()
	if err != nil {
		return nil, err
	}
	assignment := &Circuit{
		Root:          pi.MerkleProof.Root,
		NullifierHash: nullifierHash,
		Recipient:     RecipientToField(pi.Recipient),
		Nullifier:     pi.Nullifier,
		Secret:        pi.Secret,
	}
	for i := 0; i < TreeDepth; i++ {
		assignment.PathElements[i] = pi.MerkleProof.PathElements[i]
		assignment.PathIndices[i] = int(pi.MerkleProof.PathIndices[i])
	}
	return assignment, nil
}

// NullifierHash computes the public nullifier hash of the witness.
func (pi *ProofInputs) NullifierHash() (*big.Int, error) {
	nh, err := poseidon.Hash1(pi.Nullifier)
	if err != nil {
		return nil, fmt.Errorf("could not hash nullifier: %w", err)
	}
	return nh, nil
}

// PublicSignals returns the public inputs in verifier order.
func (pi *ProofInputs) PublicSignals() ([3]*big.Int, error) {
	nh, err := pi.NullifierHash()
	if err != nil {
		return [3]*big.Int{}, err
	}
	return [3]*big.Int{
		new(big.Int).Set(pi.MerkleProof.Root),
		nh,
		RecipientToField(pi.Recipient),
	}, nil
}

// RecipientToField maps an Ethereum address to the field element the circuit
// receives as the public recipient input.
func RecipientToField(addr common.Address) *big.Int {
	return new(big.Int).SetBytes(addr.Bytes())
}
