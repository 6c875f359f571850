// Package withdrawal implements the zk-SNARK circuit that authorizes a
// withdrawal. The prover shows knowledge of a (nullifier, secret) pair whose
// commitment sits in the accumulator under the public root, and that the
// public nullifier hash is the hash of that nullifier. The recipient address
// is a public input so the proof cannot be replayed toward another address.
package withdrawal

import (
	"github.com/consensys/gnark/frontend"
	"github.com/vocdoni/gnark-crypto-primitives/hash/native/bn254/poseidon"
)

// TreeDepth is the depth of the merkle accumulator the circuit is compiled
// for. It must match the accumulator exactly.
const TreeDepth = 5

// HashFn is the hash function used along the merkle path and for the
// commitment and nullifier hashes.
var HashFn = poseidon.MultiHash

// Circuit proves membership of a commitment in the accumulator and correct
// derivation of the public nullifier hash.
type Circuit struct {
	// Public inputs, in the order expected by the verifier calldata.
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`
	Recipient     frontend.Variable `gnark:",public"`
	// Private witness.
	Nullifier    frontend.Variable
	Secret       frontend.Variable
	PathElements [TreeDepth]frontend.Variable
	PathIndices  [TreeDepth]frontend.Variable
}

// Define declares the circuit constraints.
func (c *Circuit) Define(api frontend.API) error {
	nullifierHash, err := HashFn(api, c.Nullifier)
	if err != nil {
		return err
	}
	api.AssertIsEqual(nullifierHash, c.NullifierHash)

	commitment, err := HashFn(api, c.Nullifier, c.Secret)
	if err != nil {
		return err
	}

	// walk the path from the leaf to the root; each index bit selects
	// whether the running node is the left or the right child
	node := commitment
	for i := 0; i < TreeDepth; i++ {
		api.AssertIsBoolean(c.PathIndices[i])
		left := api.Select(c.PathIndices[i], c.PathElements[i], node)
		right := api.Select(c.PathIndices[i], node, c.PathElements[i])
		node, err = HashFn(api, left, right)
		if err != nil {
			return err
		}
	}
	api.AssertIsEqual(node, c.Root)

	// square the recipient so the optimizer keeps the variable referenced
	// by a constraint
	recipientSquare := api.Mul(c.Recipient, c.Recipient)
	api.AssertIsEqual(recipientSquare, api.Mul(c.Recipient, c.Recipient))
	return nil
}
