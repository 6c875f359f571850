// Package poseidon provides the two Poseidon hash primitives the swap
// protocol is built on: the 1-ary nullifier hash and the 2-ary commitment and
// merkle-node hash. Both must match, bit for bit, the Poseidon gadget the
// withdrawal circuit uses, so this package always goes through the iden3
// circom-compatible implementation.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Hash1 computes the 1-ary Poseidon hash, used to derive a nullifier hash
// from a nullifier.
func Hash1(x *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{x})
}

// Hash2 computes the 2-ary Poseidon hash, used for commitments and for the
// internal nodes of the merkle accumulator.
func Hash2(x, y *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{x, y})
}

// MultiPoseidon computes the Poseidon hash of a variable number of big.Int
// inputs. It handles large numbers of inputs by chunking them into groups of
// 16, hashing each chunk, and then recursively hashing the resulting hashes
// together. Returns an error if no inputs are provided.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	if len(inputs) <= 16 {
		return poseidon.Hash(inputs)
	}

	numChunks := (len(inputs) + 15) / 16
	hashes := make([]*big.Int, 0, numChunks)
	for i := 0; i < len(inputs); i += 16 {
		end := min(i+16, len(inputs))
		hash, err := poseidon.Hash(inputs[i:end])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	if len(hashes) <= 16 {
		return poseidon.Hash(hashes)
	}
	return MultiPoseidon(hashes...)
}
