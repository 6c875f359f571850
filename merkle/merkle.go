// Package merkle implements the append-only accumulator of deposit
// commitments. The tree is a fixed-depth dense Poseidon tree persisted in a
// key-value store, with well-known zero values standing in for empty
// subtrees. Its depth must match the compiled withdrawal circuit exactly.
package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/veilswap/veilswap-node/crypto/hash/poseidon"
	"github.com/veilswap/veilswap-node/crypto/signatures/ethereum"
	"github.com/veilswap/veilswap-node/db"
)

// Depth is the height of the accumulator. Capacity is 2^Depth leaves.
const Depth = 5

// MaxLeaves is the total number of commitments the accumulator can hold.
const MaxLeaves = 1 << Depth

// zeroSeed derives the level-0 empty-leaf value. The remaining levels chain
// H2(z, z) upwards.
const zeroSeed = "veilswap"

var (
	// ErrCapacityExceeded is returned by Insert once all leaves are taken.
	ErrCapacityExceeded = errors.New("merkle tree capacity exceeded")
	// ErrUnknownLeaf is returned when a proof is requested for a leaf index
	// that was never inserted.
	ErrUnknownLeaf = errors.New("unknown leaf index")
)

var (
	nodePrefix      = []byte("n/")
	knownRootPrefix = []byte("kr/")
	leafCountKey    = []byte("meta/leafcount")
)

// Proof is the authenticated path of one leaf. PathIndices[i] is 0 when the
// leaf's ancestor at level i is a left child and 1 when it is a right child.
type Proof struct {
	Leaf         *big.Int
	Root         *big.Int
	PathElements [Depth]*big.Int
	PathIndices  [Depth]uint8
}

// Tree is a persistent incremental merkle tree. All mutating and reading
// operations are safe for concurrent use.
type Tree struct {
	mu    sync.Mutex
	db    db.Database
	zeros [Depth + 1]*big.Int
}

// New opens (or initializes) a tree backed by d.
func New(d db.Database) (*Tree, error) {
	t := &Tree{db: d}
	z := new(big.Int).Mod(
		new(big.Int).SetBytes(ethereum.HashRaw([]byte(zeroSeed))),
		fr.Modulus(),
	)
	t.zeros[0] = z
	for i := 0; i < Depth; i++ {
		var err error
		z, err = poseidon.Hash2(z, z)
		if err != nil {
			return nil, fmt.Errorf("could not build zero chain: %w", err)
		}
		t.zeros[i+1] = z
	}
	return t, nil
}

// Insert appends a commitment, recomputes the root and returns the assigned
// leaf index. The new root is recorded in the known-roots registry so proofs
// generated against it remain acceptable after later insertions.
func (t *Tree) Insert(commitment *big.Int) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count, err := t.leafCount()
	if err != nil {
		return 0, err
	}
	if count >= MaxLeaves {
		return 0, ErrCapacityExceeded
	}

	tx := t.db.WriteTx()
	defer tx.Discard()

	cur := new(big.Int).Set(commitment)
	idx := count
	for level := 0; level < Depth; level++ {
		if err := tx.Set(nodeKey(level, idx), encodeField(cur)); err != nil {
			return 0, err
		}
		sibling, err := t.node(tx, level, idx^1)
		if err != nil {
			return 0, err
		}
		if idx&1 == 0 {
			cur, err = poseidon.Hash2(cur, sibling)
		} else {
			cur, err = poseidon.Hash2(sibling, cur)
		}
		if err != nil {
			return 0, fmt.Errorf("could not hash level %d: %w", level, err)
		}
		idx >>= 1
	}
	if err := tx.Set(nodeKey(Depth, 0), encodeField(cur)); err != nil {
		return 0, err
	}
	if err := tx.Set(append(knownRootPrefix, encodeField(cur)...), []byte{1}); err != nil {
		return 0, err
	}
	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, count+1)
	if err := tx.Set(leafCountKey, countBuf); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit insert: %w", err)
	}
	return count, nil
}

// Root returns the current root. An empty tree returns the top of the zero
// chain.
func (t *Tree) Root() (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.node(t.db, Depth, 0)
}

// LeafCount returns the number of commitments inserted so far.
func (t *Tree) LeafCount() (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leafCount()
}

// GenerateProof builds the authenticated path for a previously inserted leaf.
func (t *Tree) GenerateProof(leafIndex uint32) (*Proof, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count, err := t.leafCount()
	if err != nil {
		return nil, err
	}
	if leafIndex >= count {
		return nil, ErrUnknownLeaf
	}

	proof := &Proof{}
	proof.Leaf, err = t.node(t.db, 0, leafIndex)
	if err != nil {
		return nil, err
	}
	idx := leafIndex
	for level := 0; level < Depth; level++ {
		proof.PathElements[level], err = t.node(t.db, level, idx^1)
		if err != nil {
			return nil, err
		}
		proof.PathIndices[level] = uint8(idx & 1)
		idx >>= 1
	}
	proof.Root, err = t.node(t.db, Depth, 0)
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// IsKnownRoot reports whether root was ever the tree's root. Withdrawal
// proofs are generated against a snapshot of the tree, so any historical
// root is acceptable.
func (t *Tree) IsKnownRoot(root *big.Int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.db.Get(append(knownRootPrefix, encodeField(root)...))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// VerifyProof recomputes the root from the leaf and the path and compares it
// against the proof's claimed root.
func VerifyProof(proof *Proof) (bool, error) {
	cur := new(big.Int).Set(proof.Leaf)
	var err error
	for level := 0; level < Depth; level++ {
		sibling := proof.PathElements[level]
		if proof.PathIndices[level] == 0 {
			cur, err = poseidon.Hash2(cur, sibling)
		} else {
			cur, err = poseidon.Hash2(sibling, cur)
		}
		if err != nil {
			return false, err
		}
	}
	return cur.Cmp(proof.Root) == 0, nil
}

// node reads the stored node at (level, index), falling back to the zero
// value of that level when the slot is still empty.
func (t *Tree) node(r db.Reader, level int, index uint32) (*big.Int, error) {
	value, err := r.Get(nodeKey(level, index))
	if errors.Is(err, db.ErrKeyNotFound) {
		return new(big.Int).Set(t.zeros[level]), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(value), nil
}

func (t *Tree) leafCount() (uint32, error) {
	value, err := t.db.Get(leafCountKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(value), nil
}

func nodeKey(level int, index uint32) []byte {
	key := make([]byte, 0, len(nodePrefix)+5)
	key = append(key, nodePrefix...)
	key = append(key, byte(level))
	return binary.BigEndian.AppendUint32(key, index)
}

func encodeField(v *big.Int) []byte {
	out := make([]byte, 32)
	v.FillBytes(out)
	return out
}
