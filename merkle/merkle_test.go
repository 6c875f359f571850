package merkle

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/veilswap/veilswap-node/db/metadb"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	d, err := metadb.New(metadb.TypeInMemory, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { _ = d.Close() })
	tree, err := New(d)
	qt.Assert(t, err, qt.IsNil)
	return tree
}

func TestEmptyTreeRoot(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	root, err := tree.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(tree.zeros[Depth]), qt.Equals, 0)

	count, err := tree.LeafCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint32(0))
}

func TestInsertAndProve(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	leaves := []*big.Int{
		big.NewInt(11111),
		big.NewInt(22222),
		big.NewInt(33333),
	}
	for i, leaf := range leaves {
		idx, err := tree.Insert(leaf)
		c.Assert(err, qt.IsNil)
		c.Assert(idx, qt.Equals, uint32(i))
	}

	root, err := tree.Root()
	c.Assert(err, qt.IsNil)

	for i, leaf := range leaves {
		proof, err := tree.GenerateProof(uint32(i))
		c.Assert(err, qt.IsNil)
		c.Assert(proof.Leaf.Cmp(leaf), qt.Equals, 0)
		c.Assert(proof.Root.Cmp(root), qt.Equals, 0)

		ok, err := VerifyProof(proof)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue, qt.Commentf("proof for leaf %d", i))
	}
}

func TestProofFailsOnTamper(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	leaves := []*big.Int{
		big.NewInt(777),
		big.NewInt(888),
		big.NewInt(999),
	}
	for _, leaf := range leaves {
		_, err := tree.Insert(leaf)
		c.Assert(err, qt.IsNil)
	}

	for i := range leaves {
		proof, err := tree.GenerateProof(uint32(i))
		c.Assert(err, qt.IsNil)

		leaf := proof.Leaf
		proof.Leaf = new(big.Int).Add(leaf, big.NewInt(1))
		ok, err := VerifyProof(proof)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse, qt.Commentf("leaf %d: tampered leaf accepted", i))
		proof.Leaf = leaf

		// mutating any single path element must break verification
		for level := 0; level < Depth; level++ {
			sibling := proof.PathElements[level]
			proof.PathElements[level] = new(big.Int).Add(sibling, big.NewInt(1))
			ok, err := VerifyProof(proof)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsFalse, qt.Commentf("leaf %d: tampered path element at level %d accepted", i, level))
			proof.PathElements[level] = sibling
		}

		// flipping any single direction bit must break verification
		for level := 0; level < Depth; level++ {
			proof.PathIndices[level] ^= 1
			ok, err := VerifyProof(proof)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.IsFalse, qt.Commentf("leaf %d: flipped direction bit at level %d accepted", i, level))
			proof.PathIndices[level] ^= 1
		}

		// the restored proof still verifies
		ok, err = VerifyProof(proof)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
	}
}

func TestUnknownLeaf(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	_, err := tree.GenerateProof(0)
	c.Assert(err, qt.ErrorIs, ErrUnknownLeaf)

	_, err = tree.Insert(big.NewInt(1))
	c.Assert(err, qt.IsNil)
	_, err = tree.GenerateProof(1)
	c.Assert(err, qt.ErrorIs, ErrUnknownLeaf)
}

func TestCapacityExceeded(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	for i := 0; i < MaxLeaves; i++ {
		_, err := tree.Insert(big.NewInt(int64(i + 1)))
		c.Assert(err, qt.IsNil)
	}
	_, err := tree.Insert(big.NewInt(99))
	c.Assert(err, qt.ErrorIs, ErrCapacityExceeded)
}

func TestKnownRoots(t *testing.T) {
	c := qt.New(t)
	tree := newTestTree(t)

	var roots []*big.Int
	for i := 0; i < 4; i++ {
		_, err := tree.Insert(big.NewInt(int64(1000 + i)))
		c.Assert(err, qt.IsNil)
		root, err := tree.Root()
		c.Assert(err, qt.IsNil)
		roots = append(roots, root)
	}

	// every historical root stays valid after later insertions
	for _, root := range roots {
		known, err := tree.IsKnownRoot(root)
		c.Assert(err, qt.IsNil)
		c.Assert(known, qt.IsTrue)
	}

	known, err := tree.IsKnownRoot(big.NewInt(424242))
	c.Assert(err, qt.IsNil)
	c.Assert(known, qt.IsFalse)
}

func TestReopenKeepsState(t *testing.T) {
	c := qt.New(t)
	d, err := metadb.New(metadb.TypeInMemory, t.TempDir())
	c.Assert(err, qt.IsNil)
	defer func() { _ = d.Close() }()

	tree, err := New(d)
	c.Assert(err, qt.IsNil)
	_, err = tree.Insert(big.NewInt(555))
	c.Assert(err, qt.IsNil)
	root, err := tree.Root()
	c.Assert(err, qt.IsNil)

	// a new Tree over the same database sees the same state
	tree2, err := New(d)
	c.Assert(err, qt.IsNil)
	root2, err := tree2.Root()
	c.Assert(err, qt.IsNil)
	c.Assert(root2.Cmp(root), qt.Equals, 0)

	count, err := tree2.LeafCount()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint32(1))
}
