package commitment

import (
	"fmt"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDeriveDeterminism(t *testing.T) {
	c := qt.New(t)

	n1, err := Derive("abc123")
	c.Assert(err, qt.IsNil)
	n2, err := Derive("abc123")
	c.Assert(err, qt.IsNil)

	c.Assert(n1.Nullifier.Cmp(n2.Nullifier), qt.Equals, 0)
	c.Assert(n1.Secret.Cmp(n2.Secret), qt.Equals, 0)
	c.Assert(n1.Commitment.Cmp(n2.Commitment), qt.Equals, 0)

	nh1, err := n1.NullifierHash()
	c.Assert(err, qt.IsNil)
	nh2, err := n2.NullifierHash()
	c.Assert(err, qt.IsNil)
	c.Assert(nh1.Cmp(nh2), qt.Equals, 0)
}

func TestDeriveNumericPassphrase(t *testing.T) {
	c := qt.New(t)

	n, err := Derive("12345")
	c.Assert(err, qt.IsNil)
	c.Assert(n.Secret.Cmp(big.NewInt(12345)), qt.Equals, 0)
	c.Assert(n.Nullifier.Cmp(big.NewInt(54321)), qt.Equals, 0)
}

func TestDeriveRejectsEmpty(t *testing.T) {
	c := qt.New(t)
	_, err := Derive("")
	c.Assert(err, qt.IsNotNil)
}

func TestDeriveUnicodeReversal(t *testing.T) {
	c := qt.New(t)

	// rune-level reversal must not split multi-byte characters, so a
	// palindrome of runes yields nullifier material from the same string
	n1, err := Derive("héllo")
	c.Assert(err, qt.IsNil)
	n2, err := Derive("olléh")
	c.Assert(err, qt.IsNil)
	c.Assert(n1.Nullifier.Cmp(n2.Secret), qt.Equals, 0)
	c.Assert(n1.Secret.Cmp(n2.Nullifier), qt.Equals, 0)
}

func TestCommitmentCollisionSmoke(t *testing.T) {
	c := qt.New(t)

	seen := make(map[string]string)
	for i := 0; i < 10000; i++ {
		pass := fmt.Sprintf("passphrase-%d", i)
		n, err := Derive(pass)
		c.Assert(err, qt.IsNil)
		key := n.Commitment.String()
		prev, ok := seen[key]
		c.Assert(ok, qt.IsFalse, qt.Commentf("collision between %q and %q", prev, pass))
		seen[key] = pass
	}
}
