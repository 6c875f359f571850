// Package commitment derives the secret note material behind a deposit. A
// passphrase deterministically yields a (nullifier, secret) pair and the
// public commitment that goes into the merkle accumulator. The derivation is
// client-side only and never transmits the raw field elements.
package commitment

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/veilswap/veilswap-node/crypto/hash/poseidon"
	"github.com/veilswap/veilswap-node/crypto/signatures/ethereum"
)

// Note holds the secret material of a single deposit together with its public
// commitment. Nullifier and Secret must never leave the client; Commitment is
// the value inserted into the accumulator.
type Note struct {
	Nullifier  *big.Int
	Secret     *big.Int
	Commitment *big.Int
}

// Derive computes a Note from a user passphrase. The mapping is deterministic
// so the same passphrase always regenerates the same note.
//
// A purely numeric passphrase is interpreted directly: the secret is its
// decimal value and the nullifier is the decimal value of the reversed
// string. Any other passphrase goes through keccak256 reduced into the
// scalar field, with the nullifier derived from the character-level reversal
// of the passphrase.
func Derive(passphrase string) (*Note, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	var secret, nullifier *big.Int
	if isNumeric(passphrase) {
		secret, _ = new(big.Int).SetString(passphrase, 10)
		nullifier, _ = new(big.Int).SetString(reverse(passphrase), 10)
		secret.Mod(secret, fr.Modulus())
		nullifier.Mod(nullifier, fr.Modulus())
	} else {
		secret = hashToField(passphrase)
		nullifier = hashToField(reverse(passphrase))
	}
	comm, err := poseidon.Hash2(nullifier, secret)
	if err != nil {
		return nil, fmt.Errorf("could not compute commitment: %w", err)
	}
	return &Note{
		Nullifier:  nullifier,
		Secret:     secret,
		Commitment: comm,
	}, nil
}

// NullifierHash returns the public 1-ary hash of the note's nullifier. It is
// revealed at swap time and keys the swap-result and consumed registries.
func (n *Note) NullifierHash() (*big.Int, error) {
	return poseidon.Hash1(n.Nullifier)
}

// hashToField maps an arbitrary string into the scalar field by reducing its
// keccak256 digest modulo the field order.
func hashToField(s string) *big.Int {
	digest := ethereum.HashRaw([]byte(s))
	return new(big.Int).Mod(new(big.Int).SetBytes(digest), fr.Modulus())
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// reverse performs a character-level (rune) reversal of s.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
