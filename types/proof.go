package types

import "math/big"

// WithdrawalProofSignals is the number of public signals the withdrawal
// circuit exposes: merkle root, nullifier hash and recipient, in that order.
// The order is part of the circuit's external contract and must match what
// the verification key expects.
const WithdrawalProofSignals = 3

// ContractProofLen is the number of uint256 words in the flattened Groth16
// proof calldata.
const ContractProofLen = 8

// WithdrawalProof carries a Groth16 proof for one withdrawal, together with
// its public signals and the flattened calldata layout the on-chain verifier
// expects.
type WithdrawalProof struct {
	// Proof is the gnark serialization of the Groth16 proof.
	Proof HexBytes `json:"proof"`
	// PublicSignals is [merkleRoot, nullifierHash, recipient].
	PublicSignals [WithdrawalProofSignals]*BigInt `json:"publicSignals"`
	// ContractProof is [a0, a1, b00, b01, b10, b11, c0, c1] with the
	// B coordinates swapped per the pairing-precompile byte order.
	ContractProof [ContractProofLen]*BigInt `json:"contractProof"`
}

// Root returns the merkle root public signal.
func (p *WithdrawalProof) Root() *big.Int {
	return p.PublicSignals[0].MathBigInt()
}

// NullifierHash returns the nullifier hash public signal.
func (p *WithdrawalProof) NullifierHash() *big.Int {
	return p.PublicSignals[1].MathBigInt()
}

// Recipient returns the recipient public signal.
func (p *WithdrawalProof) Recipient() *big.Int {
	return p.PublicSignals[2].MathBigInt()
}
